package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	erpRequests   metric.Int64Counter
	erpDuration   metric.Float64Histogram
	tokenRefresh  metric.Int64Counter
	entityWrites  metric.Int64Counter
	syncRuns      metric.Int64Counter
	catalogLookup metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "exactsync"
	}
	meter := provider.Meter(name)

	erpRequests, err := meter.Int64Counter("exactsync_erp_requests_total")
	if err != nil {
		return nil, err
	}
	erpDuration, err := meter.Float64Histogram("exactsync_erp_request_duration_seconds", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	tokenRefresh, err := meter.Int64Counter("exactsync_token_refresh_total")
	if err != nil {
		return nil, err
	}
	entityWrites, err := meter.Int64Counter("exactsync_entity_writes_total")
	if err != nil {
		return nil, err
	}
	syncRuns, err := meter.Int64Counter("exactsync_sync_runs_total")
	if err != nil {
		return nil, err
	}
	catalogLookup, err := meter.Int64Counter("exactsync_catalog_lookups_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		erpRequests:   erpRequests,
		erpDuration:   erpDuration,
		tokenRefresh:  tokenRefresh,
		entityWrites:  entityWrites,
		syncRuns:      syncRuns,
		catalogLookup: catalogLookup,
	}, nil
}

// RecordERPRequest counts one ERP call and its latency.
func (m *Metrics) RecordERPRequest(ctx context.Context, method, resource string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("method", strings.ToUpper(strings.TrimSpace(method))),
		attribute.String("resource", strings.TrimSpace(resource)),
		attribute.Int("status_code", statusCode),
	)
	m.erpRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.erpDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordTokenRefresh counts refresh grants by outcome.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.tokenRefresh.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEntityWrite counts creates and drift updates per entity kind.
func (m *Metrics) RecordEntityWrite(ctx context.Context, entity, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("entity", strings.TrimSpace(entity)),
		attribute.String("operation", strings.TrimSpace(operation)),
	)
	m.entityWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSyncRun counts finished orchestrator runs by workflow and final state.
func (m *Metrics) RecordSyncRun(ctx context.Context, workflow, state, errorKind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("workflow", strings.TrimSpace(workflow)),
		attribute.String("state", strings.TrimSpace(state)),
		attribute.String("error_kind", strings.TrimSpace(errorKind)),
	)
	m.syncRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCatalogLookup counts catalog lookups by kind and whether they hit.
func (m *Metrics) RecordCatalogLookup(ctx context.Context, kind string, found bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.Bool("found", found),
	)
	m.catalogLookup.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"method":      {},
	"resource":    {},
	"status_code": {},
	"outcome":     {},
	"entity":      {},
	"operation":   {},
	"workflow":    {},
	"state":       {},
	"error_kind":  {},
	"kind":        {},
	"found":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
