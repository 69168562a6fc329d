package observability

import (
	"net/http"

	"github.com/smallbiznis/exactsync/internal/observability/logger"
	"github.com/smallbiznis/exactsync/internal/observability/metrics"
	"github.com/smallbiznis/exactsync/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		provideHTTPClient,
	),
	fx.Invoke(ensureTracingProvider),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

// provideHTTPClient is the outbound client shared by the token endpoint and
// the ERP API. Per-call deadlines come from the request context.
func provideHTTPClient() *http.Client {
	return tracing.WrapHTTPClient(&http.Client{})
}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		Version:      cfg.Version,
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		StackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
