package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	"github.com/smallbiznis/exactsync/internal/exact/domain"
	obsmetrics "github.com/smallbiznis/exactsync/internal/observability/metrics"
	obstracing "github.com/smallbiznis/exactsync/internal/observability/tracing"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxErrorBody = 4 << 10

type Params struct {
	fx.In

	Cfg     config.Config
	Tokens  domain.TokenSource
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
	HTTP    *http.Client        `optional:"true"`
}

// Client talks to the ERP REST API on behalf of a Session. Every call asks
// the token source for a valid token first. Nothing is retried.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     domain.TokenSource
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
	metrics    *obsmetrics.Metrics
	tracer     trace.Tracer
}

func New(p Params) *Client {
	httpClient := p.HTTP
	if httpClient == nil {
		httpClient = obstracing.WrapHTTPClient(&http.Client{})
	}
	log := p.Log.Named("exact.client")

	maxFailures := p.Cfg.Exact.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "exact-api",
		MaxRequests: 1,
		Timeout:     p.Cfg.Exact.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	timeout := p.Cfg.Exact.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(p.Cfg.Exact.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		tokens:     p.Tokens,
		breaker:    breaker,
		log:        log,
		metrics:    p.Metrics,
		tracer:     otel.Tracer("exactsync/exact"),
	}
}

// Get reads a collection and decodes d.results into out, which must point to a slice.
func (c *Client) Get(ctx context.Context, sess domain.Session, path string, q domain.Query, out any) error {
	raw, err := c.do(ctx, sess, http.MethodGet, path, q.Encode(), nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := decodeResults(raw, out); err != nil {
		return erperr.Wrap(erperr.KindTransport, "exact.get "+path, err)
	}
	return nil
}

// Post creates a record and decodes the d envelope into out when out is not nil.
func (c *Client) Post(ctx context.Context, sess domain.Session, path string, body any, out any) error {
	raw, err := c.do(ctx, sess, http.MethodPost, path, "", body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := decodeRecord(raw, out); err != nil {
		return erperr.Wrap(erperr.KindTransport, "exact.post "+path, err)
	}
	return nil
}

// Put updates a record; the ERP answers 204 without a body.
func (c *Client) Put(ctx context.Context, sess domain.Session, path string, body any) error {
	_, err := c.do(ctx, sess, http.MethodPut, path, "", body)
	return err
}

type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, sess domain.Session, method, path, rawQuery string, body any) ([]byte, error) {
	op := "exact." + strings.ToLower(method) + " " + path
	if !sess.Valid() {
		return nil, erperr.Validation(op, "session needs user and division")
	}

	token, err := c.tokens.EnsureValidToken(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, erperr.Wrap(erperr.KindValidation, op, err)
		}
	}

	endpoint := fmt.Sprintf("%s/api/v1/%s/%s", c.baseURL, sess.Division, strings.TrimLeft(path, "/"))
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	ctx, span := c.tracer.Start(ctx, "exact "+method+" "+resourceOf(path), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(obstracing.SafeAttributes(
		attribute.String("exact.resource", resourceOf(path)),
		attribute.String("exact.division", sess.Division),
	)...)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		res := response{status: resp.StatusCode, body: raw}
		if resp.StatusCode >= http.StatusInternalServerError {
			return res, errServerStatus
		}
		return res, nil
	})
	elapsed := time.Since(start)

	res, _ := result.(response)
	c.metrics.RecordERPRequest(ctx, method, resourceOf(path), res.status, elapsed)
	span.SetAttributes(attribute.Int("http.status_code", res.status))

	switch {
	case err == nil && res.status >= 200 && res.status < 300:
		c.log.Debug("exact request",
			zap.String("method", method),
			zap.String("resource", resourceOf(path)),
			zap.Int("status", res.status),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
		return res.body, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		span.SetStatus(codes.Error, "circuit open")
		return nil, erperr.Wrap(erperr.KindTransport, op, err)
	case err != nil && !errors.Is(err, errServerStatus):
		span.RecordError(obstracing.SafeError(err))
		span.SetStatus(codes.Error, "transport error")
		c.log.Warn("exact request failed", zap.String("method", method), zap.String("resource", resourceOf(path)), zap.Error(err))
		return nil, erperr.Wrap(erperr.KindTransport, op, err)
	}

	message := errorMessage(res.status, res.body)
	span.SetStatus(codes.Error, fmt.Sprintf("status %d", res.status))
	c.log.Warn("exact request rejected",
		zap.String("method", method),
		zap.String("resource", resourceOf(path)),
		zap.Int("status", res.status),
		zap.String("message", message),
	)

	if res.status == http.StatusUnauthorized {
		e := erperr.New(erperr.KindAuthRequired, op, message)
		e.Status = res.status
		return nil, e
	}
	e := erperr.New(erperr.KindTransport, op, message)
	e.Status = res.status
	return nil, e
}

var errServerStatus = errors.New("exact server error")

// resourceOf strips record addressing so metrics keep a low cardinality.
func resourceOf(path string) string {
	path = strings.TrimLeft(path, "/")
	if idx := strings.IndexByte(path, '('); idx >= 0 {
		return path[:idx]
	}
	return path
}
