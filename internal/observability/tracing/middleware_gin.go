package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/exactsync/internal/erperr"
	obscontext "github.com/smallbiznis/exactsync/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens the server span of a request. The span is named and
// tagged once the handlers ran, because the route, the session and the sync
// workflow are only known then.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("exactsync/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + c.Request.Method + " " + route)
		span.SetAttributes(requestAttributes(c, route, status)...)

		var lastErr error
		if last := c.Errors.Last(); last != nil {
			lastErr = last.Err
		}
		if kind, ok := erperr.KindOf(lastErr); ok {
			span.SetAttributes(attribute.String("erp.error_kind", string(kind)))
		}
		// ERP rejections are answered with 4xx and stay unset; gateway and
		// internal failures mark the span.
		if status >= http.StatusInternalServerError {
			if safeErr := SafeError(lastErr); safeErr != nil {
				span.RecordError(safeErr)
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func requestAttributes(c *gin.Context, route string, status int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	}
	ctx := c.Request.Context()
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, attribute.String("request_id", requestID))
	}
	if division := obscontext.DivisionFromContext(ctx); division != "" {
		attrs = append(attrs, attribute.String("exact.division", division))
	}
	if workflow := strings.TrimSpace(c.GetString("sync_kind")); workflow != "" {
		attrs = append(attrs, attribute.String("salesync.workflow", workflow))
	}
	return SafeAttributes(attrs...)
}
