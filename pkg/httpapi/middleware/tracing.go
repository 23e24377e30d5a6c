package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts one span per request against the tracer
// pkg/observability.Init produced — a noop tracer unless tracing is
// enabled, so this middleware is always safe to install. Adapted from the
// teacher's pkg/api/middleware/tracing.go to take the tracer as an
// argument instead of resolving it from the global otel package, since
// this service's tracer lifecycle is owned by cmd/api/main.go.
func TracingMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	propagator := propagation.TraceContext{}

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		spanName := c.FullPath()
		if spanName == "" {
			spanName = c.Request.URL.Path
		}

		ctx, span := tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(c.Request.Method),
				semconv.HTTPTargetKey.String(c.Request.URL.Path),
				attribute.String("http.client_ip", c.ClientIP()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Header("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPStatusCodeKey.Int(status),
			attribute.Float64("http.duration_ms", float64(time.Since(start).Milliseconds())),
		)
		if status >= 400 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	}
}
