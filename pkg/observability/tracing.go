// Package observability wraps OpenTelemetry request tracing for the HTTP
// API (pkg/httpapi). Grounded on the teacher's pkg/observability/tracing.go
// + pkg/api/middleware/tracing.go, reduced in scope per SPEC_FULL.md §2:
// no tracing backend is in this system's scope, so the default is a noop
// tracer (Config.Enabled=false) rather than always shipping spans to an
// OTLP collector. Setting TRACING_ENABLED=true switches to the OTLP/HTTP
// exporter against TRACING_ENDPOINT, unchanged from the teacher.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds tracing configuration.
type Config struct {
	ServiceName  string
	Environment  string
	Endpoint     string // OTLP/HTTP endpoint, e.g. "localhost:4318"
	Enabled      bool
	SamplingRate float64 // 0.0 to 1.0, only consulted when Enabled
}

// DefaultConfig returns the noop default: no collector configured.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:  serviceName,
		Environment:  "production",
		Endpoint:     "localhost:4318",
		Enabled:      false,
		SamplingRate: 1.0,
	}
}

// Provider wraps the OpenTelemetry trace provider.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Init sets up tracing. With cfg.Enabled false it returns a Provider over
// the global (noop) tracer, doing no network setup at all.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: otel.Tracer(cfg.ServiceName)}, nil
	}

	client := otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)

	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("observability: create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SamplingRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{provider: provider, tracer: provider.Tracer(cfg.ServiceName)}, nil
}

// Shutdown gracefully drains the trace provider, a noop when Init ran disabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// TraceID returns the current span's trace ID, or "" outside any span.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
