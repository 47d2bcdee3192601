package support

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/weegigs/wee-counter-go/we"
)

const serviceName = "wee-counter"

// Shutdown flushes and stops a tracer provider.
type Shutdown func(ctx context.Context) error

// InstallTracing registers the global tracer provider for the configured exporter. With no
// exporter the otel no-op provider is left in place.
func InstallTracing(ctx context.Context, cfg Config, console io.Writer) (Shutdown, error) {
	exporter, err := spanExporter(ctx, cfg, console)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return func(context.Context) error { return nil }, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return provider.Shutdown, nil
}

func spanExporter(ctx context.Context, cfg Config, console io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.TraceExporter {
	case ConsoleTraces:
		return we.ConsoleExporter(console)
	case JaegerTraces:
		return we.JaegerExporter(cfg.JaegerEndpoint)
	case HoneycombTraces:
		return we.HoneycombExporter(ctx, cfg.HoneycombTeam, cfg.HoneycombDataset)
	default:
		return nil, nil
	}
}
