package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// Exporter names accepted by Setup
const (
	ExporterNone    = "none"
	ExporterConsole = "console"
	ExporterOTLP    = "otlp"
)

// Setup installs a global tracer provider and returns its shutdown function.
// ExporterNone leaves tracing disabled and StartSpan a no-op.
func Setup(ctx context.Context, serviceName, exporter string, otlp exporters.OTLPConfig) (func(context.Context) error, error) {
	var spanExporter sdktrace.SpanExporter
	switch exporter {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterConsole:
		spanExporter = &exporters.ConsoleExporter{}
	case ExporterOTLP:
		exp, err := exporters.NewOTLPExporter(ctx, otlp)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		spanExporter = exp
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", exporter)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(spanExporter))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(provider.Tracer(serviceName))

	return provider.Shutdown, nil
}
