package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the process-wide tracer. Spans are no-ops unless SetupTracing
// installed an exporting provider.
var Tracer trace.Tracer = otel.Tracer("manifold")

// SetupTracing wires an OTLP/gRPC span exporter when the standard
// OTEL_EXPORTER_OTLP_ENDPOINT environment variable is set. It returns a
// shutdown function that flushes pending spans.
func SetupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer("manifold")

	return provider.Shutdown, nil
}
