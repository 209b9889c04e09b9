package commandinit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type ShutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error {
	return nil
}

// NewOpenTelemetry builds a tracer provider exporting to the OTLP gRPC
// endpoint from the standard OTEL_* environment variables. The returned
// shutdown func flushes pending spans; call it before the process exits so
// short runs don't lose their tail.
func NewOpenTelemetry(ctx context.Context, serviceName string) (trace.TracerProvider, ShutdownFunc, error) {
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithCompressor("gzip"))
	if err != nil {
		return nil, noopShutdown, fmt.Errorf("create OTEL exporter: %w", err)
	}

	resource, err := sdkresource.New(
		ctx,
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, noopShutdown, fmt.Errorf("create OTEL resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return tracerProvider, tracerProvider.Shutdown, nil
}
