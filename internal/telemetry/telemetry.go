package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"ms-reservation/internal/config"
	"ms-reservation/internal/logger"
)

// Setup installs a global OTLP tracer provider when an endpoint is
// configured. The returned shutdown flushes pending spans; it is a no-op
// when tracing is disabled.
func Setup(cfg config.TelemetryConfig, log *logger.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.OTLPEndpoint == "" {
		log.Info("TELEMETRY", "OTLP endpoint not set, tracing disabled")
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		log.Error("TELEMETRY", fmt.Sprintf("otel exporter error: %v", err))
		return noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		log.Warn("TELEMETRY", fmt.Sprintf("otel resource error: %v", err))
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	log.Info("TELEMETRY", fmt.Sprintf("Exporting traces for %s to %s", cfg.ServiceName, cfg.OTLPEndpoint))

	return provider.Shutdown
}
