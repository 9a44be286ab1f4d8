package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codebreakz/hackathon-registration/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "hackathon-registration"

// setupTracing installs an OTLP tracer provider when an endpoint URL such as
// http://collector:4317 is configured.
// The returned func flushes and stops it.
func setupTracing(ctx context.Context, settings Settings) (func(context.Context) error, error) {
	if settings.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporterCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// An http:// endpoint disables TLS.
	exporter, err := otlptracegrpc.New(exporterCtx, otlptracegrpc.WithEndpointURL(settings.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", environmentName(settings)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

func environmentName(settings Settings) string {
	if settings.Env == api.PROD {
		return "prod"
	}
	return "local"
}
