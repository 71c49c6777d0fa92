package tracer

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// InitTracer installs the global tracer provider. With no endpoint, or when the
// exporter cannot be built, spans are recorded but never exported.
func InitTracer(serviceName, otlpEndpoint string, appLogger *logger.Logger) *sdktrace.TracerProvider {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if otlpEndpoint == "" {
		appLogger.Info("OpenTelemetry tracing export is disabled: no OTLP endpoint configured.")
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp
	}

	appLogger.Info("Initializing OpenTelemetry tracer",
		zap.String("service_name", serviceName),
		zap.String("otlp_endpoint", otlpEndpoint),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		appLogger.Error("Failed to create OTLP trace exporter", zap.Error(err))
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		appLogger.Warn("Failed to merge OpenTelemetry resource, using default", zap.Error(err))
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	appLogger.Info("OpenTelemetry tracer initialized", zap.String("service_name", serviceName))
	return tp
}
