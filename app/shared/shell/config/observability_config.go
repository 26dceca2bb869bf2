package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/AntonStoeckl/lending-ledger-go/ledger/oteladapters"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine"
)

const (
	metricExportInterval = 5 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// ObservabilityProviders holds the OpenTelemetry providers of a process.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource
}

// NewObservabilityConfig creates OpenTelemetry providers that export traces and metrics
// via OTLP gRPC to endpoint, and registers them as the global providers.
func NewObservabilityConfig(ctx context.Context, serviceName, serviceVersion, endpoint string) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)

	metricExporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Join(err, tracerProvider.Shutdown(ctx))
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter,
			metric.WithInterval(metricExportInterval))),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &ObservabilityProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Resource:       res,
	}, nil
}

// Shutdown flushes and stops the providers.
func (p *ObservabilityProviders) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}

// LedgerObservability holds the OpenTelemetry-backed collectors for the ledger and the use cases.
type LedgerObservability struct {
	Metrics          *oteladapters.MetricsCollector
	Tracing          *oteladapters.TracingCollector
	ContextualLogger *oteladapters.SlogBridgeLogger
}

// NewLedgerObservability creates collectors on the global providers registered by NewObservabilityConfig.
func NewLedgerObservability(instrumentationName string) LedgerObservability {
	return LedgerObservability{
		Metrics:          oteladapters.NewMetricsCollector(otel.Meter(instrumentationName)),
		Tracing:          oteladapters.NewTracingCollector(otel.Tracer(instrumentationName)),
		ContextualLogger: oteladapters.NewSlogBridgeLogger(instrumentationName),
	}
}

// EngineOptions returns the postgresengine options that wire the collectors into the ledger.
func (o LedgerObservability) EngineOptions() []postgresengine.Option {
	return []postgresengine.Option{
		postgresengine.WithMetrics(o.Metrics),
		postgresengine.WithTracing(o.Tracing),
		postgresengine.WithContextualLogger(o.ContextualLogger),
	}
}
