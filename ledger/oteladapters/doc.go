// Package oteladapters connects the ledger observability interfaces to OpenTelemetry.
//
// The ledger engine only knows the small Logger, ContextualLogger, MetricsCollector and
// TracingCollector interfaces from package ledger. The types in this package implement them
// on top of the OpenTelemetry APIs, so a service can plug the engine into its existing
// OTel providers:
//
//	logger := oteladapters.NewSlogBridgeLogger("lending-ledger")
//	metrics := oteladapters.NewMetricsCollector(otel.Meter("lending-ledger"))
//	tracing := oteladapters.NewTracingCollector(otel.Tracer("lending-ledger"))
//
//	engine, err := postgresengine.NewLedgerFromPGXPool(pool,
//		postgresengine.WithContextualLogger(logger),
//		postgresengine.WithMetrics(metrics),
//		postgresengine.WithTracing(tracing),
//	)
package oteladapters
