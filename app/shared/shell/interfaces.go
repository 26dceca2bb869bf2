package shell

import (
	"context"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Command is the contract for all command types.
// CommandType names the use case for observability and must work on the zero value.
type Command interface {
	CommandType() string
}

// Query is the contract for all query types.
// QueryType names the use case for observability and must work on the zero value.
type Query interface {
	QueryType() string
}

// CoreCommandHandler processes a command and reports its retry metadata.
// Implementations contain no observability, it is added by observable.CommandWrapper.
type CoreCommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (R, HandlerResult, error)
}

// CoreQueryHandler processes a query and returns its result.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Observability interfaces, shared with the ledger engine.
type (
	MetricsCollector           = ledger.MetricsCollector
	ContextualMetricsCollector = ledger.ContextualMetricsCollector
	TracingCollector           = ledger.TracingCollector
	SpanContext                = ledger.SpanContext
	ContextualLogger           = ledger.ContextualLogger
	Logger                     = ledger.Logger
)
