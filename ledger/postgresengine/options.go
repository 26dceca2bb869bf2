package postgresengine

import (
	"time"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Option defines a functional option for configuring the Ledger.
type Option func(*Ledger) error

// WithBooksTableName sets the name of the books table.
func WithBooksTableName(tableName string) Option {
	return func(l *Ledger) error {
		if tableName == "" {
			return ledger.ErrEmptyTableName
		}

		l.booksTableName = tableName

		return nil
	}
}

// WithLoansTableName sets the name of the loans table.
func WithLoansTableName(tableName string) Option {
	return func(l *Ledger) error {
		if tableName == "" {
			return ledger.ErrEmptyTableName
		}

		l.loansTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Ledger.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: loans issued and returned, catalog changes, durations (production-safe)
// Warn level: rollback failures, a return that had to be clamped at total copies
// Error level: infrastructure failures that cause an operation to fail.
func WithLogger(logger ledger.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Ledger.
// Log records then carry the trace and span of the operation when tracing is enabled.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(l *Ledger) error {
		l.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Ledger.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(l *Ledger) error {
		l.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Ledger.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(l *Ledger) error {
		l.tracingCollector = collector
		return nil
	}
}

// WithClock replaces the time source used for issue and return timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) error {
		if clock == nil {
			return ledger.ErrNilClock
		}

		l.clock = clock

		return nil
	}
}

// WithTxTimeout bounds the total duration of each transaction.
func WithTxTimeout(timeout time.Duration) Option {
	return func(l *Ledger) error {
		if timeout <= 0 {
			return ledger.ErrInvalidTimeout
		}

		l.txTimeout = timeout

		return nil
	}
}

// WithLockTimeout bounds how long a transaction waits for a row lock.
// Waits beyond it fail with ledger.ErrConcurrencyConflict.
func WithLockTimeout(timeout time.Duration) Option {
	return func(l *Ledger) error {
		if timeout < time.Millisecond {
			return ledger.ErrInvalidTimeout
		}

		l.lockTimeout = timeout

		return nil
	}
}
