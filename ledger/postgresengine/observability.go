package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitFailed       = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgSchemaFailed       = "failed to ensure schema"
	logMsgSchemaEnsured      = "schema ensured"
	logMsgReturnClamped      = "return would exceed total copies, copies available clamped"
	logMsgOperationRejected  = "ledger operation rejected: "
	logMsgOperationFailed    = "ledger operation failed: "
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "ledger operation: "

	logAttrError           = "error"
	logAttrErrorType       = "error_type"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"
	logAttrBookID          = "book_id"
	logAttrBorrowerID      = "borrower_id"
	logAttrLoanID          = "loan_id"
	logAttrCopiesAvailable = "copies_available"
	logAttrTotalCopies     = "total_copies"
	logAttrCount           = "count"
	logAttrBooksTable      = "books_table"
	logAttrLoansTable      = "loans_table"

	logActionSchema         = "schema"
	logActionLockTimeout    = "lock timeout"
	logActionLockBook       = "lock book"
	logActionSelectBook     = "select book"
	logActionSelectBooks    = "select books"
	logActionCheckOpenLoan  = "check open loan"
	logActionCountOpenLoans = "count open loans"
	logActionDecrement      = "decrement copies"
	logActionIncrement      = "increment copies"
	logActionInsertLoan     = "insert loan"
	logActionCloseLoan      = "close loan"
	logActionOpenLoans      = "select open loans"
	logActionInsertBook     = "insert book"
	logActionUpdateBook     = "update book"
	logActionDeleteBook     = "delete book"
	logActionStats          = "stats"
	logActionInvariants     = "verify invariants"

	operationIssue            = "issue"
	operationReturn           = "return"
	operationListOpenLoans    = "list_open_loans"
	operationListBooks        = "list_books"
	operationGetBook          = "get_book"
	operationCreateBook       = "create_book"
	operationUpdateBook       = "update_book"
	operationDeleteBook       = "delete_book"
	operationStats            = "stats"
	operationVerifyInvariants = "verify_invariants"

	spanNamePrefix = "ledger."

	spanAttrOperation   = "operation"
	spanAttrErrorType   = "error_type"
	spanAttrDurationMS  = "duration_ms"
	spanAttrBookID      = "book_id"
	spanAttrBorrowerID  = "borrower_id"
	spanAttrConsistency = "consistency"

	labelStatus       = "status"
	labelConflictType = "conflict_type"

	statusSuccess  = "success"
	statusRejected = "rejected"
	statusError    = "error"

	metricOperationDuration    = "ledger_operation_duration_seconds"
	metricOperationOutcomes    = "ledger_operation_outcomes_total"
	metricDatabaseErrors       = "ledger_database_errors_total"
	metricConcurrencyConflicts = "ledger_concurrency_conflicts_total"
	metricReturnClamped        = "ledger_return_clamped_total"
	metricRowsReturned         = "ledger_rows_returned"
)

// === Logging ===
// Every helper writes to the plain logger and to the contextual logger, whichever are configured.

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (l *Ledger) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if l.logger != nil {
		l.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if l.contextualLogger != nil {
		l.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (l *Ledger) logOperation(ctx context.Context, action string, args ...any) {
	if l.logger != nil {
		l.logger.Info(logMsgOperation+action, args...)
	}

	if l.contextualLogger != nil {
		l.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logRejected logs a business rejection at info level, it is an expected outcome.
func (l *Ledger) logRejected(ctx context.Context, operation string, args ...any) {
	if l.logger != nil {
		l.logger.Info(logMsgOperationRejected+operation, args...)
	}

	if l.contextualLogger != nil {
		l.contextualLogger.InfoContext(ctx, logMsgOperationRejected+operation, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (l *Ledger) logWarn(ctx context.Context, message string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(message, args...)
	}

	if l.contextualLogger != nil {
		l.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at the error level.
func (l *Ledger) logError(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if l.logger != nil {
		l.logger.Error(message, allArgs...)
	}

	if l.contextualLogger != nil {
		l.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// === Metrics ===

func (l *Ledger) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if l.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := l.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	l.metricsCollector.RecordDuration(metric, duration, labels)
}

func (l *Ledger) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if l.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := l.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	l.metricsCollector.IncrementCounter(metric, labels)
}

func (l *Ledger) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if l.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := l.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	l.metricsCollector.RecordValue(metric, value, labels)
}

// recordReturnClamped logs and counts a return whose increment was capped at total copies.
func (l *Ledger) recordReturnClamped(ctx context.Context, book ledger.Book, borrowerID string) {
	l.logWarn(ctx, logMsgReturnClamped,
		logAttrBookID, book.ID.String(),
		logAttrBorrowerID, borrowerID,
		logAttrCopiesAvailable, book.CopiesAvailable,
		logAttrTotalCopies, book.TotalCopies)

	l.incrementCounter(ctx, metricReturnClamped, map[string]string{spanAttrOperation: operationReturn})
}

// === Operation Observer ===
// The observer wraps one public engine operation: it opens the span,
// and on finish records the duration, the outcome and the log line.

type operationObserver struct {
	l         *Ledger
	ctx       context.Context
	operation string
	span      ledger.SpanContext
	start     time.Time
}

// observe starts observing an operation and returns the context to run it with.
func (l *Ledger) observe(ctx context.Context, operation string, attrs map[string]string) (*operationObserver, context.Context) {
	spanAttrs := map[string]string{
		spanAttrOperation:   operation,
		spanAttrConsistency: ledger.GetConsistencyLevel(ctx).String(),
	}

	for key, value := range attrs {
		spanAttrs[key] = value
	}

	var span ledger.SpanContext
	if l.tracingCollector != nil {
		ctx, span = l.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
	}

	return &operationObserver{
		l:         l,
		ctx:       ctx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}, ctx
}

// statusFor maps an operation error to its outcome status.
func statusFor(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case ledger.IsBusinessError(err):
		return statusRejected
	default:
		return statusError
	}
}

// finish records the outcome of the operation. logArgs are added to the success or rejection log line.
func (o *operationObserver) finish(err error, logArgs ...any) {
	duration := time.Since(o.start)
	status := statusFor(err)
	errorType := ledger.ErrorType(err)

	o.l.recordDuration(o.ctx, metricOperationDuration, duration, map[string]string{
		spanAttrOperation: o.operation,
		labelStatus:       status,
	})

	o.l.incrementCounter(o.ctx, metricOperationOutcomes, map[string]string{
		spanAttrOperation: o.operation,
		labelStatus:       status,
		spanAttrErrorType: errorType,
	})

	args := append([]any{logAttrDurationMS, toMilliseconds(duration)}, logArgs...)

	switch status {
	case statusSuccess:
		o.l.logOperation(o.ctx, o.operation, args...)

	case statusRejected:
		o.l.logRejected(o.ctx, o.operation, append(args, logAttrErrorType, errorType)...)

	default:
		if errors.Is(err, ledger.ErrConcurrencyConflict) {
			o.l.incrementCounter(o.ctx, metricConcurrencyConflicts, map[string]string{
				spanAttrOperation: o.operation,
				labelConflictType: "lock",
			})
		} else {
			o.l.incrementCounter(o.ctx, metricDatabaseErrors, map[string]string{
				spanAttrOperation: o.operation,
				labelStatus:       statusError,
				spanAttrErrorType: errorType,
			})
		}

		o.l.logError(o.ctx, logMsgOperationFailed+o.operation, err, append(args, logAttrErrorType, errorType)...)
	}

	o.finishSpan(status, errorType, duration)
}

func (o *operationObserver) finishSpan(status, errorType string, duration time.Duration) {
	if o.l.tracingCollector == nil || o.span == nil {
		return
	}

	durationMS := fmt.Sprintf("%.2f", toMilliseconds(duration))
	o.span.AddAttribute(spanAttrDurationMS, durationMS)

	attrs := map[string]string{spanAttrDurationMS: durationMS}
	if status != statusSuccess {
		o.span.AddAttribute(spanAttrErrorType, errorType)
		attrs[spanAttrErrorType] = errorType
	}

	o.l.tracingCollector.FinishSpan(o.span, status, attrs)
}

// recordRows records how many rows a read operation returned.
func (o *operationObserver) recordRows(count int) {
	o.l.recordValue(o.ctx, metricRowsReturned, float64(count), map[string]string{
		spanAttrOperation: o.operation,
		labelStatus:       statusSuccess,
	})
}
