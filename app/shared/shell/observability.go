package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks command handler calls by status.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerRejectedMetric tracks commands rejected by a lending rule, by error type.
	CommandHandlerRejectedMetric = "commandhandler_rejected_operations_total"

	// CommandHandlerCanceledMetric tracks canceled command operations.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric tracks command operations that ran into their deadline.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// CommandHandlerConcurrencyConflictMetric tracks commands that failed with a concurrency conflict.
	CommandHandlerConcurrencyConflictMetric = "commandhandler_concurrency_conflicts_total"

	// CommandHandlerRetriesMetric tracks retry attempts.
	//
	// Labels: command_type, attempt_number (1..max-1), error_type.
	// Expected cardinality: ~5 commands × 4 attempts × 1 error type.
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks backoff delays before retries.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks exhausted retries.
	//
	// Alert on: increase(commandhandler_max_retries_reached_total[5m]) > 0
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks query handler calls by status.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks query operations that ran into their deadline.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	StatusSuccess             = "success"
	StatusRejected            = "rejected"
	StatusError               = "error"
	StatusCanceled            = "canceled"
	StatusTimeout             = "timeout"
	StatusConcurrencyConflict = "concurrency_conflict"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryStarted     = "query handler started"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryRejected    = "query handler rejected"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType = "command_type"
	LogAttrQueryType   = "query_type"
	LogAttrStatus      = "status"
	LogAttrDurationMS  = "duration_ms"
	LogAttrErrorType   = "error_type"
	LogAttrError       = "error"

	LabelAttemptNumber = "attempt_number"
	LabelFinalError    = "final_error_type"

	SpanNameCommandHandle = "commandhandler.handle"
	SpanNameQueryHandle   = "queryhandler.handle"
)

// StatusFor classifies a handler error into an observability status.
// Business rejections are expected outcomes and are kept apart from failures.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return StatusConcurrencyConflict
	case ledger.IsBusinessError(err), errors.Is(err, ErrUnauthenticated):
		return StatusRejected
	default:
		return StatusError
	}
}

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LabelAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:   errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordCommandMetrics records the duration and outcome counters of one command.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	err error,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	status := StatusFor(err)
	labels := BuildCommandLabels(commandType, status)

	recordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	switch status {
	case StatusRejected:
		rejectedLabels := BuildCommandLabels(commandType, status)
		rejectedLabels[LogAttrErrorType] = ledger.ErrorType(err)
		incrementCounter(ctx, collector, CommandHandlerRejectedMetric, rejectedLabels)

	case StatusCanceled:
		incrementCounter(ctx, collector, CommandHandlerCanceledMetric, labels)

	case StatusTimeout:
		incrementCounter(ctx, collector, CommandHandlerTimeoutMetric, labels)

	case StatusConcurrencyConflict:
		incrementCounter(ctx, collector, CommandHandlerConcurrencyConflictMetric, labels)
	}
}

// RecordRetryMetrics records the retry metadata of a finished command.
func RecordRetryMetrics(ctx context.Context, collector MetricsCollector, commandType string, result HandlerResult) {
	if collector == nil {
		return
	}

	if result.RetryAttempts > 1 {
		incrementCounter(ctx, collector, CommandHandlerRetriesMetric,
			BuildRetryLabels(commandType, result.RetryAttempts-1, result.LastErrorType))
		recordDuration(ctx, collector, CommandHandlerRetryDelayMetric, result.TotalRetryDelay,
			map[string]string{LogAttrCommandType: commandType})
	}

	if result.RetriesExhausted {
		incrementCounter(ctx, collector, CommandHandlerMaxRetriesReachedMetric, map[string]string{
			LogAttrCommandType: commandType,
			LabelFinalError:    result.LastErrorType,
		})
	}
}

// RecordQueryMetrics records the duration and outcome counters of one query.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	err error,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	status := StatusFor(err)
	labels := BuildQueryLabels(queryType, status)

	recordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	switch status {
	case StatusCanceled:
		incrementCounter(ctx, collector, QueryHandlerCanceledMetric, labels)

	case StatusTimeout:
		incrementCounter(ctx, collector, QueryHandlerTimeoutMetric, labels)
	}
}

// StartSpan starts a handler span, or returns ctx and nil when tracing is disabled.
func StartSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	spanName string,
	typeAttr string,
	typeName string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, spanName, map[string]string{typeAttr: typeName})
}

// FinishSpan completes a handler span with the outcome.
// The ledger.SpanContext status vocabulary knows success, rejected and error only.
func FinishSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	err error,
	duration time.Duration,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	status := StatusFor(err)
	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	spanStatus := StatusError
	switch status {
	case StatusSuccess:
		spanStatus = StatusSuccess
	case StatusRejected:
		spanStatus = StatusRejected
	}

	if err != nil {
		attrs[LogAttrErrorType] = ledger.ErrorType(err)
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, spanStatus, attrs)
}

// LogStart logs the start of a handler at debug level.
func LogStart(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	msg string,
	args ...any,
) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Debug(msg, args...)
	}
}

// LogOutcome logs a finished handler: success at info, rejections at info, failures at error level.
func LogOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	messages OutcomeMessages,
	err error,
	duration time.Duration,
	args ...any,
) {
	status := StatusFor(err)
	allArgs := append([]any{LogAttrStatus, status, LogAttrDurationMS, ToMilliseconds(duration)}, args...)

	switch status {
	case StatusSuccess:
		logInfo(ctx, logger, contextualLogger, messages.Completed, allArgs...)

	case StatusRejected:
		logInfo(ctx, logger, contextualLogger, messages.Rejected, append(allArgs, LogAttrErrorType, ledger.ErrorType(err))...)

	default:
		allArgs = append(allArgs, LogAttrErrorType, ledger.ErrorType(err), LogAttrError, err.Error())
		if contextualLogger != nil {
			contextualLogger.ErrorContext(ctx, messages.Failed, allArgs...)
		} else if logger != nil {
			logger.Error(messages.Failed, allArgs...)
		}
	}
}

// OutcomeMessages are the log messages for the outcomes of one handler kind.
type OutcomeMessages struct {
	Completed string
	Rejected  string
	Failed    string
}

var (
	CommandOutcomeMessages = OutcomeMessages{LogMsgCommandCompleted, LogMsgCommandRejected, LogMsgCommandFailed}
	QueryOutcomeMessages   = OutcomeMessages{LogMsgQueryCompleted, LogMsgQueryRejected, LogMsgQueryFailed}
)

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

func recordDuration(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}
