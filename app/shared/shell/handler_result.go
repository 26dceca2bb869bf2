package shell

import "time"

// HandlerResult carries the execution metadata of a command handler,
// so the observable wrapper can report it without coupling handlers to collectors.
type HandlerResult struct {
	// RetryAttempts is the total number of attempts made (1 for no retries).
	RetryAttempts int

	// TotalRetryDelay is the time spent in backoff delays, excluding execution time.
	TotalRetryDelay time.Duration

	// LastErrorType is the ledger.ErrorType of the final attempt's error.
	LastErrorType string

	// RetriesExhausted is true when every attempt failed with a retryable error.
	RetriesExhausted bool
}

// NewHandlerResult builds a HandlerResult from the metrics of a retry run.
func NewHandlerResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
