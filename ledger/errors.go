package ledger

import (
	"context"
	"errors"
)

// Construction and configuration errors.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("empty table name supplied")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
	ErrNilClock              = errors.New("clock must not be nil")
)

// Lending errors. They are terminal for the triggering request and never retried.
var (
	ErrNotFound               = errors.New("book not found")
	ErrNoCopiesAvailable      = errors.New("no copies available")
	ErrAlreadyBorrowed        = errors.New("borrower already holds an open loan for this book")
	ErrNoOpenLoan             = errors.New("no open loan for this book and borrower")
	ErrBookInUse              = errors.New("book has open loans")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrBookAlreadyExists      = errors.New("book already exists")
	ErrTotalCopiesBelowOnLoan = errors.New("total copies must not be lower than the copies on loan")
)

// Validation errors, always joined with ErrInvalidBook.
var (
	ErrInvalidBook          = errors.New("invalid book")
	ErrNilID                = errors.New("id must not be nil")
	ErrEmptyTitle           = errors.New("title must not be empty")
	ErrEmptyAuthor          = errors.New("author must not be empty")
	ErrNegativeTotalCopies  = errors.New("total copies must not be negative")
	ErrInvalidPublishedYear = errors.New("published year is out of range")
)

// Infrastructure errors, joined with the underlying driver error.
var (
	ErrConcurrencyConflict       = errors.New("concurrency conflict, the transaction could not be serialized")
	ErrInvariantViolated         = errors.New("ledger invariant violated")
	ErrBuildingQueryFailed       = errors.New("building the query failed")
	ErrQueryingFailed            = errors.New("querying the database failed")
	ErrScanningDBRowFailed       = errors.New("scanning the db row failed")
	ErrExecFailed                = errors.New("executing the statement failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
	ErrTransactionFailed         = errors.New("transaction failed")
	ErrGeneratingIDFailed        = errors.New("generating an id failed")
)

// Error type labels used for logs, metrics and span attributes.
const (
	ErrorTypeNone                = "none"
	ErrorTypeNotFound            = "not_found"
	ErrorTypeNoCopiesAvailable   = "no_copies_available"
	ErrorTypeAlreadyBorrowed     = "already_borrowed"
	ErrorTypeNoOpenLoan          = "no_open_loan"
	ErrorTypeBookInUse           = "book_in_use"
	ErrorTypePermissionDenied    = "permission_denied"
	ErrorTypeBookAlreadyExists   = "book_already_exists"
	ErrorTypeCopiesBelowOnLoan   = "total_copies_below_on_loan"
	ErrorTypeInvalidBook         = "invalid_book"
	ErrorTypeConcurrencyConflict = "concurrency_conflict"
	ErrorTypeInvariantViolated   = "invariant_violated"
	ErrorTypeContextCanceled     = "context_canceled"
	ErrorTypeDeadlineExceeded    = "context_deadline_exceeded"
	ErrorTypeOther               = "other"
)

var businessErrors = []struct {
	err       error
	errorType string
}{
	{ErrNotFound, ErrorTypeNotFound},
	{ErrNoCopiesAvailable, ErrorTypeNoCopiesAvailable},
	{ErrAlreadyBorrowed, ErrorTypeAlreadyBorrowed},
	{ErrNoOpenLoan, ErrorTypeNoOpenLoan},
	{ErrBookInUse, ErrorTypeBookInUse},
	{ErrPermissionDenied, ErrorTypePermissionDenied},
	{ErrBookAlreadyExists, ErrorTypeBookAlreadyExists},
	{ErrTotalCopiesBelowOnLoan, ErrorTypeCopiesBelowOnLoan},
	{ErrInvalidBook, ErrorTypeInvalidBook},
}

// IsBusinessError reports whether err belongs to the lending error taxonomy,
// as opposed to an infrastructure or context failure.
func IsBusinessError(err error) bool {
	for _, candidate := range businessErrors {
		if errors.Is(err, candidate.err) {
			return true
		}
	}

	return false
}

// ErrorType maps an error to a short, stable label.
func ErrorType(err error) string {
	if err == nil {
		return ErrorTypeNone
	}

	for _, candidate := range businessErrors {
		if errors.Is(err, candidate.err) {
			return candidate.errorType
		}
	}

	switch {
	case errors.Is(err, ErrConcurrencyConflict):
		return ErrorTypeConcurrencyConflict
	case errors.Is(err, ErrInvariantViolated):
		return ErrorTypeInvariantViolated
	case errors.Is(err, context.Canceled):
		return ErrorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeDeadlineExceeded
	default:
		return ErrorTypeOther
	}
}
