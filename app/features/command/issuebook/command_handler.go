package issuebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this use case needs.
type Ledger interface {
	Issue(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error)
}

// CommandHandler issues a book to the caller with retry on concurrency conflicts.
// Observability is added by wrapping it with observable.CommandWrapper.
type CommandHandler struct {
	ledger       Ledger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(l Ledger, opts ...Option) CommandHandler {
	handler := CommandHandler{ledger: l}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle issues the book and returns the new open loan.
func (h CommandHandler) Handle(ctx context.Context, command Command) (ledger.Loan, shell.HandlerResult, error) {
	caller, err := shell.RequireCaller(ctx)
	if err != nil {
		return ledger.Loan{}, shell.HandlerResult{}, err
	}

	ctx = ledger.WithStrongConsistency(ctx)

	var loan ledger.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var issueErr error
		loan, issueErr = h.ledger.Issue(retryCtx, command.BookID, caller.BorrowerID)

		return issueErr
	}, h.retryOptions...)

	if err != nil {
		return ledger.Loan{}, shell.NewHandlerResult(retryMetrics), err
	}

	return loan, shell.NewHandlerResult(retryMetrics), nil
}
