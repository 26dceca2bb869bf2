package editbook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this use case needs.
type Ledger interface {
	UpdateBook(ctx context.Context, bookID uuid.UUID, draft ledger.BookDraft) (ledger.Book, error)
}

// CommandHandler updates catalog entries on behalf of an admin.
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

// Handle applies the draft to the book after checking that the caller is an admin.
func (h CommandHandler) Handle(ctx context.Context, command Command) (ledger.Book, shell.HandlerResult, error) {
	if _, err := shell.RequireAdmin(ctx); err != nil {
		return ledger.Book{}, shell.HandlerResult{}, err
	}

	ctx = ledger.WithStrongConsistency(ctx)

	var book ledger.Book

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var updateErr error
		book, updateErr = h.ledger.UpdateBook(retryCtx, command.BookID, command.Draft)

		return updateErr
	}, h.retryOptions...)

	if err != nil {
		return ledger.Book{}, shell.NewHandlerResult(retryMetrics), err
	}

	return book, shell.NewHandlerResult(retryMetrics), nil
}
