package removebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this use case needs.
type Ledger interface {
	DeleteBook(ctx context.Context, bookID uuid.UUID) error
}

// CommandHandler deletes catalog entries on behalf of an admin.
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

// Handle deletes the book after checking that the caller is an admin.
// The returned struct is empty; it only exists so the handler fits shell.CoreCommandHandler.
func (h CommandHandler) Handle(ctx context.Context, command Command) (struct{}, shell.HandlerResult, error) {
	if _, err := shell.RequireAdmin(ctx); err != nil {
		return struct{}{}, shell.HandlerResult{}, err
	}

	ctx = ledger.WithStrongConsistency(ctx)

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.ledger.DeleteBook(retryCtx, command.BookID)
	}, h.retryOptions...)

	return struct{}{}, shell.NewHandlerResult(retryMetrics), err
}
