package dashboard

import (
	"context"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this query needs.
type Ledger interface {
	Stats(ctx context.Context) (ledger.CatalogStats, error)
	ListBooks(ctx context.Context) ([]ledger.Book, error)
}

// QueryHandler builds the admin dashboard.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(l Ledger) QueryHandler {
	return QueryHandler{ledger: l}
}

// Handle returns ledger.ErrPermissionDenied unless the caller is an admin.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (Result, error) {
	if _, err := shell.RequireAdmin(ctx); err != nil {
		return Result{}, err
	}

	ctx = ledger.WithEventualConsistency(ctx)

	stats, err := h.ledger.Stats(ctx)
	if err != nil {
		return Result{}, err
	}

	books, err := h.ledger.ListBooks(ctx)
	if err != nil {
		return Result{}, err
	}

	return Result{Stats: stats, Books: books}, nil
}
