package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this query needs.
type Ledger interface {
	ListBooks(ctx context.Context) ([]ledger.Book, error)
	ListOpenLoans(ctx context.Context, borrowerID uuid.UUID) (ledger.Loans, error)
}

// QueryHandler combines the catalog with the caller's open loans.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(l Ledger) QueryHandler {
	return QueryHandler{ledger: l}
}

// Handle reads from the primary; the listing is the redirect target after issue and return.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (Result, error) {
	caller, err := shell.RequireCaller(ctx)
	if err != nil {
		return Result{}, err
	}

	ctx = ledger.WithStrongConsistency(ctx)

	books, err := h.ledger.ListBooks(ctx)
	if err != nil {
		return Result{}, err
	}

	loans, err := h.ledger.ListOpenLoans(ctx, caller.BorrowerID)
	if err != nil {
		return Result{}, err
	}

	return Result{Books: books, IssuedBookIDs: loans.BookIDs()}, nil
}
