package bookdetails

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this query needs.
type Ledger interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (ledger.Book, error)
}

// QueryHandler reads one book.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(l Ledger) QueryHandler {
	return QueryHandler{ledger: l}
}

// Handle returns the book or ledger.ErrNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (ledger.Book, error) {
	if _, err := shell.RequireCaller(ctx); err != nil {
		return ledger.Book{}, err
	}

	return h.ledger.GetBook(ctx, query.BookID)
}
