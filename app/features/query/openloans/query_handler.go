package openloans

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the part of the lending ledger this query needs.
type Ledger interface {
	ListOpenLoans(ctx context.Context, borrowerID uuid.UUID) (ledger.Loans, error)
}

// QueryHandler reads the caller's open loans.
type QueryHandler struct {
	ledger Ledger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(l Ledger) QueryHandler {
	return QueryHandler{ledger: l}
}

// Handle reads from the primary so a loan shows up right after it was issued.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (ledger.Loans, error) {
	caller, err := shell.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	return h.ledger.ListOpenLoans(ledger.WithStrongConsistency(ctx), caller.BorrowerID)
}
