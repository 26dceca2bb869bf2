package catalog

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	queryType = "Catalog"
)

// Query asks for the full catalog from the caller's point of view.
type Query struct{}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query.
func BuildQuery() Query {
	return Query{}
}

// Result is the catalog ordered by title plus the books the caller holds.
type Result struct {
	Books         []ledger.Book `json:"books"`
	IssuedBookIDs []uuid.UUID   `json:"issued_book_ids"`
}

// IsIssued reports whether the caller holds an open loan for the book.
func (r Result) IsIssued(bookID uuid.UUID) bool {
	for _, id := range r.IssuedBookIDs {
		if id == bookID {
			return true
		}
	}

	return false
}
