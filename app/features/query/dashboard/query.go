package dashboard

import (
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	queryType = "Dashboard"
)

// Query asks for the admin dashboard.
type Query struct{}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query.
func BuildQuery() Query {
	return Query{}
}

// Result holds the catalog totals and every book.
type Result struct {
	Stats ledger.CatalogStats `json:"stats"`
	Books []ledger.Book       `json:"books"`
}
