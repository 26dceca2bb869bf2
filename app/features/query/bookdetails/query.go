package bookdetails

import (
	"github.com/google/uuid"
)

const (
	queryType = "BookDetails"
)

// Query asks for a single catalog entry.
type Query struct {
	BookID uuid.UUID
}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query.
func BuildQuery(bookID uuid.UUID) Query {
	return Query{BookID: bookID}
}
