package openloans

const (
	queryType = "OpenLoans"
)

// Query asks for the open loans of the calling borrower.
type Query struct{}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query.
func BuildQuery() Query {
	return Query{}
}
