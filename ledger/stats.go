package ledger

// CatalogStats aggregates the catalog and loan tables for the admin dashboard.
type CatalogStats struct {
	Books           int `json:"books"`
	TotalCopies     int `json:"total_copies"`
	CopiesAvailable int `json:"copies_available"`
	OpenLoans       int `json:"open_loans"`
}

// InvariantViolation describes a book whose stored state breaks a ledger invariant.
type InvariantViolation struct {
	BookID          string
	TotalCopies     int
	CopiesAvailable int
	OpenLoans       int
	Reason          string
}
