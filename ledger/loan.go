package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Loan records that a borrower holds a copy of a book.
// It is open until ReturnedAt is set; the transition is one-way.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	BorrowerID uuid.UUID  `json:"borrower_id"`
	IssuedAt   time.Time  `json:"issued_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`

	// Denormalized for display, filled from the catalog when the loan is read.
	BookTitle  string `json:"book_title,omitempty"`
	BookAuthor string `json:"book_author,omitempty"`
}

// IsOpen reports whether the loan has not been returned yet.
func (l Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}

// Loans is a list of loans.
type Loans []Loan

// BookIDs returns the book ids of the loans in order.
func (ls Loans) BookIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.BookID)
	}

	return ids
}
