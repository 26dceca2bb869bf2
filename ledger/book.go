package ledger

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const maxPublishedYear = 9999

// Book is a catalog entry together with its copy inventory.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublishedYear   int       `json:"published_year"`
	TotalCopies     int       `json:"total_copies"`
	CopiesAvailable int       `json:"copies_available"`
}

// CopiesOnLoan returns the number of copies currently held by borrowers.
func (b Book) CopiesOnLoan() int {
	return b.TotalCopies - b.CopiesAvailable
}

// HasAvailableCopy reports whether at least one copy can be issued.
func (b Book) HasAvailableCopy() bool {
	return b.CopiesAvailable > 0
}

// BookDraft holds the fields of a Book an admin may set.
// Copies available is never set directly; it is derived from total copies and open loans.
type BookDraft struct {
	Title         string
	Author        string
	PublishedYear int
	TotalCopies   int
}

// BuildBookDraft validates and normalizes the admin input for a book.
func BuildBookDraft(title, author string, publishedYear, totalCopies int) (BookDraft, error) {
	draft := BookDraft{
		Title:         strings.TrimSpace(title),
		Author:        strings.TrimSpace(author),
		PublishedYear: publishedYear,
		TotalCopies:   totalCopies,
	}

	if err := draft.Validate(); err != nil {
		return BookDraft{}, err
	}

	return draft, nil
}

// Validate checks the draft and returns all violations joined with ErrInvalidBook.
func (d BookDraft) Validate() error {
	var violations []error

	if strings.TrimSpace(d.Title) == "" {
		violations = append(violations, ErrEmptyTitle)
	}

	if strings.TrimSpace(d.Author) == "" {
		violations = append(violations, ErrEmptyAuthor)
	}

	if d.PublishedYear < 0 || d.PublishedYear > maxPublishedYear {
		violations = append(violations, ErrInvalidPublishedYear)
	}

	if d.TotalCopies < 0 {
		violations = append(violations, ErrNegativeTotalCopies)
	}

	if len(violations) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidBook}, violations...)...)
}

// NewBook builds a fresh catalog entry with all copies available.
func NewBook(id uuid.UUID, draft BookDraft) (Book, error) {
	if id == uuid.Nil {
		return Book{}, errors.Join(ErrInvalidBook, ErrNilID)
	}

	if err := draft.Validate(); err != nil {
		return Book{}, err
	}

	return Book{
		ID:              id,
		Title:           draft.Title,
		Author:          draft.Author,
		PublishedYear:   draft.PublishedYear,
		TotalCopies:     draft.TotalCopies,
		CopiesAvailable: draft.TotalCopies,
	}, nil
}
