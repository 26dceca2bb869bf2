// Package memoryledger is an in-memory ledger with the lending semantics of the PostgreSQL engine.
// It backs the application and HTTP tests, which need a ledger but no database.
package memoryledger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger keeps books and loans in maps guarded by one mutex, so every operation is atomic.
type Ledger struct {
	mu    sync.Mutex
	books map[uuid.UUID]ledger.Book
	loans []ledger.Loan
	clock func() time.Time

	failures []error
	calls    int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		books: make(map[uuid.UUID]ledger.Book),
		clock: time.Now,
	}
}

// WithClock replaces the clock used for loan timestamps.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// FailNext makes the next len(errs) operations fail with the given errors, in order, without touching state.
func (l *Ledger) FailNext(errs ...error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures = append(l.failures, errs...)
}

// Calls returns how many operations were attempted, including injected failures.
func (l *Ledger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls
}

// begin locks the ledger and returns the next injected failure, if any. The caller must unlock.
func (l *Ledger) begin(ctx context.Context) error {
	l.mu.Lock()
	l.calls++

	if err := ctx.Err(); err != nil {
		return errors.Join(ledger.ErrQueryingFailed, err)
	}

	if len(l.failures) > 0 {
		err := l.failures[0]
		l.failures = l.failures[1:]

		return err
	}

	return nil
}

func (l *Ledger) now() time.Time {
	return l.clock().UTC().Truncate(time.Microsecond)
}

func (l *Ledger) Issue(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return ledger.Loan{}, err
	}

	book, found := l.books[bookID]
	if !found {
		return ledger.Loan{}, ledger.ErrNotFound
	}

	if !book.HasAvailableCopy() {
		return ledger.Loan{}, ledger.ErrNoCopiesAvailable
	}

	if l.openLoanIndex(bookID, borrowerID) >= 0 {
		return ledger.Loan{}, ledger.ErrAlreadyBorrowed
	}

	loanID, err := uuid.NewV7()
	if err != nil {
		return ledger.Loan{}, errors.Join(ledger.ErrGeneratingIDFailed, err)
	}

	book.CopiesAvailable--
	l.books[bookID] = book

	loan := ledger.Loan{
		ID:         loanID,
		BookID:     bookID,
		BorrowerID: borrowerID,
		IssuedAt:   l.now(),
		BookTitle:  book.Title,
		BookAuthor: book.Author,
	}
	l.loans = append(l.loans, loan)

	return loan, nil
}

func (l *Ledger) ReturnLoan(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return ledger.Loan{}, err
	}

	idx := l.openLoanIndex(bookID, borrowerID)
	if idx < 0 {
		return ledger.Loan{}, ledger.ErrNoOpenLoan
	}

	returnedAt := l.now()
	l.loans[idx].ReturnedAt = &returnedAt

	book, found := l.books[bookID]
	if found {
		book.CopiesAvailable = min(book.CopiesAvailable+1, book.TotalCopies)
		l.books[bookID] = book
	}

	return l.loans[idx], nil
}

// ListOpenLoans returns the borrower's open loans, most recent first.
func (l *Ledger) ListOpenLoans(ctx context.Context, borrowerID uuid.UUID) (ledger.Loans, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return nil, err
	}

	loans := make(ledger.Loans, 0)
	for _, loan := range l.loans {
		if loan.BorrowerID == borrowerID && loan.IsOpen() {
			loans = append(loans, loan)
		}
	}

	slices.SortFunc(loans, func(a, b ledger.Loan) int {
		if c := b.IssuedAt.Compare(a.IssuedAt); c != 0 {
			return c
		}

		return strings.Compare(b.ID.String(), a.ID.String())
	})

	return loans, nil
}

// ListBooks returns all books ordered by title, then id.
func (l *Ledger) ListBooks(ctx context.Context) ([]ledger.Book, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return nil, err
	}

	books := make([]ledger.Book, 0, len(l.books))
	for _, book := range l.books {
		books = append(books, book)
	}

	slices.SortFunc(books, func(a, b ledger.Book) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return books, nil
}

func (l *Ledger) GetBook(ctx context.Context, bookID uuid.UUID) (ledger.Book, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return ledger.Book{}, err
	}

	book, found := l.books[bookID]
	if !found {
		return ledger.Book{}, ledger.ErrNotFound
	}

	return book, nil
}

func (l *Ledger) CreateBook(ctx context.Context, draft ledger.BookDraft) (ledger.Book, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return ledger.Book{}, err
	}

	bookID, err := uuid.NewV7()
	if err != nil {
		return ledger.Book{}, errors.Join(ledger.ErrGeneratingIDFailed, err)
	}

	book, err := ledger.NewBook(bookID, draft)
	if err != nil {
		return ledger.Book{}, err
	}

	l.books[bookID] = book

	return book, nil
}

func (l *Ledger) UpdateBook(ctx context.Context, bookID uuid.UUID, draft ledger.BookDraft) (ledger.Book, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return ledger.Book{}, err
	}

	if err := draft.Validate(); err != nil {
		return ledger.Book{}, err
	}

	book, found := l.books[bookID]
	if !found {
		return ledger.Book{}, ledger.ErrNotFound
	}

	onLoan := l.countOpenLoans(bookID)
	if draft.TotalCopies < onLoan {
		return ledger.Book{}, ledger.ErrTotalCopiesBelowOnLoan
	}

	book.Title = draft.Title
	book.Author = draft.Author
	book.PublishedYear = draft.PublishedYear
	book.TotalCopies = draft.TotalCopies
	book.CopiesAvailable = draft.TotalCopies - onLoan
	l.books[bookID] = book

	return book, nil
}

func (l *Ledger) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return err
	}

	if _, found := l.books[bookID]; !found {
		return ledger.ErrNotFound
	}

	if l.countOpenLoans(bookID) > 0 {
		return ledger.ErrBookInUse
	}

	delete(l.books, bookID)

	return nil
}

func (l *Ledger) Stats(ctx context.Context) (ledger.CatalogStats, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return ledger.CatalogStats{}, err
	}

	stats := ledger.CatalogStats{Books: len(l.books)}
	for _, book := range l.books {
		stats.TotalCopies += book.TotalCopies
		stats.CopiesAvailable += book.CopiesAvailable
	}

	for _, loan := range l.loans {
		if loan.IsOpen() {
			stats.OpenLoans++
		}
	}

	return stats, nil
}

// VerifyInvariants checks every book against its open loans.
func (l *Ledger) VerifyInvariants(ctx context.Context) ([]ledger.InvariantViolation, error) {
	err := l.begin(ctx)
	defer l.mu.Unlock()

	if err != nil {
		return nil, err
	}

	var violations []ledger.InvariantViolation
	for _, book := range l.books {
		onLoan := l.countOpenLoans(book.ID)
		if book.CopiesAvailable < 0 || book.CopiesAvailable > book.TotalCopies || book.CopiesAvailable+onLoan != book.TotalCopies {
			violations = append(violations, ledger.InvariantViolation{
				BookID:          book.ID.String(),
				TotalCopies:     book.TotalCopies,
				CopiesAvailable: book.CopiesAvailable,
				OpenLoans:       onLoan,
				Reason:          "copies available does not match total copies minus open loans",
			})
		}
	}

	if len(violations) > 0 {
		return violations, ledger.ErrInvariantViolated
	}

	return nil, nil
}

// ForceCopiesAvailable overwrites the stored copies available of a book, bypassing every rule.
func (l *Ledger) ForceCopiesAvailable(bookID uuid.UUID, copiesAvailable int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	book := l.books[bookID]
	book.CopiesAvailable = copiesAvailable
	l.books[bookID] = book
}

func (l *Ledger) openLoanIndex(bookID, borrowerID uuid.UUID) int {
	return slices.IndexFunc(l.loans, func(loan ledger.Loan) bool {
		return loan.BookID == bookID && loan.BorrowerID == borrowerID && loan.IsOpen()
	})
}

func (l *Ledger) countOpenLoans(bookID uuid.UUID) int {
	count := 0
	for _, loan := range l.loans {
		if loan.BookID == bookID && loan.IsOpen() {
			count++
		}
	}

	return count
}
