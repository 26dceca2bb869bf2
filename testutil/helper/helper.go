package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// BookCreator is the part of a ledger the fixtures need to arrange books.
type BookCreator interface {
	CreateBook(ctx context.Context, draft ledger.BookDraft) (ledger.Book, error)
}

// Issuer is the part of a ledger the fixtures need to arrange loans.
type Issuer interface {
	Issue(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error)
}

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

func FixtureBookDraft(t testing.TB, totalCopies int) ledger.BookDraft {
	draft, err := ledger.BuildBookDraft(
		"Learning Domain-Driven Design",
		"Vlad Khononov",
		2021,
		totalCopies,
	)
	assert.NoError(t, err, "error in arranging test data")

	return draft
}

func FixtureBookDraftWithTitle(t testing.TB, title string, totalCopies int) ledger.BookDraft {
	draft, err := ledger.BuildBookDraft(title, "Some Author", 2020, totalCopies)
	assert.NoError(t, err, "error in arranging test data")

	return draft
}

func GivenBookWasCreated(t testing.TB, ctx context.Context, l BookCreator, totalCopies int) ledger.Book {
	book, err := l.CreateBook(ctx, FixtureBookDraft(t, totalCopies))
	assert.NoError(t, err, "error in arranging test data")

	return book
}

func GivenBookWasIssued(t testing.TB, ctx context.Context, l Issuer, bookID, borrowerID uuid.UUID) ledger.Loan {
	loan, err := l.Issue(ctx, bookID, borrowerID)
	assert.NoError(t, err, "error in arranging test data")

	return loan
}

// FakeClock returns a clock that starts at start and advances by step on every call.
func FakeClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)

	return func() time.Time {
		current = current.Add(step)
		return current
	}
}
