package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

func Test_BuildBookDraft_TrimsInput(t *testing.T) {
	draft, err := ledger.BuildBookDraft("  Learning Domain-Driven Design ", " Vlad Khononov", 2021, 3)

	require.NoError(t, err)
	assert.Equal(t, "Learning Domain-Driven Design", draft.Title)
	assert.Equal(t, "Vlad Khononov", draft.Author)
	assert.Equal(t, 2021, draft.PublishedYear)
	assert.Equal(t, 3, draft.TotalCopies)
}

func Test_BuildBookDraft_AllowsZeroCopies(t *testing.T) {
	_, err := ledger.BuildBookDraft("Refactoring", "Martin Fowler", 1999, 0)

	assert.NoError(t, err)
}

func Test_BuildBookDraft_Invalid(t *testing.T) {
	testCases := []struct {
		name          string
		title         string
		author        string
		publishedYear int
		totalCopies   int
		expectedErr   error
	}{
		{"empty title", "   ", "Kent Beck", 2002, 1, ledger.ErrEmptyTitle},
		{"empty author", "TDD by Example", "", 2002, 1, ledger.ErrEmptyAuthor},
		{"negative year", "TDD by Example", "Kent Beck", -1, 1, ledger.ErrInvalidPublishedYear},
		{"year too large", "TDD by Example", "Kent Beck", 10000, 1, ledger.ErrInvalidPublishedYear},
		{"negative copies", "TDD by Example", "Kent Beck", 2002, -2, ledger.ErrNegativeTotalCopies},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.BuildBookDraft(tc.title, tc.author, tc.publishedYear, tc.totalCopies)

			assert.ErrorIs(t, err, ledger.ErrInvalidBook)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_BookDraft_Validate_ReportsAllViolations(t *testing.T) {
	err := ledger.BookDraft{TotalCopies: -1}.Validate()

	assert.ErrorIs(t, err, ledger.ErrEmptyTitle)
	assert.ErrorIs(t, err, ledger.ErrEmptyAuthor)
	assert.ErrorIs(t, err, ledger.ErrNegativeTotalCopies)
}

func Test_NewBook_StartsWithAllCopiesAvailable(t *testing.T) {
	draft, err := ledger.BuildBookDraft("Release It!", "Michael T. Nygard", 2018, 4)
	require.NoError(t, err)
	id := uuid.New()

	book, err := ledger.NewBook(id, draft)

	require.NoError(t, err)
	assert.Equal(t, id, book.ID)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.CopiesAvailable)
	assert.Equal(t, 0, book.CopiesOnLoan())
	assert.True(t, book.HasAvailableCopy())
}

func Test_NewBook_RejectsNilID(t *testing.T) {
	draft, err := ledger.BuildBookDraft("Release It!", "Michael T. Nygard", 2018, 4)
	require.NoError(t, err)

	_, err = ledger.NewBook(uuid.Nil, draft)

	assert.ErrorIs(t, err, ledger.ErrInvalidBook)
	assert.ErrorIs(t, err, ledger.ErrNilID)
}

func Test_Book_CopiesOnLoan(t *testing.T) {
	book := ledger.Book{TotalCopies: 5, CopiesAvailable: 2}

	assert.Equal(t, 3, book.CopiesOnLoan())
	assert.True(t, book.HasAvailableCopy())
	assert.False(t, ledger.Book{TotalCopies: 1}.HasAvailableCopy())
}
