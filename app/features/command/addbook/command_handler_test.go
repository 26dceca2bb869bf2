package addbook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/addbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_AddBook_CreatesBookWithAllCopiesAvailable(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := addbook.NewCommandHandler(l)

	// arrange
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleAdmin})
	command, err := addbook.BuildCommand("  The Go Programming Language ", "Donovan, Kernighan", 2015, 3)
	require.NoError(t, err)

	// act
	book, _, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", book.Title)
	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.CopiesAvailable)

	stored, err := l.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book, stored)
}

func Test_AddBook_BorrowerIsNotAllowed(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := addbook.NewCommandHandler(l)

	// arrange
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	command, err := addbook.BuildCommand("Title", "Author", 2020, 1)
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, command)

	// assert
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
	assert.Equal(t, 0, l.Calls())
}

func Test_BuildCommand_RejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name        string
		title       string
		author      string
		year        int
		totalCopies int
		expectedErr error
	}{
		{name: "empty title", title: " ", author: "Author", year: 2020, totalCopies: 1, expectedErr: ledger.ErrEmptyTitle},
		{name: "empty author", title: "Title", author: "", year: 2020, totalCopies: 1, expectedErr: ledger.ErrEmptyAuthor},
		{name: "negative copies", title: "Title", author: "Author", year: 2020, totalCopies: -1, expectedErr: ledger.ErrNegativeTotalCopies},
		{name: "year out of range", title: "Title", author: "Author", year: 10000, totalCopies: 1, expectedErr: ledger.ErrInvalidPublishedYear},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := addbook.BuildCommand(tc.title, tc.author, tc.year, tc.totalCopies)

			// assert
			assert.ErrorIs(t, err, ledger.ErrInvalidBook)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
