package editbook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/editbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_EditBook_RecomputesCopiesAvailable(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := editbook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleAdmin})
	command, err := editbook.BuildCommand(book.ID, "New Title", book.Author, book.PublishedYear, 5)
	require.NoError(t, err)

	// act
	updated, _, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, 5, updated.TotalCopies)
	assert.Equal(t, 4, updated.CopiesAvailable)
}

func Test_EditBook_TotalBelowCopiesOnLoan_IsRejected(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := editbook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleAdmin})
	command, err := editbook.BuildCommand(book.ID, book.Title, book.Author, book.PublishedYear, 1)
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, command)

	// assert
	assert.ErrorIs(t, err, ledger.ErrTotalCopiesBelowOnLoan)

	stored, getErr := l.GetBook(ctx, book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 2, stored.TotalCopies)
	assert.Equal(t, 0, stored.CopiesAvailable)
}

func Test_EditBook_UnknownBook_IsNotFound(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := editbook.NewCommandHandler(l)

	// arrange
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleAdmin})
	command, err := editbook.BuildCommand(GivenUniqueID(t), "Title", "Author", 2020, 1)
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, command)

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func Test_EditBook_BorrowerIsNotAllowed(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := editbook.NewCommandHandler(l)

	// arrange
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	command, err := editbook.BuildCommand(GivenUniqueID(t), "Title", "Author", 2020, 1)
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, command)

	// assert
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
	assert.Equal(t, 0, l.Calls())
}
