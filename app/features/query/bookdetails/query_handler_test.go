package bookdetails_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/bookdetails"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_BookDetails_ReturnsTheBook(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := bookdetails.NewQueryHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})

	// act
	details, err := handler.Handle(ctx, bookdetails.BuildQuery(book.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, book.ID, details.ID)
	assert.Equal(t, 1, details.CopiesAvailable)
	assert.Equal(t, 1, details.CopiesOnLoan())
}

func Test_BookDetails_UnknownBook_IsNotFound(t *testing.T) {
	// setup
	ctx := shell.WithCaller(context.Background(), shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	handler := bookdetails.NewQueryHandler(memoryledger.New())

	// act
	_, err := handler.Handle(ctx, bookdetails.BuildQuery(GivenUniqueID(t)))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
