package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/catalog"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_Catalog_ListsBooksByTitle_AndMarksTheCallersLoans(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := catalog.NewQueryHandler(l)

	// arrange
	borrowerID := GivenUniqueID(t)
	zebra, err := l.CreateBook(ctx, FixtureBookDraftWithTitle(t, "Zebra Tales", 1))
	require.NoError(t, err)
	apple, err := l.CreateBook(ctx, FixtureBookDraftWithTitle(t, "Apple Orchards", 2))
	require.NoError(t, err)
	GivenBookWasIssued(t, ctx, l, zebra.ID, borrowerID)
	GivenBookWasIssued(t, ctx, l, apple.ID, GivenUniqueID(t))

	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower})

	// act
	result, err := handler.Handle(ctx, catalog.BuildQuery())

	// assert
	require.NoError(t, err)
	require.Len(t, result.Books, 2)
	assert.Equal(t, "Apple Orchards", result.Books[0].Title)
	assert.Equal(t, "Zebra Tales", result.Books[1].Title)
	assert.True(t, result.IsIssued(zebra.ID))
	assert.False(t, result.IsIssued(apple.ID))
}

func Test_Catalog_PropagatesLedgerFailures(t *testing.T) {
	// setup
	ctx := shell.WithCaller(context.Background(), shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	l := memoryledger.New()
	handler := catalog.NewQueryHandler(l)

	// arrange
	l.FailNext(ledger.ErrQueryingFailed)

	// act
	_, err := handler.Handle(ctx, catalog.BuildQuery())

	// assert
	assert.ErrorIs(t, err, ledger.ErrQueryingFailed)
}
