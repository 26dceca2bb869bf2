package dashboard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/dashboard"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_Dashboard_AggregatesTheCatalog(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := dashboard.NewQueryHandler(l)

	// arrange
	first := GivenBookWasCreated(t, ctx, l, 3)
	GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, first.ID, GivenUniqueID(t))
	GivenBookWasIssued(t, ctx, l, first.ID, GivenUniqueID(t))
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleAdmin})

	// act
	result, err := handler.Handle(ctx, dashboard.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.CatalogStats{Books: 2, TotalCopies: 5, CopiesAvailable: 3, OpenLoans: 2}, result.Stats)
	assert.Len(t, result.Books, 2)
}

func Test_Dashboard_BorrowerIsNotAllowed(t *testing.T) {
	// setup
	l := memoryledger.New()
	handler := dashboard.NewQueryHandler(l)
	ctx := shell.WithCaller(context.Background(), shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})

	// act
	_, err := handler.Handle(ctx, dashboard.BuildQuery())

	// assert
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
	assert.Equal(t, 0, l.Calls())
}
