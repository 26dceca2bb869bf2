package openloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/openloans"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_OpenLoans_ReturnsOnlyTheCallersOpenLoans_MostRecentFirst(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New().WithClock(FakeClock(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), time.Minute))
	handler := openloans.NewQueryHandler(l)

	// arrange
	borrowerID := GivenUniqueID(t)
	first := GivenBookWasCreated(t, ctx, l, 1)
	second := GivenBookWasCreated(t, ctx, l, 1)
	third := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, first.ID, borrowerID)
	GivenBookWasIssued(t, ctx, l, second.ID, borrowerID)
	GivenBookWasIssued(t, ctx, l, third.ID, GivenUniqueID(t))
	_, err := l.ReturnLoan(ctx, first.ID, borrowerID)
	require.NoError(t, err)
	GivenBookWasIssued(t, ctx, l, third.ID, borrowerID)

	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower})

	// act
	loans, err := handler.Handle(ctx, openloans.BuildQuery())

	// assert
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, third.ID, loans[0].BookID)
	assert.Equal(t, second.ID, loans[1].BookID)

	for _, loan := range loans {
		assert.True(t, loan.IsOpen())
		assert.Equal(t, borrowerID, loan.BorrowerID)
	}
}

func Test_OpenLoans_RequiresACaller(t *testing.T) {
	// setup
	l := memoryledger.New()
	handler := openloans.NewQueryHandler(l)

	// act
	_, err := handler.Handle(context.Background(), openloans.BuildQuery())

	// assert
	assert.ErrorIs(t, err, shell.ErrUnauthenticated)
	assert.Equal(t, 0, l.Calls())
}
