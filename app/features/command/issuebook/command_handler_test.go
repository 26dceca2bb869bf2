package issuebook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/issuebook"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_IssueBook_IssuesToTheCaller(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := issuebook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 1)
	borrowerID := GivenUniqueID(t)
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower})

	// act
	loan, result, err := handler.Handle(ctx, issuebook.BuildCommand(book.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, book.ID, loan.BookID)
	assert.Equal(t, borrowerID, loan.BorrowerID)
	assert.True(t, loan.IsOpen())
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, ledger.ErrorTypeNone, result.LastErrorType)
}

func Test_IssueBook_RetriesConcurrencyConflicts(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := issuebook.NewCommandHandler(l, issuebook.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 1)
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	l.FailNext(ledger.ErrConcurrencyConflict, ledger.ErrConcurrencyConflict)

	// act
	_, result, err := handler.Handle(ctx, issuebook.BuildCommand(book.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.RetryAttempts)
	assert.Greater(t, result.TotalRetryDelay, time.Duration(0))
}

func Test_IssueBook_ReturnsRejectionsWithoutRetry(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := issuebook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 0)
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	callsBefore := l.Calls()

	// act
	_, result, err := handler.Handle(ctx, issuebook.BuildCommand(book.ID))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNoCopiesAvailable)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, callsBefore+1, l.Calls())
}

func Test_IssueBook_RequiresACaller(t *testing.T) {
	// setup
	l := memoryledger.New()
	handler := issuebook.NewCommandHandler(l)

	// act
	_, _, err := handler.Handle(context.Background(), issuebook.BuildCommand(GivenUniqueID(t)))

	// assert
	assert.ErrorIs(t, err, shell.ErrUnauthenticated)
	assert.Equal(t, 0, l.Calls())
}
