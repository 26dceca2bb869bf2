package returnbook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/returnbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/lending-ledger-go/testutil/memoryledger"
)

func Test_ReturnBook_ClosesTheCallersLoan(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := returnbook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 1)
	borrowerID := GivenUniqueID(t)
	issued := GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower})

	// act
	loan, _, err := handler.Handle(ctx, returnbook.BuildCommand(book.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, issued.ID, loan.ID)
	assert.False(t, loan.IsOpen())

	stored, err := l.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CopiesAvailable)
}

func Test_ReturnBook_SecondReturn_IsRejected(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := returnbook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 1)
	borrowerID := GivenUniqueID(t)
	GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower})

	// act
	_, _, firstErr := handler.Handle(ctx, returnbook.BuildCommand(book.ID))
	_, result, secondErr := handler.Handle(ctx, returnbook.BuildCommand(book.ID))

	// assert
	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, ledger.ErrNoOpenLoan)
	assert.Equal(t, ledger.ErrorTypeNoOpenLoan, result.LastErrorType)
}

func Test_ReturnBook_AnotherBorrowersLoan_IsNotReturned(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := returnbook.NewCommandHandler(l)

	// arrange
	book := GivenBookWasCreated(t, ctx, l, 1)
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})

	// act
	_, _, err := handler.Handle(ctx, returnbook.BuildCommand(book.ID))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNoOpenLoan)

	stored, getErr := l.GetBook(ctx, book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 0, stored.CopiesAvailable)
}

func Test_ReturnBook_GivesUpAfterMaxAttempts(t *testing.T) {
	// setup
	ctx := context.Background()
	l := memoryledger.New()
	handler := returnbook.NewCommandHandler(l, returnbook.WithRetryOptions(
		shell.WithMaxAttempts(2),
		shell.WithBaseDelay(time.Millisecond),
	))

	// arrange
	ctx = shell.WithCaller(ctx, shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleBorrower})
	l.FailNext(ledger.ErrConcurrencyConflict, ledger.ErrConcurrencyConflict)

	// act
	_, result, err := handler.Handle(ctx, returnbook.BuildCommand(GivenUniqueID(t)))

	// assert
	assert.ErrorIs(t, err, ledger.ErrConcurrencyConflict)
	assert.Equal(t, 2, result.RetryAttempts)
	assert.True(t, result.RetriesExhausted)
}
