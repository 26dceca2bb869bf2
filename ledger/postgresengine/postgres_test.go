package postgresengine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper"                 //nolint:revive
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper/postgreswrapper" //nolint:revive
)

func Test_Issue_And_Return_FollowTheLendingScenario(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 2)
	userA, userB, userC := GivenUniqueID(t), GivenUniqueID(t), GivenUniqueID(t)

	// act + assert
	_, err := l.Issue(ctx, book.ID, userA)
	require.NoError(t, err)
	assertCopiesAvailable(t, ctx, l, book.ID, 1)

	_, err = l.Issue(ctx, book.ID, userB)
	require.NoError(t, err)
	assertCopiesAvailable(t, ctx, l, book.ID, 0)

	_, err = l.Issue(ctx, book.ID, userC)
	assert.ErrorIs(t, err, ledger.ErrNoCopiesAvailable)
	assertCopiesAvailable(t, ctx, l, book.ID, 0)

	_, err = l.ReturnLoan(ctx, book.ID, userA)
	require.NoError(t, err)
	assertCopiesAvailable(t, ctx, l, book.ID, 1)

	_, err = l.Issue(ctx, book.ID, userC)
	require.NoError(t, err)
	assertCopiesAvailable(t, ctx, l, book.ID, 0)

	_, err = l.VerifyInvariants(ctx)
	assert.NoError(t, err)
}

func Test_Issue_ReturnsTheOpenLoan(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithClock(FakeClock(issuedAt, time.Second)))
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 1)
	borrowerID := GivenUniqueID(t)

	// act
	loan, err := l.Issue(ctx, book.ID, borrowerID)

	// assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, loan.ID)
	assert.Equal(t, book.ID, loan.BookID)
	assert.Equal(t, borrowerID, loan.BorrowerID)
	assert.Equal(t, issuedAt, loan.IssuedAt)
	assert.True(t, loan.IsOpen())
	assert.Equal(t, book.Title, loan.BookTitle)
}

func Test_Issue_ShouldFail_WhenTheBookDoesNotExist(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)

	// act
	_, err := l.Issue(ctx, GivenUniqueID(t), GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func Test_Issue_ShouldFail_WhenTheBorrowerAlreadyHoldsTheBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 3)
	borrowerID := GivenUniqueID(t)
	GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)

	// act
	_, err := l.Issue(ctx, book.ID, borrowerID)

	// assert
	assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed)
	assertCopiesAvailable(t, ctx, l, book.ID, 2)
}

func Test_Issue_ReportsNoCopiesAvailable_BeforeAlreadyBorrowed(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 1)
	borrowerID := GivenUniqueID(t)
	GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)

	// act
	_, err := l.Issue(ctx, book.ID, borrowerID)

	// assert
	assert.ErrorIs(t, err, ledger.ErrNoCopiesAvailable)
}

func Test_ReturnLoan_ShouldFail_AndChangeNothing_WithoutAnOpenLoan(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))

	// act
	_, err := l.ReturnLoan(ctx, book.ID, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNoOpenLoan)
	assertCopiesAvailable(t, ctx, l, book.ID, 1)
}

func Test_ReturnLoan_ShouldFail_ForAnUnknownBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)

	// act
	_, err := l.ReturnLoan(ctx, GivenUniqueID(t), GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNoOpenLoan)
}

func Test_ReturnLoan_ShouldFail_WhenTheLoanWasAlreadyReturned(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 1)
	borrowerID := GivenUniqueID(t)
	GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)
	_, err := l.ReturnLoan(ctx, book.ID, borrowerID)
	require.NoError(t, err)

	// act
	_, err = l.ReturnLoan(ctx, book.ID, borrowerID)

	// assert
	assert.ErrorIs(t, err, ledger.ErrNoOpenLoan)
	assertCopiesAvailable(t, ctx, l, book.ID, 1)
}

func Test_IssueThenReturn_RestoresCopiesAvailable(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithClock(FakeClock(start, time.Minute)))
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 4)
	borrowerID := GivenUniqueID(t)
	issued := GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)

	// act
	returned, err := l.ReturnLoan(ctx, book.ID, borrowerID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, issued.ID, returned.ID)
	assert.Equal(t, issued.IssuedAt, returned.IssuedAt)
	require.NotNil(t, returned.ReturnedAt)
	assert.True(t, returned.ReturnedAt.After(returned.IssuedAt))
	assertCopiesAvailable(t, ctx, l, book.ID, 4)

	openLoans, err := l.ListOpenLoans(ctx, borrowerID)
	require.NoError(t, err)
	assert.Empty(t, openLoans)
}

func Test_ReturnLoan_ClampsAtTotalCopies(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 2)
	borrowerID := GivenUniqueID(t)
	GivenBookWasIssued(t, ctx, l, book.ID, borrowerID)
	ForceCopiesAvailable(t, wrapper, book.ID.String(), 2)

	// act
	_, err := l.ReturnLoan(ctx, book.ID, borrowerID)

	// assert
	require.NoError(t, err)
	assertCopiesAvailable(t, ctx, l, book.ID, 2)
}

func Test_ListOpenLoans_ReturnsTheBorrowersOpenLoans_MostRecentFirst(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithClock(FakeClock(start, time.Hour)))
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	borrowerID := GivenUniqueID(t)
	first := GivenBookWasCreated(t, ctx, l, 1)
	second := GivenBookWasCreated(t, ctx, l, 1)
	third := GivenBookWasCreated(t, ctx, l, 1)
	GivenBookWasIssued(t, ctx, l, first.ID, borrowerID)
	GivenBookWasIssued(t, ctx, l, second.ID, borrowerID)
	GivenBookWasIssued(t, ctx, l, third.ID, borrowerID)
	GivenBookWasIssued(t, ctx, l, GivenBookWasCreated(t, ctx, l, 1).ID, GivenUniqueID(t))
	_, err := l.ReturnLoan(ctx, second.ID, borrowerID)
	require.NoError(t, err)

	// act
	loans, err := l.ListOpenLoans(ctx, borrowerID)

	// assert
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, []uuid.UUID{third.ID, first.ID}, loans.BookIDs())
	assert.Equal(t, first.Title, loans[1].BookTitle)
	assert.Equal(t, first.Author, loans[1].BookAuthor)
	assert.True(t, loans[0].IsOpen())
}

func Test_Issue_OfTheLastCopy_SucceedsExactlyOnce_UnderConcurrency(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 1)
	const contenders = 10

	var wg sync.WaitGroup
	errs := make(chan error, contenders)
	startSignal := make(chan struct{})

	// act
	for range contenders {
		wg.Add(1)
		go func(borrowerID uuid.UUID) {
			defer wg.Done()
			<-startSignal
			_, err := l.Issue(ctx, book.ID, borrowerID)
			errs <- err
		}(GivenUniqueID(t))
	}

	close(startSignal)
	wg.Wait()
	close(errs)

	// assert
	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}

		assert.ErrorIs(t, err, ledger.ErrNoCopiesAvailable)
	}

	assert.Equal(t, 1, successes)
	assertCopiesAvailable(t, ctx, l, book.ID, 0)

	_, err := l.VerifyInvariants(ctx)
	assert.NoError(t, err)
}

func Test_Issue_ToTheSameBorrower_SucceedsExactlyOnce_UnderConcurrency(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 5)
	borrowerID := GivenUniqueID(t)
	const contenders = 8

	var wg sync.WaitGroup
	errs := make(chan error, contenders)

	// act
	for range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Issue(ctx, book.ID, borrowerID)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	// assert
	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}

		assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed)
	}

	assert.Equal(t, 1, successes)
	assertCopiesAvailable(t, ctx, l, book.ID, 4)
}

func Test_ListBooks_WithEventualConsistency_ReadsFromThePrimary_WithoutReplica(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 1)

	// act
	books, err := l.ListBooks(ledger.WithEventualConsistency(ctx))

	// assert
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book, books[0])
}

func Test_Issue_ShouldFail_WhenTheContextIsCanceled(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, context.Background(), l, 1)
	cancel()

	// act
	_, err := l.Issue(ctx, book.ID, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assertCopiesAvailable(t, context.Background(), l, book.ID, 1)
}

func assertCopiesAvailable(t *testing.T, ctx context.Context, l *postgresengine.Ledger, bookID uuid.UUID, expected int) {
	t.Helper()

	book, err := l.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, expected, book.CopiesAvailable)
	assert.GreaterOrEqual(t, book.CopiesAvailable, 0)
	assert.LessOrEqual(t, book.CopiesAvailable, book.TotalCopies)
}
