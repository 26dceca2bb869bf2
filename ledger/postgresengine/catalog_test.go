package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper"                 //nolint:revive
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper/postgreswrapper" //nolint:revive
)

func Test_CreateBook_StoresTheBook_WithAllCopiesAvailable(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)

	// act
	created, err := l.CreateBook(ctx, FixtureBookDraft(t, 3))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, created.CopiesAvailable)

	stored, err := l.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func Test_CreateBook_ShouldFail_WithAnInvalidDraft(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// act
	_, err := l.CreateBook(ctx, ledger.BookDraft{Title: "", Author: "Someone", TotalCopies: 1})

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidBook)
	assert.ErrorIs(t, err, ledger.ErrEmptyTitle)
}

func Test_GetBook_ShouldFail_ForAnUnknownBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// act
	_, err := l.GetBook(ctx, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func Test_ListBooks_ReturnsTheCatalog_OrderedByTitle(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	_, err := l.CreateBook(ctx, FixtureBookDraftWithTitle(t, "Refactoring", 1))
	require.NoError(t, err)
	_, err = l.CreateBook(ctx, FixtureBookDraftWithTitle(t, "Domain-Driven Design", 2))
	require.NoError(t, err)

	// act
	books, err := l.ListBooks(ctx)

	// assert
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Domain-Driven Design", books[0].Title)
	assert.Equal(t, "Refactoring", books[1].Title)
}

func Test_ListBooks_ReturnsAnEmptyCatalog(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)

	// act
	books, err := l.ListBooks(ctx)

	// assert
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func Test_UpdateBook_RecomputesCopiesAvailable_FromOpenLoans(t *testing.T) {
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
	draft := FixtureBookDraftWithTitle(t, "Second Edition", 5)

	// act
	updated, err := l.UpdateBook(ctx, book.ID, draft)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Second Edition", updated.Title)
	assert.Equal(t, 5, updated.TotalCopies)
	assert.Equal(t, 4, updated.CopiesAvailable)
	assertCopiesAvailable(t, ctx, l, book.ID, 4)
}

func Test_UpdateBook_ShouldFail_WhenTotalCopiesDropBelowTheCopiesOnLoan(t *testing.T) {
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
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))

	// act
	_, err := l.UpdateBook(ctx, book.ID, FixtureBookDraft(t, 1))

	// assert
	assert.ErrorIs(t, err, ledger.ErrTotalCopiesBelowOnLoan)
	stored, getErr := l.GetBook(ctx, book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 2, stored.TotalCopies)
}

func Test_UpdateBook_ShouldFail_ForAnUnknownBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// act
	_, err := l.UpdateBook(ctx, GivenUniqueID(t), FixtureBookDraft(t, 1))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func Test_DeleteBook_ShouldFail_WhileCopiesAreOnLoan(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	book := GivenBookWasCreated(t, ctx, l, 1)
	GivenBookWasIssued(t, ctx, l, book.ID, GivenUniqueID(t))

	// act
	err := l.DeleteBook(ctx, book.ID)

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookInUse)
	_, getErr := l.GetBook(ctx, book.ID)
	assert.NoError(t, getErr)
}

func Test_DeleteBook_RemovesTheBook_OnceAllCopiesAreBack(t *testing.T) {
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
	err = l.DeleteBook(ctx, book.ID)

	// assert
	require.NoError(t, err)
	_, getErr := l.GetBook(ctx, book.ID)
	assert.ErrorIs(t, getErr, ledger.ErrNotFound)
	assert.ErrorIs(t, l.DeleteBook(ctx, book.ID), ledger.ErrNotFound)
}

func Test_Stats_AggregatesTheCatalogAndTheOpenLoans(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	first := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasCreated(t, ctx, l, 3)
	GivenBookWasIssued(t, ctx, l, first.ID, GivenUniqueID(t))

	// act
	stats, err := l.Stats(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.CatalogStats{Books: 2, TotalCopies: 5, CopiesAvailable: 4, OpenLoans: 1}, stats)
}

func Test_Stats_OfAnEmptyLedger_AreZero(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)

	// act
	stats, err := l.Stats(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.CatalogStats{}, stats)
}

func Test_VerifyInvariants_ReportsBooksOutOfSyncWithTheirLoans(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	l := wrapper.GetLedger()

	// arrange
	CleanUp(t, wrapper)
	healthy := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, healthy.ID, GivenUniqueID(t))
	broken := GivenBookWasCreated(t, ctx, l, 2)
	GivenBookWasIssued(t, ctx, l, broken.ID, GivenUniqueID(t))
	ForceCopiesAvailable(t, wrapper, broken.ID.String(), 2)

	// act
	violations, err := l.VerifyInvariants(ctx)

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvariantViolated)
	require.Len(t, violations, 1)
	assert.Equal(t, broken.ID.String(), violations[0].BookID)
	assert.Equal(t, 1, violations[0].OpenLoans)
	assert.Equal(t, 2, violations[0].CopiesAvailable)
	assert.NotEmpty(t, violations[0].Reason)
}
