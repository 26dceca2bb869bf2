package postgresengine

import (
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	dialectPostgres    = "postgres"
	colID              = "id"
	colTitle           = "title"
	colAuthor          = "author"
	colPublishedYear   = "published_year"
	colTotalCopies     = "total_copies"
	colCopiesAvailable = "copies_available"
	colBookID          = "book_id"
	colBorrowerID      = "borrower_id"
	colIssuedAt        = "issued_at"
	colReturnedAt      = "returned_at"
	aliasLoan          = "l"
	aliasBook          = "b"
	aliasOpenLoans     = "o"
	aliasOpenLoanCount = "open_loans"
	settingLockTimeout = "lock_timeout"
)

var dialect = goqu.Dialect(dialectPostgres)

// qualified returns an identifier for column col of the table aliased as alias.
func qualified(alias, col string) exp.IdentifierExpression {
	return goqu.T(alias).Col(col)
}

func bookColumns() []any {
	return []any{
		goqu.C(colID),
		goqu.C(colTitle),
		goqu.C(colAuthor),
		goqu.C(colPublishedYear),
		goqu.C(colTotalCopies),
		goqu.C(colCopiesAvailable),
	}
}

// buildSetLockTimeoutQuery scopes the lock timeout to the current transaction.
func (l *Ledger) buildSetLockTimeoutQuery() (sqlQueryString, []any, error) {
	value := fmt.Sprintf("%dms", l.lockTimeout.Milliseconds())

	return dialect.
		Select(goqu.Func("set_config", settingLockTimeout, value, true)).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildSelectBookQuery(bookID uuid.UUID, forUpdate bool) (sqlQueryString, []any, error) {
	ds := dialect.
		From(goqu.T(l.booksTableName)).
		Select(bookColumns()...).
		Where(goqu.C(colID).Eq(bookID))

	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}

	return ds.Prepared(true).ToSQL()
}

func (l *Ledger) buildSelectBooksQuery() (sqlQueryString, []any, error) {
	return dialect.
		From(goqu.T(l.booksTableName)).
		Select(bookColumns()...).
		Order(goqu.C(colTitle).Asc(), goqu.C(colID).Asc()).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildOpenLoanExistsQuery(bookID, borrowerID uuid.UUID) (sqlQueryString, []any, error) {
	return dialect.
		From(goqu.T(l.loansTableName)).
		Select(goqu.C(colID)).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colBorrowerID).Eq(borrowerID),
			goqu.C(colReturnedAt).IsNull(),
		).
		Limit(1).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildCountOpenLoansQuery(bookID uuid.UUID) (sqlQueryString, []any, error) {
	return dialect.
		From(goqu.T(l.loansTableName)).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colReturnedAt).IsNull(),
		).
		Prepared(true).
		ToSQL()
}

// buildDecrementCopiesQuery only matches while a copy is left, so it can never drive the count below zero.
func (l *Ledger) buildDecrementCopiesQuery(bookID uuid.UUID) (sqlQueryString, []any, error) {
	return dialect.
		Update(goqu.T(l.booksTableName)).
		Set(goqu.Record{colCopiesAvailable: goqu.L("? - 1", goqu.C(colCopiesAvailable))}).
		Where(
			goqu.C(colID).Eq(bookID),
			goqu.C(colCopiesAvailable).Gt(0),
		).
		Prepared(true).
		ToSQL()
}

// buildIncrementCopiesQuery caps the count at total copies.
func (l *Ledger) buildIncrementCopiesQuery(bookID uuid.UUID) (sqlQueryString, []any, error) {
	return dialect.
		Update(goqu.T(l.booksTableName)).
		Set(goqu.Record{colCopiesAvailable: goqu.Func(
			"LEAST",
			goqu.L("? + 1", goqu.C(colCopiesAvailable)),
			goqu.C(colTotalCopies),
		)}).
		Where(goqu.C(colID).Eq(bookID)).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildInsertLoanQuery(loan ledger.Loan) (sqlQueryString, []any, error) {
	return dialect.
		Insert(goqu.T(l.loansTableName)).
		Rows(goqu.Record{
			colID:         loan.ID,
			colBookID:     loan.BookID,
			colBorrowerID: loan.BorrowerID,
			colIssuedAt:   loan.IssuedAt,
		}).
		Prepared(true).
		ToSQL()
}

// buildCloseLoanQuery sets the return timestamp of the open loan and returns the closed row.
func (l *Ledger) buildCloseLoanQuery(bookID, borrowerID uuid.UUID, returnedAt time.Time) (sqlQueryString, []any, error) {
	return dialect.
		Update(goqu.T(l.loansTableName)).
		Set(goqu.Record{colReturnedAt: returnedAt}).
		Where(
			goqu.C(colBookID).Eq(bookID),
			goqu.C(colBorrowerID).Eq(borrowerID),
			goqu.C(colReturnedAt).IsNull(),
		).
		Returning(goqu.C(colID), goqu.C(colIssuedAt)).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildOpenLoansQuery(borrowerID uuid.UUID) (sqlQueryString, []any, error) {
	return dialect.
		From(goqu.T(l.loansTableName).As(aliasLoan)).
		InnerJoin(
			goqu.T(l.booksTableName).As(aliasBook),
			goqu.On(qualified(aliasBook, colID).Eq(qualified(aliasLoan, colBookID))),
		).
		Select(
			qualified(aliasLoan, colID),
			qualified(aliasLoan, colBookID),
			qualified(aliasLoan, colBorrowerID),
			qualified(aliasLoan, colIssuedAt),
			qualified(aliasLoan, colReturnedAt),
			qualified(aliasBook, colTitle),
			qualified(aliasBook, colAuthor),
		).
		Where(
			qualified(aliasLoan, colBorrowerID).Eq(borrowerID),
			qualified(aliasLoan, colReturnedAt).IsNull(),
		).
		Order(
			qualified(aliasLoan, colIssuedAt).Desc(),
			qualified(aliasLoan, colID).Desc(),
		).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildInsertBookQuery(book ledger.Book) (sqlQueryString, []any, error) {
	return dialect.
		Insert(goqu.T(l.booksTableName)).
		Rows(goqu.Record{
			colID:              book.ID,
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colPublishedYear:   book.PublishedYear,
			colTotalCopies:     book.TotalCopies,
			colCopiesAvailable: book.CopiesAvailable,
		}).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildUpdateBookQuery(book ledger.Book) (sqlQueryString, []any, error) {
	return dialect.
		Update(goqu.T(l.booksTableName)).
		Set(goqu.Record{
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colPublishedYear:   book.PublishedYear,
			colTotalCopies:     book.TotalCopies,
			colCopiesAvailable: book.CopiesAvailable,
		}).
		Where(goqu.C(colID).Eq(book.ID)).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildDeleteBookQuery(bookID uuid.UUID) (sqlQueryString, []any, error) {
	return dialect.
		Delete(goqu.T(l.booksTableName)).
		Where(goqu.C(colID).Eq(bookID)).
		Prepared(true).
		ToSQL()
}

func (l *Ledger) buildStatsQuery() (sqlQueryString, []any, error) {
	openLoans := dialect.
		From(goqu.T(l.loansTableName)).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colReturnedAt).IsNull())

	return dialect.
		From(goqu.T(l.booksTableName)).
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.COALESCE(goqu.SUM(goqu.C(colTotalCopies)), 0),
			goqu.COALESCE(goqu.SUM(goqu.C(colCopiesAvailable)), 0),
			openLoans,
		).
		Prepared(true).
		ToSQL()
}

// buildInvariantViolationsQuery selects every book whose availability is out of range
// or disagrees with the number of open loans recorded for it.
func (l *Ledger) buildInvariantViolationsQuery() (sqlQueryString, []any, error) {
	openLoansPerBook := dialect.
		From(goqu.T(l.loansTableName)).
		Select(goqu.C(colBookID), goqu.COUNT(goqu.Star()).As(aliasOpenLoanCount)).
		Where(goqu.C(colReturnedAt).IsNull()).
		GroupBy(goqu.C(colBookID)).
		As(aliasOpenLoans)

	openLoanCount := goqu.COALESCE(qualified(aliasOpenLoans, aliasOpenLoanCount), 0)

	return dialect.
		From(goqu.T(l.booksTableName).As(aliasBook)).
		LeftJoin(
			openLoansPerBook,
			goqu.On(qualified(aliasOpenLoans, colBookID).Eq(qualified(aliasBook, colID))),
		).
		Select(
			qualified(aliasBook, colID),
			qualified(aliasBook, colTotalCopies),
			qualified(aliasBook, colCopiesAvailable),
			openLoanCount,
		).
		Where(goqu.Or(
			qualified(aliasBook, colCopiesAvailable).Lt(0),
			qualified(aliasBook, colCopiesAvailable).Gt(qualified(aliasBook, colTotalCopies)),
			qualified(aliasBook, colCopiesAvailable).Neq(
				goqu.L("? - ?", qualified(aliasBook, colTotalCopies), openLoanCount),
			),
		)).
		Order(qualified(aliasBook, colID).Asc()).
		Prepared(true).
		ToSQL()
}
