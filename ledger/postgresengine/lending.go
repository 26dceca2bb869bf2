package postgresengine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

// Issue lends one copy of a book to a borrower.
//
// The checks run in this order under the book's row lock:
// the book must exist (ledger.ErrNotFound), a copy must be available (ledger.ErrNoCopiesAvailable),
// and the borrower must not hold an open loan for it yet (ledger.ErrAlreadyBorrowed).
// On success copies available is decremented and the new open loan is returned, both in one transaction.
func (l *Ledger) Issue(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	observer, ctx := l.observe(ctx, operationIssue, map[string]string{
		spanAttrBookID:     bookID.String(),
		spanAttrBorrowerID: borrowerID.String(),
	})

	loan, err := l.issue(ctx, bookID, borrowerID)

	observer.finish(err,
		logAttrBookID, bookID.String(),
		logAttrBorrowerID, borrowerID.String(),
		logAttrLoanID, loan.ID.String())

	if err != nil {
		return ledger.Loan{}, err
	}

	return loan, nil
}

func (l *Ledger) issue(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	var loan ledger.Loan

	err := l.inTransaction(ctx, func(txCtx context.Context, tx adapters.DBTx) error {
		book, found, err := l.selectBook(txCtx, tx, bookID, true)
		if err != nil {
			return err
		}

		if !found {
			return ledger.ErrNotFound
		}

		if !book.HasAvailableCopy() {
			return ledger.ErrNoCopiesAvailable
		}

		hasOpenLoan, err := l.hasOpenLoan(txCtx, tx, bookID, borrowerID)
		if err != nil {
			return err
		}

		if hasOpenLoan {
			return ledger.ErrAlreadyBorrowed
		}

		if err = l.decrementCopies(txCtx, tx, bookID); err != nil {
			return err
		}

		loanID, idErr := uuid.NewV7()
		if idErr != nil {
			return errors.Join(ledger.ErrGeneratingIDFailed, idErr)
		}

		loan = ledger.Loan{
			ID:         loanID,
			BookID:     bookID,
			BorrowerID: borrowerID,
			IssuedAt:   l.now(),
			BookTitle:  book.Title,
			BookAuthor: book.Author,
		}

		return l.insertLoan(txCtx, tx, loan)
	})

	return loan, err
}

func (l *Ledger) hasOpenLoan(ctx context.Context, tx adapters.DBTx, bookID, borrowerID uuid.UUID) (bool, error) {
	sqlQuery, args, buildErr := l.buildOpenLoanExistsQuery(bookID, borrowerID)
	if buildErr != nil {
		return false, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, tx, logActionCheckOpenLoan, sqlQuery, args)
	if queryErr != nil {
		return false, queryErr
	}
	defer l.closeRows(ctx, rows)

	exists := rows.Next()

	if rowsErr := rows.Err(); rowsErr != nil {
		return false, l.iterationFailed(ctx, rowsErr)
	}

	return exists, nil
}

func (l *Ledger) decrementCopies(ctx context.Context, tx adapters.DBTx, bookID uuid.UUID) error {
	sqlQuery, args, buildErr := l.buildDecrementCopiesQuery(bookID)
	if buildErr != nil {
		return l.buildFailed(ctx, buildErr)
	}

	rowsAffected, err := l.exec(ctx, tx, logActionDecrement, sqlQuery, args, nil)
	if err != nil {
		return err
	}

	// The row is locked, so the guard can only miss if the lock was not taken.
	if rowsAffected != 1 {
		return ledger.ErrNoCopiesAvailable
	}

	return nil
}

func (l *Ledger) insertLoan(ctx context.Context, tx adapters.DBTx, loan ledger.Loan) error {
	sqlQuery, args, buildErr := l.buildInsertLoanQuery(loan)
	if buildErr != nil {
		return l.buildFailed(ctx, buildErr)
	}

	_, err := l.exec(ctx, tx, logActionInsertLoan, sqlQuery, args, ledger.ErrAlreadyBorrowed)

	return err
}

// ReturnLoan closes the borrower's open loan of a book and puts the copy back.
//
// Without an open loan it fails with ledger.ErrNoOpenLoan and changes nothing.
// The increment never lifts copies available above total copies; a return that
// would do so is clamped and logged at warn level.
func (l *Ledger) ReturnLoan(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	observer, ctx := l.observe(ctx, operationReturn, map[string]string{
		spanAttrBookID:     bookID.String(),
		spanAttrBorrowerID: borrowerID.String(),
	})

	loan, err := l.returnLoan(ctx, bookID, borrowerID)

	observer.finish(err,
		logAttrBookID, bookID.String(),
		logAttrBorrowerID, borrowerID.String(),
		logAttrLoanID, loan.ID.String())

	if err != nil {
		return ledger.Loan{}, err
	}

	return loan, nil
}

func (l *Ledger) returnLoan(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	var loan ledger.Loan

	err := l.inTransaction(ctx, func(txCtx context.Context, tx adapters.DBTx) error {
		book, found, err := l.selectBook(txCtx, tx, bookID, true)
		if err != nil {
			return err
		}

		// A book with open loans cannot be deleted, so a missing book has none.
		if !found {
			return ledger.ErrNoOpenLoan
		}

		loan, err = l.closeLoan(txCtx, tx, bookID, borrowerID)
		if err != nil {
			return err
		}

		loan.BookTitle = book.Title
		loan.BookAuthor = book.Author

		if book.CopiesAvailable >= book.TotalCopies {
			l.recordReturnClamped(txCtx, book, borrowerID.String())
		}

		return l.incrementCopies(txCtx, tx, bookID)
	})

	return loan, err
}

// closeLoan sets the return timestamp on the open loan, ledger.ErrNoOpenLoan if there is none.
func (l *Ledger) closeLoan(ctx context.Context, tx adapters.DBTx, bookID, borrowerID uuid.UUID) (ledger.Loan, error) {
	returnedAt := l.now()

	sqlQuery, args, buildErr := l.buildCloseLoanQuery(bookID, borrowerID, returnedAt)
	if buildErr != nil {
		return ledger.Loan{}, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, tx, logActionCloseLoan, sqlQuery, args)
	if queryErr != nil {
		return ledger.Loan{}, queryErr
	}
	defer l.closeRows(ctx, rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return ledger.Loan{}, l.iterationFailed(ctx, rowsErr)
		}

		return ledger.Loan{}, ledger.ErrNoOpenLoan
	}

	loan := ledger.Loan{
		BookID:     bookID,
		BorrowerID: borrowerID,
		ReturnedAt: &returnedAt,
	}

	if scanErr := rows.Scan(&loan.ID, &loan.IssuedAt); scanErr != nil {
		return ledger.Loan{}, l.scanFailed(ctx, scanErr)
	}

	loan.IssuedAt = loan.IssuedAt.UTC()

	return loan, nil
}

func (l *Ledger) incrementCopies(ctx context.Context, tx adapters.DBTx, bookID uuid.UUID) error {
	sqlQuery, args, buildErr := l.buildIncrementCopiesQuery(bookID)
	if buildErr != nil {
		return l.buildFailed(ctx, buildErr)
	}

	_, err := l.exec(ctx, tx, logActionIncrement, sqlQuery, args, nil)

	return err
}

// ListOpenLoans returns the borrower's open loans, most recently issued first,
// with the title and author of each book.
func (l *Ledger) ListOpenLoans(ctx context.Context, borrowerID uuid.UUID) (ledger.Loans, error) {
	observer, ctx := l.observe(ctx, operationListOpenLoans, map[string]string{
		spanAttrBorrowerID: borrowerID.String(),
	})

	loans, err := l.listOpenLoans(ctx, borrowerID)
	if err == nil {
		observer.recordRows(len(loans))
	}

	observer.finish(err, logAttrBorrowerID, borrowerID.String(), logAttrCount, len(loans))

	return loans, err
}

func (l *Ledger) listOpenLoans(ctx context.Context, borrowerID uuid.UUID) (ledger.Loans, error) {
	sqlQuery, args, buildErr := l.buildOpenLoansQuery(borrowerID)
	if buildErr != nil {
		return nil, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, l.db, logActionOpenLoans, sqlQuery, args)
	if queryErr != nil {
		return nil, queryErr
	}
	defer l.closeRows(ctx, rows)

	loans := make(ledger.Loans, 0)

	for rows.Next() {
		var loan ledger.Loan
		var returnedAt sql.NullTime

		scanErr := rows.Scan(
			&loan.ID,
			&loan.BookID,
			&loan.BorrowerID,
			&loan.IssuedAt,
			&returnedAt,
			&loan.BookTitle,
			&loan.BookAuthor,
		)
		if scanErr != nil {
			return nil, l.scanFailed(ctx, scanErr)
		}

		loan.IssuedAt = loan.IssuedAt.UTC()
		if returnedAt.Valid {
			t := returnedAt.Time.UTC()
			loan.ReturnedAt = &t
		}

		loans = append(loans, loan)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, l.iterationFailed(ctx, rowsErr)
	}

	return loans, nil
}
