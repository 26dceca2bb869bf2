package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

// SQLSTATE codes the engine reacts to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// sqlState extracts the SQLSTATE code from a pgx or lib/pq error.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// classifyDBError joins a driver error with the ledger sentinel it stands for.
// onUniqueViolation names the business error a unique violation means for the calling statement.
func classifyDBError(ctx context.Context, err error, onUniqueViolation error) error {
	switch sqlState(err) {
	case sqlStateUniqueViolation:
		if onUniqueViolation != nil {
			return errors.Join(onUniqueViolation, err)
		}

	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return errors.Join(ledger.ErrConcurrencyConflict, err)

	case sqlStateCheckViolation:
		return errors.Join(ledger.ErrInvariantViolated, err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return errors.Join(err, ctxErr)
	}

	return err
}

// inTransaction runs fn in a transaction bounded by the configured timeouts.
// Any error returned by fn rolls the transaction back.
func (l *Ledger) inTransaction(ctx context.Context, fn func(txCtx context.Context, tx adapters.DBTx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, l.txTimeout)
	defer cancel()

	tx, beginErr := l.db.BeginTx(txCtx)
	if beginErr != nil {
		l.logError(ctx, logMsgBeginTxFailed, beginErr)

		return classifyDBError(txCtx, errors.Join(ledger.ErrTransactionFailed, beginErr), nil)
	}

	if err := l.setLockTimeout(txCtx, tx); err != nil {
		l.rollback(ctx, tx)
		return err
	}

	if err := fn(txCtx, tx); err != nil {
		l.rollback(ctx, tx)
		return err
	}

	if commitErr := tx.Commit(txCtx); commitErr != nil {
		l.logError(ctx, logMsgCommitFailed, commitErr)

		return classifyDBError(txCtx, errors.Join(ledger.ErrTransactionFailed, commitErr), nil)
	}

	return nil
}

func (l *Ledger) setLockTimeout(ctx context.Context, tx adapters.DBTx) error {
	sqlQuery, args, buildErr := l.buildSetLockTimeoutQuery()
	if buildErr != nil {
		return l.buildFailed(ctx, buildErr)
	}

	_, err := l.exec(ctx, tx, logActionLockTimeout, sqlQuery, args, nil)

	return err
}

// rollback runs detached from the caller's cancellation, a canceled request must still release its locks.
func (l *Ledger) rollback(ctx context.Context, tx adapters.DBTx) {
	rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	err := tx.Rollback(rollbackCtx)
	if err == nil || errors.Is(err, sql.ErrTxDone) || errors.Is(err, pgx.ErrTxClosed) {
		return
	}

	l.logWarn(ctx, logMsgRollbackFailed, logAttrError, err.Error())
}

func (l *Ledger) buildFailed(ctx context.Context, buildErr error) error {
	l.logError(ctx, logMsgBuildQueryFailed, buildErr)

	return errors.Join(ledger.ErrBuildingQueryFailed, buildErr)
}

// query executes a statement that returns rows. The caller closes the rows.
func (l *Ledger) query(
	ctx context.Context,
	runner adapters.Runner,
	action string,
	sqlQuery sqlQueryString,
	args []any,
) (adapters.DBRows, error) {

	start := time.Now()
	rows, queryErr := runner.Query(ctx, sqlQuery, args...)
	l.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		l.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, classifyDBError(ctx, errors.Join(ledger.ErrQueryingFailed, queryErr), nil)
	}

	return rows, nil
}

// exec executes a statement and returns the number of affected rows.
func (l *Ledger) exec(
	ctx context.Context,
	runner adapters.Runner,
	action string,
	sqlQuery sqlQueryString,
	args []any,
	onUniqueViolation error,
) (int64, error) {

	start := time.Now()
	result, execErr := runner.Exec(ctx, sqlQuery, args...)
	l.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		l.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return 0, classifyDBError(ctx, errors.Join(ledger.ErrExecFailed, execErr), onUniqueViolation)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		l.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, errors.Join(ledger.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (l *Ledger) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		l.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (l *Ledger) scanFailed(ctx context.Context, scanErr error) error {
	l.logError(ctx, logMsgScanRowFailed, scanErr)

	return errors.Join(ledger.ErrScanningDBRowFailed, scanErr)
}

func (l *Ledger) iterationFailed(ctx context.Context, rowsErr error) error {
	l.logError(ctx, logMsgDBQueryFailed, rowsErr)

	return classifyDBError(ctx, errors.Join(ledger.ErrQueryingFailed, rowsErr), nil)
}

func scanBook(rows adapters.DBRows) (ledger.Book, error) {
	var book ledger.Book

	err := rows.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.PublishedYear,
		&book.TotalCopies,
		&book.CopiesAvailable,
	)

	return book, err
}

// selectBook reads one book, locking its row when forUpdate is set. found is false if it does not exist.
func (l *Ledger) selectBook(
	ctx context.Context,
	runner adapters.Runner,
	bookID uuid.UUID,
	forUpdate bool,
) (book ledger.Book, found bool, err error) {

	sqlQuery, args, buildErr := l.buildSelectBookQuery(bookID, forUpdate)
	if buildErr != nil {
		return ledger.Book{}, false, l.buildFailed(ctx, buildErr)
	}

	action := logActionSelectBook
	if forUpdate {
		action = logActionLockBook
	}

	rows, queryErr := l.query(ctx, runner, action, sqlQuery, args)
	if queryErr != nil {
		return ledger.Book{}, false, queryErr
	}
	defer l.closeRows(ctx, rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return ledger.Book{}, false, l.iterationFailed(ctx, rowsErr)
		}

		return ledger.Book{}, false, nil
	}

	book, scanErr := scanBook(rows)
	if scanErr != nil {
		return ledger.Book{}, false, l.scanFailed(ctx, scanErr)
	}

	return book, true, nil
}

// countOpenLoans counts the open loans of a book.
func (l *Ledger) countOpenLoans(ctx context.Context, runner adapters.Runner, bookID uuid.UUID) (int, error) {
	sqlQuery, args, buildErr := l.buildCountOpenLoansQuery(bookID)
	if buildErr != nil {
		return 0, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, runner, logActionCountOpenLoans, sqlQuery, args)
	if queryErr != nil {
		return 0, queryErr
	}
	defer l.closeRows(ctx, rows)

	var count int

	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return 0, l.scanFailed(ctx, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return 0, l.iterationFailed(ctx, rowsErr)
	}

	return count, nil
}
