// Package postgresengine provides a PostgreSQL implementation of the lending ledger.
//
// The engine keeps two tables: books (catalog entries with their copy inventory) and
// loans (one row per issue, closed by a return timestamp). Issue and return each run in a
// single transaction on the primary database. The book row is locked with SELECT ... FOR UPDATE
// before any check, the decrement is a compare-and-swap on copies_available, and a partial
// unique index on open loans backs the one-open-loan-per-borrower rule.
//
// Supported database adapters:
//   - pgx/v5 connection pools (pgxpool.Pool), optionally with a replica pool
//   - Standard library database/sql connections (sql.DB) with lib/pq
//   - sqlx database connections (sqlx.DB), optionally with a replica
//
// Lock waits, deadlocks and serialization failures surface as ledger.ErrConcurrencyConflict.
// Business errors (ledger.ErrNoCopiesAvailable and friends) are returned unchanged and
// are never worth retrying.
//
// Example:
//
//	l, err := postgresengine.NewLedgerFromPGXPool(pool, postgresengine.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	if err := l.EnsureSchema(ctx); err != nil {
//		return err
//	}
//
//	loan, err := l.Issue(ctx, bookID, borrowerID)
//
// Reads tolerate replica lag when the context says so:
//
//	books, err := l.ListBooks(ledger.WithEventualConsistency(ctx))
package postgresengine
