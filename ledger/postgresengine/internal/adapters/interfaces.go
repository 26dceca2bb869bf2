package adapters

import "context"

// Runner executes statements, either directly on the pool or inside a transaction.
type Runner interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the ledger engine.
type DBAdapter interface {
	Runner
	BeginTx(ctx context.Context) (DBTx, error)
}

// DBTx is a transaction on the primary database.
type DBTx interface {
	Runner
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
