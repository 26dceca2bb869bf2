package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName = "books"
	defaultLoansTableName = "loans"
	defaultTxTimeout      = 5 * time.Second
	defaultLockTimeout    = 2 * time.Second
	rollbackTimeout       = 2 * time.Second
)

type sqlQueryString = string

// Ledger is the PostgreSQL lending ledger engine.
// It holds no per-request state; every operation borrows a connection from the pool it was given.
type Ledger struct {
	db               adapters.DBAdapter
	booksTableName   string
	loansTableName   string
	logger           ledger.Logger
	contextualLogger ledger.ContextualLogger
	metricsCollector ledger.MetricsCollector
	tracingCollector ledger.TracingCollector
	clock            func() time.Time
	txTimeout        time.Duration
	lockTimeout      time.Duration
}

// NewLedgerFromPGXPool creates a new Ledger using a pgx Pool with optional configuration.
func NewLedgerFromPGXPool(db *pgxpool.Pool, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	return newLedger(adapters.NewPGXAdapter(db), options...)
}

// NewLedgerFromPGXPoolWithReplica creates a new Ledger using a primary pgx Pool and a replica pool.
// Reads whose context carries ledger.EventualConsistency are served by the replica.
// A nil replica behaves like NewLedgerFromPGXPool.
func NewLedgerFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	if replica == nil {
		return newLedger(adapters.NewPGXAdapter(db), options...)
	}

	return newLedger(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewLedgerFromSQLDB creates a new Ledger using a sql.DB with optional configuration.
func NewLedgerFromSQLDB(db *sql.DB, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	return newLedger(adapters.NewSQLAdapter(db), options...)
}

// NewLedgerFromSQLX creates a new Ledger using a sqlx.DB with optional configuration.
func NewLedgerFromSQLX(db *sqlx.DB, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	return newLedger(adapters.NewSQLXAdapter(db), options...)
}

// NewLedgerFromSQLXWithReplica creates a new Ledger using a primary sqlx.DB and a replica.
// A nil replica behaves like NewLedgerFromSQLX.
func NewLedgerFromSQLXWithReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (*Ledger, error) {
	if db == nil {
		return nil, ledger.ErrNilDatabaseConnection
	}

	if replica == nil {
		return newLedger(adapters.NewSQLXAdapter(db), options...)
	}

	return newLedger(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newLedger(db adapters.DBAdapter, options ...Option) (*Ledger, error) {
	l := &Ledger{
		db:             db,
		booksTableName: defaultBooksTableName,
		loansTableName: defaultLoansTableName,
		clock:          time.Now,
		txTimeout:      defaultTxTimeout,
		lockTimeout:    defaultLockTimeout,
	}

	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// EnsureSchema creates the books and loans tables and their indexes if they do not exist.
// It is idempotent and safe to call on every start; it does not migrate existing tables.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	for _, statement := range l.schemaStatements() {
		start := time.Now()
		_, err := l.db.Exec(ctx, statement)
		l.logQueryWithDuration(ctx, statement, logActionSchema, time.Since(start))

		if err != nil {
			l.logError(ctx, logMsgSchemaFailed, err, logAttrQuery, statement)

			return errors.Join(ledger.ErrExecFailed, err)
		}
	}

	l.logOperation(ctx, logMsgSchemaEnsured,
		logAttrBooksTable, l.booksTableName,
		logAttrLoansTable, l.loansTableName)

	return nil
}

func (l *Ledger) schemaStatements() []sqlQueryString {
	books := pq.QuoteIdentifier(l.booksTableName)
	loans := pq.QuoteIdentifier(l.loansTableName)

	return []sqlQueryString{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s uuid PRIMARY KEY,
	%s text NOT NULL,
	%s text NOT NULL,
	%s integer NOT NULL,
	%s integer NOT NULL CHECK (%s >= 0),
	%s integer NOT NULL,
	CHECK (%s >= 0 AND %s <= %s)
)`, books,
			colID, colTitle, colAuthor, colPublishedYear,
			colTotalCopies, colTotalCopies,
			colCopiesAvailable,
			colCopiesAvailable, colCopiesAvailable, colTotalCopies),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s uuid PRIMARY KEY,
	%s uuid NOT NULL,
	%s uuid NOT NULL,
	%s timestamp with time zone NOT NULL,
	%s timestamp with time zone,
	CHECK (%s IS NULL OR %s >= %s)
)`, loans,
			colID, colBookID, colBorrowerID, colIssuedAt, colReturnedAt,
			colReturnedAt, colReturnedAt, colIssuedAt),

		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s, %s) WHERE %s IS NULL`,
			pq.QuoteIdentifier(l.loansTableName+"_one_open_loan_idx"), loans,
			colBookID, colBorrowerID, colReturnedAt),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s DESC) WHERE %s IS NULL`,
			pq.QuoteIdentifier(l.loansTableName+"_open_by_borrower_idx"), loans,
			colBorrowerID, colIssuedAt, colReturnedAt),
	}
}

// now returns the current time in UTC at the precision PostgreSQL stores.
func (l *Ledger) now() time.Time {
	return l.clock().UTC().Truncate(time.Microsecond)
}
