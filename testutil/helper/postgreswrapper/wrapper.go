package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell/config"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine"
)

// Adapter type constants, selected with the ADAPTER_TYPE environment variable.
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

const envAdapterType = "ADAPTER_TYPE"

// Wrapper interface to abstract over different adapter types
type Wrapper interface {
	GetLedger() *postgresengine.Ledger
	Exec(ctx context.Context, query string, args ...any) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool *pgxpool.Pool
	l    *postgresengine.Ledger
}

func (w *PGXPoolWrapper) GetLedger() *postgresengine.Ledger {
	return w.l
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.pool.Exec(ctx, query, args...)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db *sql.DB
	l  *postgresengine.Ledger
}

func (w *SQLDBWrapper) GetLedger() *postgresengine.Ledger {
	return w.l
}

func (w *SQLDBWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db *sqlx.DB
	l  *postgresengine.Ledger
}

func (w *SQLXWrapper) GetLedger() *postgresengine.Ledger {
	return w.l
}

func (w *SQLXWrapper) Exec(ctx context.Context, query string, args ...any) error {
	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the wrapper for the adapter named in ADAPTER_TYPE,
// ensures the schema and empties both tables.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	adapterType := strings.ToLower(os.Getenv(envAdapterType))

	var wrapper Wrapper

	switch adapterType {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		l, err := postgresengine.NewLedgerFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating ledger")

		wrapper = &PGXPoolWrapper{pool: connPool, l: l}

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()

		l, err := postgresengine.NewLedgerFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating ledger")

		wrapper = &SQLDBWrapper{db: db, l: l}

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()

		l, err := postgresengine.NewLedgerFromSQLX(db, options...)
		assert.NoError(t, err, "error creating ledger")

		wrapper = &SQLXWrapper{db: db, l: l}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}

	err := wrapper.GetLedger().EnsureSchema(context.Background())
	assert.NoError(t, err, "error ensuring the schema in test setup")

	return wrapper
}

// TryCreateLedger tries to create a ledger with the given options and returns the error (for testing error cases)
func TryCreateLedger(t testing.TB, options ...postgresengine.Option) error {
	t.Helper()

	adapterType := strings.ToLower(os.Getenv(envAdapterType))

	switch adapterType {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")
		defer connPool.Close()

		_, err = postgresengine.NewLedgerFromPGXPool(connPool, options...)
		return err

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()
		defer func(db *sql.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewLedgerFromSQLDB(db, options...)
		return err

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()
		defer func(db *sqlx.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewLedgerFromSQLX(db, options...)
		return err

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}
}

// CleanUp empties the books and loans tables with the given names, default "books" and "loans".
func CleanUp(t testing.TB, wrapper Wrapper, tableNames ...string) {
	t.Helper()

	if len(tableNames) == 0 {
		tableNames = []string{"books", "loans"}
	}

	err := wrapper.Exec(context.Background(), "TRUNCATE TABLE "+strings.Join(tableNames, ", "))
	assert.NoError(t, err, "error cleaning up the ledger tables")
}

// ForceCopiesAvailable overwrites the stored copies available of a book, bypassing the ledger.
func ForceCopiesAvailable(t testing.TB, wrapper Wrapper, bookID string, copiesAvailable int) {
	t.Helper()

	err := wrapper.Exec(
		context.Background(),
		"UPDATE books SET copies_available = $1 WHERE id = $2",
		copiesAvailable,
		bookID,
	)
	assert.NoError(t, err, "error in arranging test data")
}
