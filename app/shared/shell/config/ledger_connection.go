package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine"
)

// Adapter types selectable via the ADAPTER_TYPE environment variable or the -adapter flag.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLX    = "sqlx.db"
)

// ErrUnsupportedAdapter is returned for an unknown adapter type.
var ErrUnsupportedAdapter = errors.New("unsupported adapter type")

// LedgerConnection is an opened ledger together with the pools backing it.
type LedgerConnection struct {
	Ledger *postgresengine.Ledger
	close  []func()
}

// Close releases every pool of the connection.
func (c *LedgerConnection) Close() {
	for i := len(c.close) - 1; i >= 0; i-- {
		c.close[i]()
	}
}

// OpenLedger connects to the primary database with the chosen adapter and builds a ledger on it.
// A read replica is attached when LEDGER_POSTGRES_REPLICA_DSN is set; sql.db has no replica support.
func OpenLedger(
	ctx context.Context,
	adapterType string,
	size PoolSize,
	options ...postgresengine.Option,
) (*LedgerConnection, error) {
	connection := &LedgerConnection{}
	replicaDSN := PostgresReplicaDSN()

	var err error

	switch strings.ToLower(adapterType) {
	case AdapterPGXPool, "":
		connection.Ledger, err = openPGXPoolLedger(ctx, connection, replicaDSN, size, options)

	case AdapterSQLDB:
		connection.Ledger, err = openSQLDBLedger(ctx, connection, size, options)

	case AdapterSQLX:
		connection.Ledger, err = openSQLXLedger(ctx, connection, replicaDSN, size, options)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAdapter, adapterType)
	}

	if err != nil {
		connection.Close()
		return nil, err
	}

	return connection, nil
}

func openPGXPoolLedger(
	ctx context.Context,
	connection *LedgerConnection,
	replicaDSN string,
	size PoolSize,
	options []postgresengine.Option,
) (*postgresengine.Ledger, error) {
	primary, err := connectPGXPool(ctx, PostgresDSN(), size)
	if err != nil {
		return nil, err
	}

	connection.close = append(connection.close, primary.Close)

	var replica *pgxpool.Pool
	if replicaDSN != "" {
		if replica, err = connectPGXPool(ctx, replicaDSN, size); err != nil {
			return nil, err
		}

		connection.close = append(connection.close, replica.Close)
	}

	return postgresengine.NewLedgerFromPGXPoolWithReplica(primary, replica, options...)
}

func connectPGXPool(ctx context.Context, dsn string, size PoolSize) (*pgxpool.Pool, error) {
	poolConfig, err := PostgresPGXPoolConfig(dsn, size)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func openSQLDBLedger(
	ctx context.Context,
	connection *LedgerConnection,
	size PoolSize,
	options []postgresengine.Option,
) (*postgresengine.Ledger, error) {
	db, err := PostgresSQLDB(ctx, PostgresDSN(), size)
	if err != nil {
		return nil, err
	}

	connection.close = append(connection.close, func() { closeQuietly(db) })

	return postgresengine.NewLedgerFromSQLDB(db, options...)
}

func openSQLXLedger(
	ctx context.Context,
	connection *LedgerConnection,
	replicaDSN string,
	size PoolSize,
	options []postgresengine.Option,
) (*postgresengine.Ledger, error) {
	primary, err := PostgresSQLX(ctx, PostgresDSN(), size)
	if err != nil {
		return nil, err
	}

	connection.close = append(connection.close, func() { _ = primary.Close() })

	var replica *sqlx.DB
	if replicaDSN != "" {
		if replica, err = PostgresSQLX(ctx, replicaDSN, size); err != nil {
			return nil, err
		}

		connection.close = append(connection.close, func() { _ = replica.Close() })
	}

	return postgresengine.NewLedgerFromSQLXWithReplica(primary, replica, options...)
}

func closeQuietly(db *sql.DB) {
	_ = db.Close() // nothing sensible to do on shutdown
}
