package config

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresSQLX opens and pings a configured *sqlx.DB for the given DSN.
func PostgresSQLX(ctx context.Context, dsn string, size PoolSize) (*sqlx.DB, error) {
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db, err := sqlx.Open(driverPostgres, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(int(size.MaxConns))
	db.SetMaxIdleConns(int(size.MinConns))
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

// PostgresSQLXTestConfig creates a configured *sqlx.DB for the test database.
func PostgresSQLXTestConfig() *sqlx.DB {
	db, err := PostgresSQLX(context.Background(), PostgresTestDSN(), TestPoolSize)
	if err != nil {
		log.Fatal("Failed to open database connection, error: ", err)
	}

	return db
}
