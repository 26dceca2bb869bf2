package config

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

const driverPostgres = "postgres"

// PostgresSQLDB opens and pings a configured *sql.DB for the given DSN.
func PostgresSQLDB(ctx context.Context, dsn string, size PoolSize) (*sql.DB, error) {
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db, err := sql.Open(driverPostgres, dsn)
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

// PostgresSQLDBTestConfig creates a configured *sql.DB for the test database.
func PostgresSQLDBTestConfig() *sql.DB {
	db, err := PostgresSQLDB(context.Background(), PostgresTestDSN(), TestPoolSize)
	if err != nil {
		log.Fatal("Failed to open database connection, error: ", err)
	}

	return db
}
