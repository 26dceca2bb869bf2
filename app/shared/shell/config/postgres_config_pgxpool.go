package config

import (
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSize bounds a connection pool.
type PoolSize struct {
	MaxConns int32
	MinConns int32
}

// Pool sizes for the server and for tests.
var (
	ServerPoolSize = PoolSize{MaxConns: 32, MinConns: 4}
	TestPoolSize   = PoolSize{MaxConns: 8, MinConns: 2}
)

// PostgresPGXPoolConfig creates a pgxpool.Config for the given DSN.
func PostgresPGXPoolConfig(dsn string, size PoolSize) (*pgxpool.Config, error) {
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	dbConfig.MaxConns = size.MaxConns
	dbConfig.MinConns = size.MinConns
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// PostgresPGXPoolTestConfig creates a pgxpool.Config for the test database.
func PostgresPGXPoolTestConfig() *pgxpool.Config {
	dbConfig, err := PostgresPGXPoolConfig(PostgresTestDSN(), TestPoolSize)
	if err != nil {
		log.Fatal("Failed to create a config, error: ", err)
	}

	return dbConfig
}
