// Package config provides connection and observability configuration for the lending ledger.
//
// It builds PostgreSQL connections for the three supported drivers (pgxpool.Pool, sql.DB with
// lib/pq, sqlx.DB) from a DSN taken from the environment, and sets up OpenTelemetry
// providers that export traces and metrics via OTLP gRPC.
//
// This package is part of the shell (infrastructure) layer.
package config
