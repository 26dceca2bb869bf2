// Package postgreswrapper creates ledgers for integration tests on the adapter named in ADAPTER_TYPE
// ("pgx.pool", "sql.db" or "sqlx.db"; pgx.pool if unset) and offers raw table access for arranging data.
package postgreswrapper
