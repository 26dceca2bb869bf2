// Package adapters provide database adapter implementations for the PostgreSQL ledger engine.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// the DBAdapter interface, including transactions, so the engine runs its atomic
// issue and return operations the same way on every connection type.
//
// Reads outside a transaction go to the replica when one is configured and the
// context asks for eventual consistency; transactions always run on the primary.
package adapters
