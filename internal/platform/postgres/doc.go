// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx driver.
//
// Every store accepts a store.DBTX, so the same code runs against the pool
// or inside a transaction via WithTx. Balance changes go through
// PostgresLedgerStore.Apply, which guards against overdrafts in a single
// UPDATE and appends the matching ledger entry.
package postgres
