// Package store declares the persistence interfaces for accounts, sessions,
// collectibles and the currency ledger, the errors they return, and the
// transaction helper shared by every implementation.
package store
