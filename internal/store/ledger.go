package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
)

// LedgerStore defines the interface for the currency ledger. It owns both the
// append-only entries and the cached balance on the account row.
type LedgerStore interface {
	// Apply changes the account balance by delta and appends the matching
	// ledger entry. The balance change is a single compare-and-set statement
	// that refuses to go below zero, and it holds the account row lock for
	// the rest of the transaction so balance_after values chain.
	//
	// Must be called on a transaction-bound store (see WithTx) so that the
	// balance update and the entry insert commit together.
	//
	// Returns ErrAccountNotFound if the account does not exist, and a
	// *domain.InsufficientFundsError if a negative delta exceeds the balance.
	Apply(
		ctx context.Context,
		accountID uuid.UUID,
		delta int64,
		source domain.LedgerSource,
		referenceID string,
	) (*domain.LedgerEntry, error)

	// ListEntries returns the account's most recent entries, newest first.
	ListEntries(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error)

	// WithTx returns a new LedgerStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) LedgerStore
}
