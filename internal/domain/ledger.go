package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// LedgerSource tags the reason for a currency movement.
type LedgerSource string

// Known ledger sources
const (
	SourceGeneration       LedgerSource = "generation"
	SourceManualCollection LedgerSource = "manual_collection"
	SourceSleepReward      LedgerSource = "sleep_reward"
	SourceShopPurchase     LedgerSource = "shop_purchase"
)

// Ledger validation errors
var (
	ErrEmptyLedgerAccountID = errors.New("ledger entry account ID cannot be empty")
	ErrZeroDelta            = errors.New("ledger entry delta cannot be zero")
	ErrNegativeBalanceAfter = errors.New("ledger entry balance_after cannot be negative")
	ErrEmptySource          = errors.New("ledger entry source cannot be empty")
	ErrNonPositiveAmount    = NewValidationError("amount", "must be greater than zero", ErrValidation)
)

// LedgerEntry is one immutable currency movement. For an account's entries in
// creation order, BalanceAfter equals the previous BalanceAfter plus Delta.
type LedgerEntry struct {
	ID           uuid.UUID    `json:"id"`
	AccountID    uuid.UUID    `json:"account_id"`
	Delta        int64        `json:"delta"`
	BalanceAfter int64        `json:"balance_after"`
	Source       LedgerSource `json:"source"`
	ReferenceID  string       `json:"reference_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewLedgerEntry creates an entry recording delta against the account.
func NewLedgerEntry(
	accountID uuid.UUID,
	delta, balanceAfter int64,
	source LedgerSource,
	referenceID string,
) (*LedgerEntry, error) {
	entry := &LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Delta:        delta,
		BalanceAfter: balanceAfter,
		Source:       source,
		ReferenceID:  referenceID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the LedgerEntry has valid data.
func (e *LedgerEntry) Validate() error {
	if e.AccountID == uuid.Nil {
		return ErrEmptyLedgerAccountID
	}

	if e.Delta == 0 {
		return ErrZeroDelta
	}

	if e.BalanceAfter < 0 {
		return ErrNegativeBalanceAfter
	}

	if e.Source == "" {
		return ErrEmptySource
	}

	return nil
}

// ValidateAmount checks that a credit or debit amount is strictly positive.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}
