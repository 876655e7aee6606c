package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/sheepify-api/internal/domain"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. It wraps domain.ErrNotFound so services can match either.
	ErrNotFound = fmt.Errorf("entity %w", domain.ErrNotFound)

	// ErrDuplicate is returned when an operation would violate a uniqueness rule.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update affects no rows or violates
	// a constraint.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrAccountNotFound indicates that the requested account does not exist.
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

	// ErrSessionNotFound indicates that no session matched the id and account.
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// ErrActiveSessionNotFound indicates that the account has no active session.
	ErrActiveSessionNotFound = fmt.Errorf("%w: active session", ErrNotFound)

	// ErrCollectibleNotFound indicates that no collectible matched the id and account.
	ErrCollectibleNotFound = fmt.Errorf("%w: collectible", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrActiveSessionExists is returned when an account already has an active
	// session. It also matches domain.ErrConflict.
	ErrActiveSessionExists = fmt.Errorf("%w: active session (%w)", ErrDuplicate, domain.ErrConflict)

	// ErrUsernameTaken is returned when another account already uses the
	// username. It also matches domain.ErrConflict.
	ErrUsernameTaken = fmt.Errorf("%w: username (%w)", ErrDuplicate, domain.ErrConflict)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "session", "ledger entry")
	Operation string // The operation that failed (e.g., "create", "apply")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
