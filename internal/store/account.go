package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
)

// AccountStore defines the interface for account persistence.
type AccountStore interface {
	// Create saves a new account. The account must carry a hashed password.
	// Returns validation errors from domain.Account if data is invalid, and
	// ErrUsernameTaken if the username is already in use.
	Create(ctx context.Context, account *domain.Account) error

	// GetByUsername retrieves an account by its username, including the
	// password hash.
	// Returns ErrAccountNotFound if no account uses the username.
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// GetByID retrieves an account by its unique ID.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// GetForUpdate retrieves an account and locks its row until the enclosing
	// transaction ends. Every multi-row change scoped to an account (favorite
	// changes, session start) takes this lock first.
	// Returns ErrAccountNotFound if the account does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// ListIDs returns up to limit account IDs greater than after, in ID order.
	// Pass uuid.Nil to start from the beginning.
	ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)

	// WithTx returns a new AccountStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AccountStore
}
