package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
)

// CollectibleStore defines the interface for collectible inventory persistence.
type CollectibleStore interface {
	// Create saves a new collectible.
	Create(ctx context.Context, collectible *domain.Collectible) error

	// GetByID retrieves a collectible owned by the account.
	// Returns ErrCollectibleNotFound if it does not exist or is owned by
	// another account.
	GetByID(ctx context.Context, accountID, collectibleID uuid.UUID) (*domain.Collectible, error)

	// ListByAccount returns every collectible the account owns, oldest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Collectible, error)

	// UpdateName sets the collectible's custom name.
	// Returns ErrCollectibleNotFound if it does not exist.
	UpdateName(ctx context.Context, accountID, collectibleID uuid.UUID, name string) error

	// SetFavorite clears is_favorite on every other collectible of the account
	// and sets it on the target. Callers run it in a transaction that already
	// holds the account row lock.
	// Returns ErrCollectibleNotFound if the target does not exist.
	SetFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error

	// ClearFavorite unsets is_favorite on the target only.
	// Returns ErrCollectibleNotFound if the target does not exist.
	ClearFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error

	// AddGenerated increments the collectible's lifetime generated counter.
	AddGenerated(ctx context.Context, collectibleID uuid.UUID, amount int64) error

	// WithTx returns a new CollectibleStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CollectibleStore
}
