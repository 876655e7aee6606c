package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
)

// SessionStore defines the interface for sleep session persistence.
type SessionStore interface {
	// Create saves a new session. The storage layer enforces at most one
	// active session per account; a second active session for the same
	// account fails with ErrActiveSessionExists.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by id, scoped to the owning account.
	// Returns ErrSessionNotFound if no session matches both.
	GetByID(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error)

	// GetForUpdate is GetByID with a row lock held until the enclosing
	// transaction ends. Concurrent completions of the same session serialize
	// on this lock and the loser observes a non-active status.
	GetForUpdate(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error)

	// GetActive retrieves the account's active session.
	// Returns ErrActiveSessionNotFound if there is none.
	GetActive(ctx context.Context, accountID uuid.UUID) (*domain.Session, error)

	// Update writes the mutable fields of a session (end time, duration,
	// score, rewards, notes, status).
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.Session) error

	// ListCompletedSince returns the account's completed sessions with
	// start_time >= since, oldest first.
	ListCompletedSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]domain.Session, error)

	// List returns the account's sessions newest first.
	List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Session, error)

	// WithTx returns a new SessionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SessionStore
}
