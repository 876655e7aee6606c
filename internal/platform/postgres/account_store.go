package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the AccountStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, logger *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

const accountColumns = `id, username, hashed_password, farm_name, balance, sleep_goal_hours, timezone,
	created_at, updated_at`

// Create implements store.AccountStore.Create
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.Account) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if account.HashedPassword == "" {
		log.Warn("refusing to store account without a password hash",
			slog.String("account_id", account.ID.String()))
		return domain.ErrEmptyHashedPassword
	}

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return err
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Username,
		account.HashedPassword,
		account.FarmName,
		account.Balance,
		account.SleepGoalHours,
		account.Timezone,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, usernameConstraint) {
			log.Debug("username already taken", slog.String("username", account.Username))
			return store.ErrUsernameTaken
		}
		log.Error("failed to create account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return MapError(err)
	}

	log.Info("account created successfully",
		slog.String("account_id", account.ID.String()))
	return nil
}

// GetByID implements store.AccountStore.GetByID
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.get(ctx, `WHERE id = $1`, id, id.String())
}

// GetForUpdate implements store.AccountStore.GetForUpdate
func (s *PostgresAccountStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.get(ctx, `WHERE id = $1 FOR UPDATE`, id, id.String())
}

// GetByUsername implements store.AccountStore.GetByUsername
func (s *PostgresAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.get(ctx, `WHERE username = $1`, username, username)
}

func (s *PostgresAccountStore) get(ctx context.Context, where string, arg any, key string) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var account domain.Account
	err := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts `+where, arg).Scan(
		&account.ID,
		&account.Username,
		&account.HashedPassword,
		&account.FarmName,
		&account.Balance,
		&account.SleepGoalHours,
		&account.Timezone,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account not found", slog.String("key", key))
			return nil, store.ErrAccountNotFound
		}
		log.Error("failed to get account",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return nil, MapError(err)
	}

	return &account, nil
}

// ListIDs implements store.AccountStore.ListIDs
func (s *PostgresAccountStore) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM accounts WHERE id > $1 ORDER BY id LIMIT $2`,
		after, limit)
	if err != nil {
		log.Error("failed to list account ids", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan account id", slog.String("error", err.Error()))
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning account ids", slog.String("error", err.Error()))
		return nil, err
	}

	return ids, nil
}

// WithTx implements store.AccountStore.WithTx
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) store.AccountStore {
	return &PostgresAccountStore{db: tx, logger: s.logger}
}
