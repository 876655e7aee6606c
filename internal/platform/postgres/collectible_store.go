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

// PostgresCollectibleStore implements the store.CollectibleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCollectibleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCollectibleStore creates a new PostgreSQL implementation of the CollectibleStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCollectibleStore(db store.DBTX, logger *slog.Logger) *PostgresCollectibleStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCollectibleStore{
		db:     db,
		logger: logger.With(slog.String("component", "collectible_store")),
	}
}

// Ensure PostgresCollectibleStore implements store.CollectibleStore interface
var _ store.CollectibleStore = (*PostgresCollectibleStore)(nil)

const collectibleColumns = `id, account_id, tier, custom_name, level, experience,
	generation_modifier, total_generated, is_favorite, acquired_at, updated_at`

func scanCollectible(row rowScanner) (*domain.Collectible, error) {
	var c domain.Collectible
	var tier string
	if err := row.Scan(
		&c.ID,
		&c.AccountID,
		&tier,
		&c.CustomName,
		&c.Level,
		&c.Experience,
		&c.GenerationModifier,
		&c.TotalGenerated,
		&c.IsFavorite,
		&c.AcquiredAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Tier = domain.Tier(tier)
	return &c, nil
}

// Create implements store.CollectibleStore.Create
func (s *PostgresCollectibleStore) Create(ctx context.Context, c *domain.Collectible) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := c.Validate(); err != nil {
		log.Warn("collectible validation failed during create",
			slog.String("error", err.Error()),
			slog.String("collectible_id", c.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collectibles (`+collectibleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		c.ID,
		c.AccountID,
		string(c.Tier),
		c.CustomName,
		c.Level,
		c.Experience,
		c.GenerationModifier,
		c.TotalGenerated,
		c.IsFavorite,
		c.AcquiredAt,
		c.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("collectible references unknown account",
				slog.String("account_id", c.AccountID.String()))
			return store.ErrAccountNotFound
		}
		log.Error("failed to create collectible",
			slog.String("error", err.Error()),
			slog.String("collectible_id", c.ID.String()))
		return MapError(err)
	}

	log.Info("collectible created",
		slog.String("collectible_id", c.ID.String()),
		slog.String("account_id", c.AccountID.String()),
		slog.String("tier", string(c.Tier)))
	return nil
}

// GetByID implements store.CollectibleStore.GetByID
func (s *PostgresCollectibleStore) GetByID(
	ctx context.Context,
	accountID, collectibleID uuid.UUID,
) (*domain.Collectible, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := scanCollectible(s.db.QueryRowContext(ctx,
		`SELECT `+collectibleColumns+` FROM collectibles WHERE id = $1 AND account_id = $2`,
		collectibleID, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("collectible not found",
				slog.String("collectible_id", collectibleID.String()))
			return nil, store.ErrCollectibleNotFound
		}
		log.Error("failed to get collectible",
			slog.String("error", err.Error()),
			slog.String("collectible_id", collectibleID.String()))
		return nil, MapError(err)
	}

	return c, nil
}

// ListByAccount implements store.CollectibleStore.ListByAccount
func (s *PostgresCollectibleStore) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
) ([]domain.Collectible, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+collectibleColumns+`
		FROM collectibles
		WHERE account_id = $1
		ORDER BY acquired_at ASC
	`, accountID)
	if err != nil {
		log.Error("failed to query collectibles",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	collectibles := []domain.Collectible{}
	for rows.Next() {
		c, err := scanCollectible(rows)
		if err != nil {
			log.Error("failed to scan collectible row", slog.String("error", err.Error()))
			return nil, err
		}
		collectibles = append(collectibles, *c)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning collectibles", slog.String("error", err.Error()))
		return nil, err
	}

	return collectibles, nil
}

// UpdateName implements store.CollectibleStore.UpdateName
func (s *PostgresCollectibleStore) UpdateName(
	ctx context.Context,
	accountID, collectibleID uuid.UUID,
	name string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET custom_name = $1, updated_at = NOW()
		WHERE id = $2 AND account_id = $3
	`, name, collectibleID, accountID)
	if err != nil {
		log.Error("failed to rename collectible",
			slog.String("error", err.Error()),
			slog.String("collectible_id", collectibleID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCollectibleNotFound)
}

// SetFavorite implements store.CollectibleStore.SetFavorite
func (s *PostgresCollectibleStore) SetFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Clear first so the one-favorite index never sees two rows. The clear
	// only runs when the target belongs to the account.
	if _, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET is_favorite = FALSE, updated_at = NOW()
		WHERE account_id = $1 AND id <> $2 AND is_favorite
		  AND EXISTS (SELECT 1 FROM collectibles WHERE id = $2 AND account_id = $1)
	`, accountID, collectibleID); err != nil {
		log.Error("failed to clear previous favorite",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return MapError(err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET is_favorite = TRUE, updated_at = NOW()
		WHERE id = $1 AND account_id = $2
	`, collectibleID, accountID)
	if err != nil {
		log.Error("failed to set favorite",
			slog.String("error", err.Error()),
			slog.String("collectible_id", collectibleID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrCollectibleNotFound); err != nil {
		return err
	}

	log.Debug("favorite set",
		slog.String("collectible_id", collectibleID.String()),
		slog.String("account_id", accountID.String()))
	return nil
}

// ClearFavorite implements store.CollectibleStore.ClearFavorite
func (s *PostgresCollectibleStore) ClearFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET is_favorite = FALSE, updated_at = NOW()
		WHERE id = $1 AND account_id = $2
	`, collectibleID, accountID)
	if err != nil {
		log.Error("failed to clear favorite",
			slog.String("error", err.Error()),
			slog.String("collectible_id", collectibleID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCollectibleNotFound)
}

// AddGenerated implements store.CollectibleStore.AddGenerated
func (s *PostgresCollectibleStore) AddGenerated(ctx context.Context, collectibleID uuid.UUID, amount int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE collectibles SET total_generated = total_generated + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, collectibleID)
	if err != nil {
		log.Error("failed to add generated amount",
			slog.String("error", err.Error()),
			slog.String("collectible_id", collectibleID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrCollectibleNotFound)
}

// WithTx implements store.CollectibleStore.WithTx
func (s *PostgresCollectibleStore) WithTx(tx *sql.Tx) store.CollectibleStore {
	return &PostgresCollectibleStore{db: tx, logger: s.logger}
}
