package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/metrics"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// CollectibleUpdate carries the optional changes accepted by Update. Nil
// fields are left untouched.
type CollectibleUpdate struct {
	CustomName *string
	IsFavorite *bool
}

// InventoryService manages the collectibles an account owns.
type InventoryService interface {
	// GrantStarter mints the starter collectible every new account receives.
	GrantStarter(ctx context.Context, accountID uuid.UUID) (*domain.Collectible, error)

	// Mint creates a level 1 collectible of the given tier.
	Mint(ctx context.Context, accountID uuid.UUID, tier domain.Tier, customName string) (*domain.Collectible, error)

	// List returns the account's collectibles, oldest first.
	List(ctx context.Context, accountID uuid.UUID) ([]domain.Collectible, error)

	// Get returns one collectible owned by the account.
	Get(ctx context.Context, accountID, collectibleID uuid.UUID) (*domain.Collectible, error)

	// SetFavorite makes the collectible the account's only favorite.
	SetFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error

	// Update applies a rename and/or favorite change and returns the result.
	Update(
		ctx context.Context,
		accountID, collectibleID uuid.UUID,
		update CollectibleUpdate,
	) (*domain.Collectible, error)

	// WithTx returns an InventoryService that joins the caller's transaction.
	WithTx(tx *sql.Tx) InventoryService
}

// inventoryServiceImpl implements the InventoryService interface
type inventoryServiceImpl struct {
	db           store.TxBeginner
	tx           *sql.Tx
	accounts     store.AccountStore
	collectibles store.CollectibleStore
	logger       *slog.Logger
}

// NewInventoryService creates a new InventoryService.
// It returns an error if any of the required dependencies are nil.
func NewInventoryService(
	db store.TxBeginner,
	accounts store.AccountStore,
	collectibles store.CollectibleStore,
	logger *slog.Logger,
) (InventoryService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if collectibles == nil {
		return nil, domain.NewValidationError("collectibles", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &inventoryServiceImpl{
		db:           db,
		accounts:     accounts,
		collectibles: collectibles,
		logger:       logger.With(slog.String("component", "inventory_service")),
	}, nil
}

// WithTx implements InventoryService.WithTx
func (s *inventoryServiceImpl) WithTx(tx *sql.Tx) InventoryService {
	clone := *s
	clone.tx = tx
	return &clone
}

func (s *inventoryServiceImpl) inTx(ctx context.Context, fn store.TxFn) error {
	if s.tx != nil {
		return fn(ctx, s.tx)
	}
	return store.RunInTransaction(ctx, s.db, fn)
}

func (s *inventoryServiceImpl) store() store.CollectibleStore {
	if s.tx != nil {
		return s.collectibles.WithTx(s.tx)
	}
	return s.collectibles
}

// GrantStarter implements InventoryService.GrantStarter
func (s *inventoryServiceImpl) GrantStarter(ctx context.Context, accountID uuid.UUID) (*domain.Collectible, error) {
	return s.Mint(ctx, accountID, domain.TierStarter, domain.StarterName)
}

// Mint implements InventoryService.Mint
func (s *inventoryServiceImpl) Mint(
	ctx context.Context,
	accountID uuid.UUID,
	tier domain.Tier,
	customName string,
) (*domain.Collectible, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	collectible, err := domain.NewCollectible(accountID, tier, strings.TrimSpace(customName))
	if err != nil {
		return nil, invalid("collectible", err)
	}

	if err := s.store().Create(ctx, collectible); err != nil {
		return nil, NewServiceError("mint", "failed to create collectible", err)
	}

	if s.tx == nil {
		metrics.RecordCollectibleMinted(string(tier))
	}

	log.Info("collectible minted",
		slog.String("account_id", accountID.String()),
		slog.String("collectible_id", collectible.ID.String()),
		slog.String("tier", string(tier)))
	return collectible, nil
}

// List implements InventoryService.List
func (s *inventoryServiceImpl) List(ctx context.Context, accountID uuid.UUID) ([]domain.Collectible, error) {
	owned, err := s.store().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, NewServiceError("list_collectibles", "failed to list collectibles", err)
	}
	return owned, nil
}

// Get implements InventoryService.Get
func (s *inventoryServiceImpl) Get(
	ctx context.Context,
	accountID, collectibleID uuid.UUID,
) (*domain.Collectible, error) {
	c, err := s.store().GetByID(ctx, accountID, collectibleID)
	if err != nil {
		return nil, NewServiceError("get_collectible", "failed to get collectible", err)
	}
	return c, nil
}

// SetFavorite implements InventoryService.SetFavorite
func (s *inventoryServiceImpl) SetFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error {
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.setFavorite(ctx, tx, accountID, collectibleID)
	})
	if err != nil {
		return NewServiceError("set_favorite", "failed to set favorite", err)
	}
	return nil
}

// setFavorite locks the account row before touching favorites so two
// concurrent calls cannot leave two favorites behind.
func (s *inventoryServiceImpl) setFavorite(ctx context.Context, tx *sql.Tx, accountID, collectibleID uuid.UUID) error {
	if _, err := s.accounts.WithTx(tx).GetForUpdate(ctx, accountID); err != nil {
		return err
	}

	collectibles := s.collectibles.WithTx(tx)
	if _, err := collectibles.GetByID(ctx, accountID, collectibleID); err != nil {
		return err
	}

	if err := collectibles.SetFavorite(ctx, accountID, collectibleID); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("favorite changed",
		slog.String("account_id", accountID.String()),
		slog.String("collectible_id", collectibleID.String()))
	return nil
}

// Update implements InventoryService.Update
func (s *inventoryServiceImpl) Update(
	ctx context.Context,
	accountID, collectibleID uuid.UUID,
	update CollectibleUpdate,
) (*domain.Collectible, error) {
	var name string
	if update.CustomName != nil {
		name = strings.TrimSpace(*update.CustomName)
		if len(name) > domain.MaxCustomNameLength {
			return nil, invalid("custom_name", domain.ErrCustomNameTooLong)
		}
	}

	var updated *domain.Collectible
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		collectibles := s.collectibles.WithTx(tx)

		if update.IsFavorite != nil && *update.IsFavorite {
			if err := s.setFavorite(ctx, tx, accountID, collectibleID); err != nil {
				return err
			}
		} else if _, err := collectibles.GetByID(ctx, accountID, collectibleID); err != nil {
			return err
		}

		if update.CustomName != nil {
			if err := collectibles.UpdateName(ctx, accountID, collectibleID, name); err != nil {
				return err
			}
		}

		if update.IsFavorite != nil && !*update.IsFavorite {
			if err := collectibles.ClearFavorite(ctx, accountID, collectibleID); err != nil {
				return err
			}
		}

		var err error
		updated, err = collectibles.GetByID(ctx, accountID, collectibleID)
		return err
	})
	if err != nil {
		return nil, NewServiceError("update_collectible", "failed to update collectible", err)
	}

	return updated, nil
}
