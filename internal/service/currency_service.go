package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/metrics"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// DefaultTransactionLimit is the number of ledger entries Transactions
// returns when the caller does not ask for a specific count.
const DefaultTransactionLimit = 20

// errNothingToHarvest is returned inside a harvest transaction when the
// account's collectibles generate less than one unit per hour.
var errNothingToHarvest = errors.New("generation rate below one unit per hour")

// BalanceSummary is an account's balance together with its passive income.
type BalanceSummary struct {
	Balance           int64   `json:"balance"`
	GenerationRate    float64 `json:"generation_rate"`
	TotalCollectibles int     `json:"total_collectibles"`
}

// CurrencyService is the only way currency moves. Every change appends a
// ledger entry and updates the cached balance in the same transaction.
type CurrencyService interface {
	// Credit adds amount (> 0) and returns the new balance.
	Credit(
		ctx context.Context,
		accountID uuid.UUID,
		amount int64,
		source domain.LedgerSource,
		referenceID string,
	) (int64, error)

	// Debit removes amount (> 0) and returns the new balance. It fails with
	// a *domain.InsufficientFundsError and changes nothing when the balance
	// is smaller than amount.
	Debit(
		ctx context.Context,
		accountID uuid.UUID,
		amount int64,
		source domain.LedgerSource,
		referenceID string,
	) (int64, error)

	// Purchase debits amount for a shop item, referencing the item id.
	Purchase(ctx context.Context, accountID uuid.UUID, itemID string, amount int64) (int64, error)

	// GenerationRate is the account's passive income per hour.
	GenerationRate(ctx context.Context, accountID uuid.UUID) (float64, error)

	// Balance summarizes the account's currency position.
	Balance(ctx context.Context, accountID uuid.UUID) (*BalanceSummary, error)

	// Collect credits one hour of passive income on demand.
	Collect(ctx context.Context, accountID uuid.UUID) (*BalanceSummary, error)

	// Generate credits one hour of passive income for the scheduled sweep.
	// Accounts generating less than one unit are skipped and report 0.
	Generate(ctx context.Context, accountID uuid.UUID) (int64, error)

	// Transactions lists the most recent ledger entries, newest first.
	Transactions(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error)

	// WithTx returns a CurrencyService that joins the caller's transaction
	// instead of opening its own.
	WithTx(tx *sql.Tx) CurrencyService
}

// currencyServiceImpl implements the CurrencyService interface
type currencyServiceImpl struct {
	db           store.TxBeginner
	tx           *sql.Tx
	accounts     store.AccountStore
	ledger       store.LedgerStore
	collectibles store.CollectibleStore
	logger       *slog.Logger
}

// NewCurrencyService creates a new CurrencyService.
// It returns an error if any of the required dependencies are nil.
func NewCurrencyService(
	db store.TxBeginner,
	accounts store.AccountStore,
	ledger store.LedgerStore,
	collectibles store.CollectibleStore,
	logger *slog.Logger,
) (CurrencyService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if ledger == nil {
		return nil, domain.NewValidationError("ledger", "cannot be nil", domain.ErrValidation)
	}
	if collectibles == nil {
		return nil, domain.NewValidationError("collectibles", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &currencyServiceImpl{
		db:           db,
		accounts:     accounts,
		ledger:       ledger,
		collectibles: collectibles,
		logger:       logger.With(slog.String("component", "currency_service")),
	}, nil
}

// WithTx implements CurrencyService.WithTx
func (s *currencyServiceImpl) WithTx(tx *sql.Tx) CurrencyService {
	clone := *s
	clone.tx = tx
	return &clone
}

// inTx runs fn in the bound transaction, or in a new one.
func (s *currencyServiceImpl) inTx(ctx context.Context, fn store.TxFn) error {
	if s.tx != nil {
		return fn(ctx, s.tx)
	}
	return store.RunInTransaction(ctx, s.db, fn)
}

// Credit implements CurrencyService.Credit
func (s *currencyServiceImpl) Credit(
	ctx context.Context,
	accountID uuid.UUID,
	amount int64,
	source domain.LedgerSource,
	referenceID string,
) (int64, error) {
	if err := validateMovement(amount, source); err != nil {
		return 0, err
	}
	return s.apply(ctx, "credit", accountID, amount, source, referenceID)
}

// Debit implements CurrencyService.Debit
func (s *currencyServiceImpl) Debit(
	ctx context.Context,
	accountID uuid.UUID,
	amount int64,
	source domain.LedgerSource,
	referenceID string,
) (int64, error) {
	if err := validateMovement(amount, source); err != nil {
		return 0, err
	}
	return s.apply(ctx, "debit", accountID, -amount, source, referenceID)
}

// Purchase implements CurrencyService.Purchase
func (s *currencyServiceImpl) Purchase(
	ctx context.Context,
	accountID uuid.UUID,
	itemID string,
	amount int64,
) (int64, error) {
	if itemID == "" {
		return 0, domain.NewValidationError("item_id", "cannot be empty", domain.ErrValidation)
	}
	return s.Debit(ctx, accountID, amount, domain.SourceShopPurchase, itemID)
}

func validateMovement(amount int64, source domain.LedgerSource) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}
	if source == "" {
		return domain.NewValidationError("source", "cannot be empty", domain.ErrValidation)
	}
	return nil
}

func (s *currencyServiceImpl) apply(
	ctx context.Context,
	operation string,
	accountID uuid.UUID,
	delta int64,
	source domain.LedgerSource,
	referenceID string,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var entry *domain.LedgerEntry
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		entry, err = s.ledger.WithTx(tx).Apply(ctx, accountID, delta, source, referenceID)
		return err
	})
	if err != nil {
		log.Debug("ledger change refused",
			slog.String("operation", operation),
			slog.String("account_id", accountID.String()),
			slog.Int64("delta", delta),
			slog.String("error", err.Error()))
		return 0, NewServiceError(operation, "failed to apply ledger entry", err)
	}

	// A bound transaction may still roll back; its owner records metrics.
	if s.tx == nil {
		metrics.RecordLedgerEntry(string(source), delta)
	}

	log.Info("balance changed",
		slog.String("account_id", accountID.String()),
		slog.String("source", string(source)),
		slog.Int64("delta", delta),
		slog.Int64("balance", entry.BalanceAfter))
	return entry.BalanceAfter, nil
}

// GenerationRate implements CurrencyService.GenerationRate
func (s *currencyServiceImpl) GenerationRate(ctx context.Context, accountID uuid.UUID) (float64, error) {
	owned, err := s.collectiblesStore().ListByAccount(ctx, accountID)
	if err != nil {
		return 0, NewServiceError("generation_rate", "failed to list collectibles", err)
	}
	return domain.TotalGenerationRate(owned), nil
}

// Balance implements CurrencyService.Balance
func (s *currencyServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (*BalanceSummary, error) {
	accounts := s.accounts
	if s.tx != nil {
		accounts = accounts.WithTx(s.tx)
	}

	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, NewServiceError("balance", "failed to load account", err)
	}

	owned, err := s.collectiblesStore().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, NewServiceError("balance", "failed to list collectibles", err)
	}

	return &BalanceSummary{
		Balance:           account.Balance,
		GenerationRate:    domain.TotalGenerationRate(owned),
		TotalCollectibles: len(owned),
	}, nil
}

// Collect implements CurrencyService.Collect
func (s *currencyServiceImpl) Collect(ctx context.Context, accountID uuid.UUID) (*BalanceSummary, error) {
	if _, err := s.harvest(ctx, accountID, domain.SourceManualCollection); err != nil {
		if errors.Is(err, errNothingToHarvest) {
			return nil, domain.NewValidationError("generation_rate", "must be greater than zero", err)
		}
		return nil, NewServiceError("collect", "failed to collect currency", err)
	}
	return s.Balance(ctx, accountID)
}

// Generate implements CurrencyService.Generate
func (s *currencyServiceImpl) Generate(ctx context.Context, accountID uuid.UUID) (int64, error) {
	credited, err := s.harvest(ctx, accountID, domain.SourceGeneration)
	if err != nil {
		if errors.Is(err, errNothingToHarvest) {
			return 0, nil
		}
		return 0, NewServiceError("generate", "failed to generate currency", err)
	}
	return credited, nil
}

// harvest credits the account's hourly rate and adds each collectible's share
// to its lifetime counter. The account row lock serializes concurrent
// harvests of the same account.
func (s *currencyServiceImpl) harvest(
	ctx context.Context,
	accountID uuid.UUID,
	source domain.LedgerSource,
) (int64, error) {
	var credited int64
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.accounts.WithTx(tx).GetForUpdate(ctx, accountID); err != nil {
			return err
		}

		collectibles := s.collectibles.WithTx(tx)
		owned, err := collectibles.ListByAccount(ctx, accountID)
		if err != nil {
			return err
		}

		amount := int64(domain.TotalGenerationRate(owned))
		if amount <= 0 {
			return errNothingToHarvest
		}

		if _, err := s.ledger.WithTx(tx).Apply(ctx, accountID, amount, source, ""); err != nil {
			return err
		}

		for i := range owned {
			share := int64(owned[i].GenerationRate())
			if share <= 0 {
				continue
			}
			if err := collectibles.AddGenerated(ctx, owned[i].ID, share); err != nil {
				return err
			}
		}

		credited = amount
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.tx == nil {
		metrics.RecordLedgerEntry(string(source), credited)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("harvested passive income",
		slog.String("account_id", accountID.String()),
		slog.String("source", string(source)),
		slog.Int64("amount", credited))
	return credited, nil
}

// Transactions implements CurrencyService.Transactions
func (s *currencyServiceImpl) Transactions(
	ctx context.Context,
	accountID uuid.UUID,
	limit int,
) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}

	ledger := s.ledger
	if s.tx != nil {
		ledger = ledger.WithTx(s.tx)
	}

	entries, err := ledger.ListEntries(ctx, accountID, limit)
	if err != nil {
		return nil, NewServiceError("transactions", "failed to list ledger entries", err)
	}
	return entries, nil
}

func (s *currencyServiceImpl) collectiblesStore() store.CollectibleStore {
	if s.tx != nil {
		return s.collectibles.WithTx(s.tx)
	}
	return s.collectibles
}
