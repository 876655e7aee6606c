package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/service/auth"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// ErrInvalidCredentials is returned by Login for both an unknown username and
// a wrong password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)

// RegisterRequest carries the inputs of account registration.
type RegisterRequest struct {
	Username string
	Password string
	FarmName string
	Timezone string
}

// AuthResult is an account together with a freshly issued access token.
type AuthResult struct {
	Account *domain.Account `json:"account"`
	Token   string          `json:"token"`
}

// AccountService opens accounts and authenticates their owners.
type AccountService interface {
	// Register creates the account with a zero balance and grants its starter
	// collectible in one transaction, then issues an access token.
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)

	// Login checks the password and issues an access token.
	Login(ctx context.Context, username, password string) (*AuthResult, error)

	// Get returns the account.
	Get(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
}

// accountServiceImpl implements the AccountService interface
type accountServiceImpl struct {
	db        store.TxBeginner
	accounts  store.AccountStore
	inventory InventoryService
	hasher    auth.PasswordHasher
	tokens    auth.JWTService
	logger    *slog.Logger
}

// NewAccountService creates a new AccountService.
// It returns an error if any of the required dependencies are nil.
func NewAccountService(
	db store.TxBeginner,
	accounts store.AccountStore,
	inventory InventoryService,
	hasher auth.PasswordHasher,
	tokens auth.JWTService,
	logger *slog.Logger,
) (AccountService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if inventory == nil {
		return nil, domain.NewValidationError("inventory", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if tokens == nil {
		return nil, domain.NewValidationError("tokens", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &accountServiceImpl{
		db:        db,
		accounts:  accounts,
		inventory: inventory,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger.With(slog.String("component", "account_service")),
	}, nil
}

// Register implements AccountService.Register
func (s *accountServiceImpl) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	account, err := domain.NewAccount(req.Username, req.Password, req.FarmName, req.Timezone)
	if err != nil {
		return nil, invalid(accountField(err), err)
	}

	hashed, err := s.hasher.Hash(account.Password)
	if err != nil {
		return nil, NewServiceError("register", "failed to hash password", err)
	}
	account.HashedPassword = hashed
	account.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.accounts.WithTx(tx).Create(ctx, account); err != nil {
			return err
		}
		_, err := s.inventory.WithTx(tx).GrantStarter(ctx, account.ID)
		return err
	})
	if err != nil {
		return nil, NewServiceError("register", "failed to create account", err)
	}

	token, err := s.tokens.GenerateToken(ctx, account.ID)
	if err != nil {
		return nil, NewServiceError("register", "failed to issue token", err)
	}

	log.Info("account registered",
		slog.String("account_id", account.ID.String()),
		slog.String("username", account.Username))
	return &AuthResult{Account: account, Token: token}, nil
}

// Login implements AccountService.Login
func (s *accountServiceImpl) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("login for unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, NewServiceError("login", "failed to load account", err)
	}

	if err := s.hasher.Compare(account.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Debug("login with wrong password", slog.String("account_id", account.ID.String()))
			return nil, ErrInvalidCredentials
		}
		return nil, NewServiceError("login", "failed to verify password", err)
	}

	token, err := s.tokens.GenerateToken(ctx, account.ID)
	if err != nil {
		return nil, NewServiceError("login", "failed to issue token", err)
	}

	log.Info("account logged in", slog.String("account_id", account.ID.String()))
	return &AuthResult{Account: account, Token: token}, nil
}

// Get implements AccountService.Get
func (s *accountServiceImpl) Get(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, NewServiceError("get_account", "failed to get account", err)
	}
	return account, nil
}

// accountField names the request field an account validation error concerns.
func accountField(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyUsername), errors.Is(err, domain.ErrInvalidUsername):
		return "username"
	case errors.Is(err, domain.ErrPasswordTooShort), errors.Is(err, domain.ErrPasswordTooLong):
		return "password"
	case errors.Is(err, domain.ErrEmptyFarmName), errors.Is(err, domain.ErrFarmNameTooLong):
		return "farm_name"
	case errors.Is(err, domain.ErrInvalidTimezone):
		return "timezone"
	default:
		return "account"
	}
}
