package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/phrazzld/sheepify-api/internal/service/auth"
	"github.com/phrazzld/sheepify-api/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Every mock store returns itself from WithTx so expectations set on it apply
// inside transactions too.

// MockAccountStore mocks the store.AccountStore interface
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAccountStore) WithTx(*sql.Tx) store.AccountStore {
	return m
}

// MockLedgerStore mocks the store.LedgerStore interface
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) Apply(
	ctx context.Context,
	accountID uuid.UUID,
	delta int64,
	source domain.LedgerSource,
	referenceID string,
) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, delta, source, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerStore) ListEntries(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerStore) WithTx(*sql.Tx) store.LedgerStore {
	return m
}

// MockSessionStore mocks the store.SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) GetByID(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, accountID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) GetForUpdate(
	ctx context.Context,
	accountID, sessionID uuid.UUID,
) (*domain.Session, error) {
	args := m.Called(ctx, accountID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) GetActive(ctx context.Context, accountID uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) Update(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) ListCompletedSince(
	ctx context.Context,
	accountID uuid.UUID,
	since time.Time,
) ([]domain.Session, error) {
	args := m.Called(ctx, accountID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionStore) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Session, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *MockSessionStore) WithTx(*sql.Tx) store.SessionStore {
	return m
}

// MockCollectibleStore mocks the store.CollectibleStore interface
type MockCollectibleStore struct {
	mock.Mock
}

func (m *MockCollectibleStore) Create(ctx context.Context, c *domain.Collectible) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCollectibleStore) GetByID(
	ctx context.Context,
	accountID, collectibleID uuid.UUID,
) (*domain.Collectible, error) {
	args := m.Called(ctx, accountID, collectibleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collectible), args.Error(1)
}

func (m *MockCollectibleStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Collectible, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Collectible), args.Error(1)
}

func (m *MockCollectibleStore) UpdateName(ctx context.Context, accountID, collectibleID uuid.UUID, name string) error {
	args := m.Called(ctx, accountID, collectibleID, name)
	return args.Error(0)
}

func (m *MockCollectibleStore) SetFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error {
	args := m.Called(ctx, accountID, collectibleID)
	return args.Error(0)
}

func (m *MockCollectibleStore) ClearFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error {
	args := m.Called(ctx, accountID, collectibleID)
	return args.Error(0)
}

func (m *MockCollectibleStore) AddGenerated(ctx context.Context, collectibleID uuid.UUID, amount int64) error {
	args := m.Called(ctx, collectibleID, amount)
	return args.Error(0)
}

func (m *MockCollectibleStore) WithTx(*sql.Tx) store.CollectibleStore {
	return m
}

// MockPasswordHasher mocks the auth.PasswordHasher interface
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}

// MockJWTService mocks the auth.JWTService interface
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	events []*events.Event
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	r.events = append(r.events, event)
	return nil
}

// newTxDB returns a sqlmock database and checks its expectations at cleanup.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return db, mock
}

func entry(accountID uuid.UUID, delta, balanceAfter int64, source domain.LedgerSource) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Delta:        delta,
		BalanceAfter: balanceAfter,
		Source:       source,
		CreatedAt:    time.Now().UTC(),
	}
}

func collectible(accountID uuid.UUID, tier domain.Tier, level int) domain.Collectible {
	return domain.Collectible{
		ID:                 uuid.New(),
		AccountID:          accountID,
		Tier:               tier,
		Level:              level,
		GenerationModifier: 1.0,
	}
}
