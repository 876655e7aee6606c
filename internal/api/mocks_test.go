package api

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/leaderboard"
	"github.com/phrazzld/sheepify-api/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAccountService struct{ mock.Mock }

func (m *MockAccountService) Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*service.AuthResult)
	return result, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, username, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, username, password)
	result, _ := args.Get(0).(*service.AuthResult)
	return result, args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	account, _ := args.Get(0).(*domain.Account)
	return account, args.Error(1)
}

type MockSleepService struct{ mock.Mock }

func (m *MockSleepService) Start(
	ctx context.Context,
	accountID uuid.UUID,
	startTime time.Time,
	plannedWake *time.Time,
) (*domain.Session, error) {
	args := m.Called(ctx, accountID, startTime, plannedWake)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockSleepService) Complete(ctx context.Context, req service.CompleteRequest) (*service.CompletionResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*service.CompletionResult)
	return result, args.Error(1)
}

func (m *MockSleepService) Cancel(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, accountID, sessionID)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockSleepService) GetActive(ctx context.Context, accountID uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, accountID)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func (m *MockSleepService) ListSessions(
	ctx context.Context,
	accountID uuid.UUID,
	limit, offset int,
) ([]domain.Session, error) {
	args := m.Called(ctx, accountID, limit, offset)
	sessions, _ := args.Get(0).([]domain.Session)
	return sessions, args.Error(1)
}

func (m *MockSleepService) GetWeeklyStats(ctx context.Context, accountID uuid.UUID) (*domain.WeeklyStats, error) {
	args := m.Called(ctx, accountID)
	stats, _ := args.Get(0).(*domain.WeeklyStats)
	return stats, args.Error(1)
}

type MockCurrencyService struct{ mock.Mock }

func (m *MockCurrencyService) Credit(
	ctx context.Context,
	accountID uuid.UUID,
	amount int64,
	source domain.LedgerSource,
	referenceID string,
) (int64, error) {
	args := m.Called(ctx, accountID, amount, source, referenceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCurrencyService) Debit(
	ctx context.Context,
	accountID uuid.UUID,
	amount int64,
	source domain.LedgerSource,
	referenceID string,
) (int64, error) {
	args := m.Called(ctx, accountID, amount, source, referenceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCurrencyService) Purchase(ctx context.Context, accountID uuid.UUID, itemID string, amount int64) (int64, error) {
	args := m.Called(ctx, accountID, itemID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCurrencyService) GenerationRate(ctx context.Context, accountID uuid.UUID) (float64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCurrencyService) Balance(ctx context.Context, accountID uuid.UUID) (*service.BalanceSummary, error) {
	args := m.Called(ctx, accountID)
	summary, _ := args.Get(0).(*service.BalanceSummary)
	return summary, args.Error(1)
}

func (m *MockCurrencyService) Collect(ctx context.Context, accountID uuid.UUID) (*service.BalanceSummary, error) {
	args := m.Called(ctx, accountID)
	summary, _ := args.Get(0).(*service.BalanceSummary)
	return summary, args.Error(1)
}

func (m *MockCurrencyService) Generate(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCurrencyService) Transactions(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	entries, _ := args.Get(0).([]domain.LedgerEntry)
	return entries, args.Error(1)
}

func (m *MockCurrencyService) WithTx(*sql.Tx) service.CurrencyService { return m }

type MockInventoryService struct{ mock.Mock }

func (m *MockInventoryService) GrantStarter(ctx context.Context, accountID uuid.UUID) (*domain.Collectible, error) {
	args := m.Called(ctx, accountID)
	c, _ := args.Get(0).(*domain.Collectible)
	return c, args.Error(1)
}

func (m *MockInventoryService) Mint(
	ctx context.Context,
	accountID uuid.UUID,
	tier domain.Tier,
	customName string,
) (*domain.Collectible, error) {
	args := m.Called(ctx, accountID, tier, customName)
	c, _ := args.Get(0).(*domain.Collectible)
	return c, args.Error(1)
}

func (m *MockInventoryService) List(ctx context.Context, accountID uuid.UUID) ([]domain.Collectible, error) {
	args := m.Called(ctx, accountID)
	list, _ := args.Get(0).([]domain.Collectible)
	return list, args.Error(1)
}

func (m *MockInventoryService) Get(ctx context.Context, accountID, collectibleID uuid.UUID) (*domain.Collectible, error) {
	args := m.Called(ctx, accountID, collectibleID)
	c, _ := args.Get(0).(*domain.Collectible)
	return c, args.Error(1)
}

func (m *MockInventoryService) SetFavorite(ctx context.Context, accountID, collectibleID uuid.UUID) error {
	return m.Called(ctx, accountID, collectibleID).Error(0)
}

func (m *MockInventoryService) Update(
	ctx context.Context,
	accountID, collectibleID uuid.UUID,
	update service.CollectibleUpdate,
) (*domain.Collectible, error) {
	args := m.Called(ctx, accountID, collectibleID, update)
	c, _ := args.Get(0).(*domain.Collectible)
	return c, args.Error(1)
}

func (m *MockInventoryService) WithTx(*sql.Tx) service.InventoryService { return m }

type MockLeaderboard struct{ mock.Mock }

func (m *MockLeaderboard) Top(ctx context.Context, n int64) ([]leaderboard.Entry, error) {
	args := m.Called(ctx, n)
	entries, _ := args.Get(0).([]leaderboard.Entry)
	return entries, args.Error(1)
}

func (m *MockLeaderboard) Rank(ctx context.Context, accountID uuid.UUID) (*leaderboard.Entry, error) {
	args := m.Called(ctx, accountID)
	entry, _ := args.Get(0).(*leaderboard.Entry)
	return entry, args.Error(1)
}

func (m *MockLeaderboard) CurrentWeek() string { return "2025-W10" }

// testLogger discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a request for a handler under test. A non-nil accountID
// is stored in the context as the auth middleware would; pathParams are
// exposed through chi's route context.
func newRequest(
	t *testing.T,
	method, target, body string,
	accountID uuid.UUID,
	pathParams map[string]string,
) *http.Request {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := shared.SetTraceID(req.Context())
	if accountID != uuid.Nil {
		ctx = shared.WithAccountID(ctx, accountID)
	}
	if len(pathParams) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range pathParams {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
