package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/clock"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/domain/reward"
	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/phrazzld/sheepify-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 22:00 UTC on a Monday.
var bedtime = time.Date(2025, 3, 3, 22, 0, 0, 0, time.UTC)

type sleepFixture struct {
	svc          SleepService
	clock        *clock.Fixed
	emitter      *recordingEmitter
	accounts     *MockAccountStore
	sessions     *MockSessionStore
	ledger       *MockLedgerStore
	collectibles *MockCollectibleStore
}

// newSleepFixture wires real currency and inventory services over mock
// stores. roll is the value every award draw returns.
func newSleepFixture(t *testing.T, roll float64) (*sleepFixture, sqlmock.Sqlmock) {
	t.Helper()

	db, sqlMock := newTxDB(t)
	f := &sleepFixture{
		clock:        clock.NewFixed(bedtime),
		emitter:      &recordingEmitter{},
		accounts:     &MockAccountStore{},
		sessions:     &MockSessionStore{},
		ledger:       &MockLedgerStore{},
		collectibles: &MockCollectibleStore{},
	}

	currency, err := NewCurrencyService(db, f.accounts, f.ledger, f.collectibles, nil)
	require.NoError(t, err)
	inventory, err := NewInventoryService(db, f.accounts, f.collectibles, nil)
	require.NoError(t, err)

	svc, err := NewSleepService(SleepServiceDeps{
		DB:         db,
		Accounts:   f.accounts,
		Sessions:   f.sessions,
		Currency:   currency,
		Inventory:  inventory,
		Calculator: reward.NewCalculator(reward.NewDefaultParams(), reward.RollerFunc(func() float64 { return roll })),
		Clock:      f.clock,
		Events:     f.emitter,
	})
	require.NoError(t, err)
	f.svc = svc

	t.Cleanup(func() {
		f.accounts.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
		f.collectibles.AssertExpectations(t)
	})

	return f, sqlMock
}

func activeSession(accountID uuid.UUID, start time.Time) *domain.Session {
	return &domain.Session{
		ID:        uuid.New(),
		AccountID: accountID,
		StartTime: start,
		Status:    domain.SessionStatusActive,
		CreatedAt: start,
		UpdatedAt: start,
	}
}

func TestNewSleepService(t *testing.T) {
	db, _ := newTxDB(t)
	currency, err := NewCurrencyService(db, &MockAccountStore{}, &MockLedgerStore{}, &MockCollectibleStore{}, nil)
	require.NoError(t, err)
	inventory, err := NewInventoryService(db, &MockAccountStore{}, &MockCollectibleStore{}, nil)
	require.NoError(t, err)

	full := SleepServiceDeps{
		DB:        db,
		Accounts:  &MockAccountStore{},
		Sessions:  &MockSessionStore{},
		Currency:  currency,
		Inventory: inventory,
	}

	tests := []struct {
		name   string
		mutate func(d *SleepServiceDeps)
	}{
		{"nil db", func(d *SleepServiceDeps) { d.DB = nil }},
		{"nil accounts", func(d *SleepServiceDeps) { d.Accounts = nil }},
		{"nil sessions", func(d *SleepServiceDeps) { d.Sessions = nil }},
		{"nil currency", func(d *SleepServiceDeps) { d.Currency = nil }},
		{"nil inventory", func(d *SleepServiceDeps) { d.Inventory = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			svc, err := NewSleepService(deps)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("optional collaborators default", func(t *testing.T) {
		svc, err := NewSleepService(full)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestSleepService_Start(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	t.Run("zero start time means now", func(t *testing.T) {
		f, _ := newSleepFixture(t, 1)
		f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)

		session, err := f.svc.Start(ctx, accountID, time.Time{}, nil)
		require.NoError(t, err)
		assert.Equal(t, bedtime, session.StartTime)
		assert.Equal(t, domain.SessionStatusActive, session.Status)
	})

	t.Run("already has an active session", func(t *testing.T) {
		f, _ := newSleepFixture(t, 1)
		f.sessions.On("Create", mock.Anything, mock.Anything).Return(store.ErrActiveSessionExists)

		_, err := f.svc.Start(ctx, accountID, bedtime, nil)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("planned wake before start", func(t *testing.T) {
		f, _ := newSleepFixture(t, 1)
		wake := bedtime.Add(-time.Hour)

		_, err := f.svc.Start(ctx, accountID, bedtime, &wake)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSleepService_Complete(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	account := &domain.Account{ID: accountID, Timezone: "UTC"}

	t.Run("nine hours at 22:00 with no history", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0.99)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		session := activeSession(accountID, bedtime)
		end := bedtime.Add(9 * time.Hour)
		f.clock.Set(end)

		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.accounts.On("GetByID", mock.Anything, accountID).Return(account, nil)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, end.Add(-domain.StatsWindow)).
			Return([]domain.Session{}, nil)
		f.ledger.On("Apply", mock.Anything, accountID, int64(382), domain.SourceSleepReward, session.ID.String()).
			Return(entry(accountID, 382, 382, domain.SourceSleepReward), nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID})
		require.NoError(t, err)

		assert.Equal(t, 40.0, result.Score.Duration)
		assert.Equal(t, 30.0, result.Score.Timing)
		assert.Equal(t, 15.0, result.Score.Consistency)
		assert.Equal(t, 85.0, result.Score.Total)
		assert.Equal(t, int64(382), result.Reward.Currency)
		assert.True(t, result.Reward.Rolled)
		assert.Nil(t, result.Collectible)

		assert.Equal(t, domain.SessionStatusCompleted, session.Status)
		require.NotNil(t, session.DurationHours)
		assert.Equal(t, 9.0, *session.DurationHours)
		require.NotNil(t, session.QualityScore)
		assert.Equal(t, 85.0, *session.QualityScore)
		assert.Equal(t, int64(382), session.RewardCurrency)

		require.Len(t, f.emitter.events, 1)
		assert.Equal(t, events.TypeSessionCompleted, f.emitter.events[0].Type)
	})

	t.Run("winning roll mints a collectible", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		session := activeSession(accountID, bedtime)
		end := bedtime.Add(9 * time.Hour)

		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.accounts.On("GetByID", mock.Anything, accountID).Return(account, nil)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, mock.Anything).Return([]domain.Session{}, nil)
		f.ledger.On("Apply", mock.Anything, accountID, int64(382), domain.SourceSleepReward, session.ID.String()).
			Return(entry(accountID, 382, 382, domain.SourceSleepReward), nil)
		f.collectibles.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Collectible) bool {
			return c.Tier == domain.TierSuffolk && c.AccountID == accountID
		})).Return(nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID, EndTime: end})
		require.NoError(t, err)

		require.NotNil(t, result.Collectible)
		assert.Equal(t, domain.TierSuffolk, result.Collectible.Tier)
		require.NotNil(t, session.AwardedCollectibleID)
		assert.Equal(t, result.Collectible.ID, *session.AwardedCollectibleID)
	})

	t.Run("twenty hours is credited as sixteen", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		session := activeSession(accountID, bedtime)
		end := bedtime.Add(20 * time.Hour)

		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.accounts.On("GetByID", mock.Anything, accountID).Return(account, nil)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, mock.Anything).Return([]domain.Session{}, nil)
		f.ledger.On("Apply", mock.Anything, accountID, int64(560), domain.SourceSleepReward, session.ID.String()).
			Return(entry(accountID, 560, 560, domain.SourceSleepReward), nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID, EndTime: end})
		require.NoError(t, err)

		assert.Equal(t, 16.0, *session.DurationHours)
		assert.Equal(t, 70.0, result.Score.Total)
		assert.False(t, result.Reward.Rolled)
	})

	t.Run("start hour is read in the account timezone", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0.99)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		// 03:00 UTC is 22:00 in New York before the March DST change.
		start := time.Date(2025, 3, 4, 3, 0, 0, 0, time.UTC)
		session := activeSession(accountID, start)
		end := start.Add(9 * time.Hour)
		newYork := &domain.Account{ID: accountID, Timezone: "America/New_York"}

		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.accounts.On("GetByID", mock.Anything, accountID).Return(newYork, nil)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, mock.Anything).Return([]domain.Session{}, nil)
		f.ledger.On("Apply", mock.Anything, accountID, int64(382), domain.SourceSleepReward, session.ID.String()).
			Return(entry(accountID, 382, 382, domain.SourceSleepReward), nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID, EndTime: end})
		require.NoError(t, err)

		assert.Equal(t, 30.0, result.Score.Timing)
		assert.Equal(t, 85.0, result.Score.Total)
	})

	t.Run("same start hour scored in UTC", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0.99)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		start := time.Date(2025, 3, 4, 3, 0, 0, 0, time.UTC)
		session := activeSession(accountID, start)
		end := start.Add(9 * time.Hour)

		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.accounts.On("GetByID", mock.Anything, accountID).Return(account, nil)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, mock.Anything).Return([]domain.Session{}, nil)
		f.ledger.On("Apply", mock.Anything, accountID, mock.AnythingOfType("int64"), domain.SourceSleepReward, session.ID.String()).
			Return(entry(accountID, 315, 315, domain.SourceSleepReward), nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID, EndTime: end})
		require.NoError(t, err)

		assert.Equal(t, 15.0, result.Score.Timing)
		assert.Equal(t, 70.0, result.Score.Total)
	})

	t.Run("failures after the credit roll back the completion", func(t *testing.T) {
		boom := errors.New("boom")

		tests := []struct {
			name  string
			roll  float64
			setup func(f *sleepFixture, session *domain.Session)
		}{
			{
				name: "session update fails",
				roll: 0.99,
				setup: func(f *sleepFixture, session *domain.Session) {
					f.sessions.On("Update", mock.Anything, session).Return(boom)
				},
			},
			{
				name: "collectible mint fails",
				roll: 0,
				setup: func(f *sleepFixture, _ *domain.Session) {
					f.collectibles.On("Create", mock.Anything, mock.AnythingOfType("*domain.Collectible")).Return(boom)
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, sqlMock := newSleepFixture(t, tt.roll)
				sqlMock.ExpectBegin()
				sqlMock.ExpectRollback()

				session := activeSession(accountID, bedtime)
				end := bedtime.Add(9 * time.Hour)

				f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
				f.accounts.On("GetByID", mock.Anything, accountID).Return(account, nil)
				f.sessions.On("ListCompletedSince", mock.Anything, accountID, mock.Anything).Return([]domain.Session{}, nil)
				f.ledger.On("Apply", mock.Anything, accountID, int64(382), domain.SourceSleepReward, session.ID.String()).
					Return(entry(accountID, 382, 382, domain.SourceSleepReward), nil)
				tt.setup(f, session)

				result, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID, EndTime: end})
				require.Error(t, err)
				assert.ErrorIs(t, err, boom)
				assert.Nil(t, result)
				assert.Empty(t, f.emitter.events)
			})
		}
	})

	t.Run("short session is completed without reward", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		session := activeSession(accountID, bedtime)
		end := bedtime.Add(30 * time.Minute)

		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		result, err := f.svc.Complete(ctx, CompleteRequest{
			AccountID: accountID,
			SessionID: session.ID,
			EndTime:   end,
			Notes:     "woke up early",
		})
		require.NoError(t, err)

		assert.Equal(t, 0.0, result.Score.Total)
		assert.Equal(t, int64(0), result.Reward.Currency)
		assert.Equal(t, 0.5, *session.DurationHours)
		assert.Equal(t, "woke up early", session.Notes)
		f.ledger.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session no longer active", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		session := activeSession(accountID, bedtime)
		session.Status = domain.SessionStatusCancelled
		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)

		_, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: session.ID})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Empty(t, f.emitter.events)
	})

	t.Run("end before start", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		session := activeSession(accountID, bedtime)
		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)

		_, err := f.svc.Complete(ctx, CompleteRequest{
			AccountID: accountID,
			SessionID: session.ID,
			EndTime:   bedtime.Add(-time.Minute),
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("notes too long", func(t *testing.T) {
		f, _ := newSleepFixture(t, 0)

		notes := make([]byte, domain.MaxNotesLength+1)
		for i := range notes {
			notes[i] = 'z'
		}

		_, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: uuid.New(), Notes: string(notes)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown session", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		sessionID := uuid.New()
		f.sessions.On("GetForUpdate", mock.Anything, accountID, sessionID).Return(nil, store.ErrSessionNotFound)

		_, err := f.svc.Complete(ctx, CompleteRequest{AccountID: accountID, SessionID: sessionID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSleepService_Cancel(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	t.Run("active session", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		session := activeSession(accountID, bedtime)
		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)
		f.sessions.On("Update", mock.Anything, session).Return(nil)

		cancelled, err := f.svc.Cancel(ctx, accountID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusCancelled, cancelled.Status)
		assert.Nil(t, cancelled.QualityScore)
		assert.Equal(t, int64(0), cancelled.RewardCurrency)
	})

	t.Run("already completed", func(t *testing.T) {
		f, sqlMock := newSleepFixture(t, 0)
		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		session := activeSession(accountID, bedtime)
		session.Status = domain.SessionStatusCompleted
		f.sessions.On("GetForUpdate", mock.Anything, accountID, session.ID).Return(session, nil)

		_, err := f.svc.Cancel(ctx, accountID, session.ID)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestSleepService_ListSessions(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	f, _ := newSleepFixture(t, 0)
	f.sessions.On("List", mock.Anything, accountID, DefaultSessionPageSize, 0).
		Return([]domain.Session{*activeSession(accountID, bedtime)}, nil)

	sessions, err := f.svc.ListSessions(ctx, accountID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	_, err = f.svc.ListSessions(ctx, accountID, 10, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSleepService_GetWeeklyStats(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	completed := func(start time.Time, hours, score float64, currency int64) domain.Session {
		s := *activeSession(accountID, start)
		end := start.Add(time.Duration(hours * float64(time.Hour)))
		s.Status = domain.SessionStatusCompleted
		s.EndTime = &end
		s.DurationHours = &hours
		s.QualityScore = &score
		s.RewardCurrency = currency
		return s
	}

	t.Run("summarizes the trailing week", func(t *testing.T) {
		f, _ := newSleepFixture(t, 0)
		best := bedtime.Add(-48 * time.Hour)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, bedtime.Add(-domain.StatsWindow)).
			Return([]domain.Session{
				completed(bedtime.Add(-24*time.Hour), 8, 80, 320),
				completed(best, 9, 90, 405),
				completed(bedtime.Add(-72*time.Hour), 0.5, 0, 0),
			}, nil)

		stats, err := f.svc.GetWeeklyStats(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalSessions)
		assert.Equal(t, 17.5, stats.TotalHours)
		assert.Equal(t, 85.0, stats.AverageQuality)
		assert.Equal(t, int64(725), stats.TotalCurrencyEarned)
		require.NotNil(t, stats.BestSessionTime)
		assert.True(t, best.Equal(*stats.BestSessionTime))
	})

	t.Run("no sessions", func(t *testing.T) {
		f, _ := newSleepFixture(t, 0)
		f.sessions.On("ListCompletedSince", mock.Anything, accountID, mock.Anything).Return([]domain.Session{}, nil)

		stats, err := f.svc.GetWeeklyStats(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalSessions)
		assert.Nil(t, stats.BestSessionTime)
	})
}
