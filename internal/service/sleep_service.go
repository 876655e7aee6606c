package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/clock"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/domain/reward"
	"github.com/phrazzld/sheepify-api/internal/domain/scoring"
	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/phrazzld/sheepify-api/internal/metrics"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/redact"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// DefaultSessionPageSize is the page size ListSessions uses when none is given.
const DefaultSessionPageSize = 10

// CompleteRequest carries the inputs of a session completion. A zero EndTime
// means now.
type CompleteRequest struct {
	AccountID uuid.UUID
	SessionID uuid.UUID
	EndTime   time.Time
	Notes     string
}

// CompletionResult is a completed session together with how it was scored
// and what it earned.
type CompletionResult struct {
	Session     *domain.Session     `json:"session"`
	Score       scoring.Breakdown   `json:"score"`
	Reward      reward.Result       `json:"reward"`
	Collectible *domain.Collectible `json:"collectible,omitempty"`
}

// SleepService runs the sleep session lifecycle: Active sessions are started,
// then completed (scored and rewarded) or cancelled exactly once.
type SleepService interface {
	// Start opens an Active session. A zero startTime means now.
	// Fails with domain.ErrConflict when the account already has one.
	Start(
		ctx context.Context,
		accountID uuid.UUID,
		startTime time.Time,
		plannedWake *time.Time,
	) (*domain.Session, error)

	// Complete scores the session, credits its reward, mints any collectible
	// won and marks it Completed, all in one transaction.
	Complete(ctx context.Context, req CompleteRequest) (*CompletionResult, error)

	// Cancel marks an Active session Cancelled without scoring it.
	Cancel(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error)

	// GetActive returns the account's Active session.
	GetActive(ctx context.Context, accountID uuid.UUID) (*domain.Session, error)

	// ListSessions returns the account's sessions, newest first.
	ListSessions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Session, error)

	// GetWeeklyStats summarizes the Completed sessions of the trailing week.
	GetWeeklyStats(ctx context.Context, accountID uuid.UUID) (*domain.WeeklyStats, error)
}

// SleepServiceDeps groups the collaborators of a SleepService.
type SleepServiceDeps struct {
	DB         store.TxBeginner
	Accounts   store.AccountStore
	Sessions   store.SessionStore
	Currency   CurrencyService
	Inventory  InventoryService
	Scorer     scoring.Service
	Calculator reward.Calculator
	Clock      clock.Clock
	Events     events.EventEmitter
	Logger     *slog.Logger
}

// sleepServiceImpl implements the SleepService interface
type sleepServiceImpl struct {
	db         store.TxBeginner
	accounts   store.AccountStore
	sessions   store.SessionStore
	currency   CurrencyService
	inventory  InventoryService
	scorer     scoring.Service
	calculator reward.Calculator
	clock      clock.Clock
	events     events.EventEmitter
	logger     *slog.Logger
}

// NewSleepService creates a new SleepService.
// Scorer, Calculator and Clock fall back to their defaults; Events may be nil.
func NewSleepService(deps SleepServiceDeps) (SleepService, error) {
	if deps.DB == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if deps.Accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if deps.Sessions == nil {
		return nil, domain.NewValidationError("sessions", "cannot be nil", domain.ErrValidation)
	}
	if deps.Currency == nil {
		return nil, domain.NewValidationError("currency", "cannot be nil", domain.ErrValidation)
	}
	if deps.Inventory == nil {
		return nil, domain.NewValidationError("inventory", "cannot be nil", domain.ErrValidation)
	}

	if deps.Scorer == nil {
		deps.Scorer = scoring.NewDefaultService()
	}
	if deps.Calculator == nil {
		deps.Calculator = reward.NewDefaultCalculator()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &sleepServiceImpl{
		db:         deps.DB,
		accounts:   deps.Accounts,
		sessions:   deps.Sessions,
		currency:   deps.Currency,
		inventory:  deps.Inventory,
		scorer:     deps.Scorer,
		calculator: deps.Calculator,
		clock:      deps.Clock,
		events:     deps.Events,
		logger:     deps.Logger.With(slog.String("component", "sleep_service")),
	}, nil
}

// Start implements SleepService.Start
func (s *sleepServiceImpl) Start(
	ctx context.Context,
	accountID uuid.UUID,
	startTime time.Time,
	plannedWake *time.Time,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if startTime.IsZero() {
		startTime = s.clock.Now()
	}
	if plannedWake != nil && plannedWake.Before(startTime) {
		return nil, domain.NewValidationError("planned_wake_time", "must not be before start_time", domain.ErrValidation)
	}

	session, err := domain.NewSession(accountID, startTime, plannedWake)
	if err != nil {
		return nil, invalid("session", err)
	}

	// The partial unique index on active sessions makes this insert the
	// atomic check; a concurrent Start for the same account loses here.
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, NewServiceError("start_session", "failed to create session", err)
	}

	metrics.RecordSessionTransition(string(domain.SessionStatusActive))
	log.Info("sleep session started",
		slog.String("account_id", accountID.String()),
		slog.String("session_id", session.ID.String()))
	return session, nil
}

// Complete implements SleepService.Complete
func (s *sleepServiceImpl) Complete(ctx context.Context, req CompleteRequest) (*CompletionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("account_id", req.AccountID.String()),
		slog.String("session_id", req.SessionID.String()),
	)

	if len(req.Notes) > domain.MaxNotesLength {
		return nil, invalid("notes", domain.ErrNotesTooLong)
	}

	now := s.clock.Now()
	end := req.EndTime
	if end.IsZero() {
		end = now
	}

	var result *CompletionResult
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = s.completeInTx(ctx, tx, req, end, now)
		return err
	})
	if err != nil {
		log.Debug("session completion failed", slog.String("error", redact.Error(err)))
		return nil, NewServiceError("complete_session", "failed to complete session", err)
	}

	s.recordCompletion(ctx, log, result)
	return result, nil
}

func (s *sleepServiceImpl) completeInTx(
	ctx context.Context,
	tx *sql.Tx,
	req CompleteRequest,
	end, now time.Time,
) (*CompletionResult, error) {
	sessions := s.sessions.WithTx(tx)

	// The row lock makes a concurrent completion of the same session wait
	// here and then observe a terminal status.
	session, err := sessions.GetForUpdate(ctx, req.AccountID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, domain.ErrSessionNotActive
	}

	elapsed, err := session.ElapsedHours(end)
	if err != nil {
		return nil, err
	}
	hours := domain.ClampSessionHours(elapsed)

	result := &CompletionResult{Session: session}

	if hours >= domain.MinScoredSessionHours {
		if err := s.scoreAndReward(ctx, tx, session, hours, now, result); err != nil {
			return nil, err
		}
	}

	completion := domain.Completion{
		EndTime:        end,
		DurationHours:  hours,
		QualityScore:   result.Score.Total,
		RewardCurrency: result.Reward.Currency,
		Notes:          req.Notes,
	}
	if result.Collectible != nil {
		id := result.Collectible.ID
		completion.AwardedCollectibleID = &id
	}

	if err := session.Complete(completion); err != nil {
		return nil, err
	}
	if err := sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	return result, nil
}

// scoreAndReward fills result with the score and reward of a session long
// enough to count, crediting and minting through the transaction.
func (s *sleepServiceImpl) scoreAndReward(
	ctx context.Context,
	tx *sql.Tx,
	session *domain.Session,
	hours float64,
	now time.Time,
	result *CompletionResult,
) error {
	account, err := s.accounts.WithTx(tx).GetByID(ctx, session.AccountID)
	if err != nil {
		return err
	}
	loc := account.Location()

	recent, err := s.sessions.WithTx(tx).ListCompletedSince(ctx, session.AccountID, now.Add(-domain.StatsWindow))
	if err != nil {
		return err
	}

	result.Score = s.scorer.Score(hours, session.StartTime.In(loc), scoring.StartHours(recent, loc))
	result.Reward = s.calculator.Calculate(hours, result.Score.Total)

	if result.Reward.Currency > 0 {
		if _, err := s.currency.WithTx(tx).Credit(
			ctx,
			session.AccountID,
			result.Reward.Currency,
			domain.SourceSleepReward,
			session.ID.String(),
		); err != nil {
			return err
		}
	}

	if result.Reward.CollectibleTier != nil {
		minted, err := s.inventory.WithTx(tx).Mint(ctx, session.AccountID, *result.Reward.CollectibleTier, "")
		if err != nil {
			return err
		}
		result.Collectible = minted
	}

	return nil
}

// recordCompletion publishes the committed completion. Failures here are
// logged and never undo the completion.
func (s *sleepServiceImpl) recordCompletion(ctx context.Context, log *slog.Logger, result *CompletionResult) {
	session := result.Session

	metrics.RecordSessionTransition(string(domain.SessionStatusCompleted))
	metrics.ObserveQualityScore(result.Score.Total)
	if result.Reward.Currency > 0 {
		metrics.RecordLedgerEntry(string(domain.SourceSleepReward), result.Reward.Currency)
	}

	payload := events.SessionCompleted{
		AccountID:      session.AccountID,
		SessionID:      session.ID,
		StartTime:      session.StartTime,
		QualityScore:   result.Score.Total,
		RewardCurrency: result.Reward.Currency,
	}
	if session.DurationHours != nil {
		payload.DurationHours = *session.DurationHours
	}
	if result.Collectible != nil {
		metrics.RecordCollectibleMinted(string(result.Collectible.Tier))
		payload.CollectibleTier = string(result.Collectible.Tier)
	}

	log.Info("sleep session completed",
		slog.Float64("duration_hours", payload.DurationHours),
		slog.Float64("quality_score", payload.QualityScore),
		slog.Int64("reward_currency", payload.RewardCurrency),
		slog.String("collectible_tier", payload.CollectibleTier))

	if s.events == nil {
		return
	}

	event, err := events.NewEvent(events.TypeSessionCompleted, payload)
	if err != nil {
		log.Error("failed to build session completed event", slog.String("error", err.Error()))
		return
	}
	if err := s.events.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit session completed event", slog.String("error", redact.Error(err)))
	}
}

// Cancel implements SleepService.Cancel
func (s *sleepServiceImpl) Cancel(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error) {
	var session *domain.Session
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)

		var err error
		session, err = sessions.GetForUpdate(ctx, accountID, sessionID)
		if err != nil {
			return err
		}
		if err := session.Cancel(); err != nil {
			return err
		}
		return sessions.Update(ctx, session)
	})
	if err != nil {
		return nil, NewServiceError("cancel_session", "failed to cancel session", err)
	}

	metrics.RecordSessionTransition(string(domain.SessionStatusCancelled))
	logger.FromContextOrDefault(ctx, s.logger).Info("sleep session cancelled",
		slog.String("account_id", accountID.String()),
		slog.String("session_id", sessionID.String()))
	return session, nil
}

// GetActive implements SleepService.GetActive
func (s *sleepServiceImpl) GetActive(ctx context.Context, accountID uuid.UUID) (*domain.Session, error) {
	session, err := s.sessions.GetActive(ctx, accountID)
	if err != nil {
		return nil, NewServiceError("get_active_session", "failed to get active session", err)
	}
	return session, nil
}

// ListSessions implements SleepService.ListSessions
func (s *sleepServiceImpl) ListSessions(
	ctx context.Context,
	accountID uuid.UUID,
	limit, offset int,
) ([]domain.Session, error) {
	if limit <= 0 {
		limit = DefaultSessionPageSize
	}
	if offset < 0 {
		return nil, domain.NewValidationError("offset", "cannot be negative", domain.ErrValidation)
	}

	sessions, err := s.sessions.List(ctx, accountID, limit, offset)
	if err != nil {
		return nil, NewServiceError("list_sessions", "failed to list sessions", err)
	}
	return sessions, nil
}

// GetWeeklyStats implements SleepService.GetWeeklyStats
func (s *sleepServiceImpl) GetWeeklyStats(ctx context.Context, accountID uuid.UUID) (*domain.WeeklyStats, error) {
	since := s.clock.Now().Add(-domain.StatsWindow)

	sessions, err := s.sessions.ListCompletedSince(ctx, accountID, since)
	if err != nil {
		return nil, NewServiceError("weekly_stats", "failed to list completed sessions", err)
	}

	stats := domain.SummarizeSessions(sessions)
	return &stats, nil
}
