package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

const sessionColumns = `id, account_id, start_time, planned_wake_time, end_time, duration_hours,
	quality_score, reward_currency, awarded_collectible_id, notes, status, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session     domain.Session
		plannedWake sql.NullTime
		endTime     sql.NullTime
		duration    sql.NullFloat64
		score       sql.NullFloat64
		awardedID   uuid.NullUUID
		status      string
	)

	if err := row.Scan(
		&session.ID,
		&session.AccountID,
		&session.StartTime,
		&plannedWake,
		&endTime,
		&duration,
		&score,
		&session.RewardCurrency,
		&awardedID,
		&session.Notes,
		&status,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if plannedWake.Valid {
		t := plannedWake.Time
		session.PlannedWakeTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		session.EndTime = &t
	}
	if duration.Valid {
		d := duration.Float64
		session.DurationHours = &d
	}
	if score.Valid {
		q := score.Float64
		session.QualityScore = &q
	}
	if awardedID.Valid {
		id := awardedID.UUID
		session.AwardedCollectibleID = &id
	}
	session.Status = domain.SessionStatus(status)

	return &session, nil
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		session.ID,
		session.AccountID,
		session.StartTime,
		session.PlannedWakeTime,
		session.EndTime,
		session.DurationHours,
		session.QualityScore,
		session.RewardCurrency,
		nullUUID(session.AwardedCollectibleID),
		session.Notes,
		string(session.Status),
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, activeSessionConstraint) {
			log.Debug("account already has an active session",
				slog.String("account_id", session.AccountID.String()))
			return store.ErrActiveSessionExists
		}
		if IsForeignKeyViolation(err) {
			log.Warn("session references unknown account",
				slog.String("account_id", session.AccountID.String()))
			return store.ErrAccountNotFound
		}
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("session started",
		slog.String("session_id", session.ID.String()),
		slog.String("account_id", session.AccountID.String()))
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(ctx context.Context, accountID, sessionID uuid.UUID) (*domain.Session, error) {
	return s.getOne(ctx, accountID, sessionID, false)
}

// GetForUpdate implements store.SessionStore.GetForUpdate
func (s *PostgresSessionStore) GetForUpdate(
	ctx context.Context,
	accountID, sessionID uuid.UUID,
) (*domain.Session, error) {
	return s.getOne(ctx, accountID, sessionID, true)
}

func (s *PostgresSessionStore) getOne(
	ctx context.Context,
	accountID, sessionID uuid.UUID,
	lock bool,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND account_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}

	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("session not found",
				slog.String("session_id", sessionID.String()),
				slog.String("account_id", accountID.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// GetActive implements store.SessionStore.GetActive
func (s *PostgresSessionStore) GetActive(ctx context.Context, accountID uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 AND status = 'active'`,
		accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrActiveSessionNotFound
		}
		log.Error("failed to get active session",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// Update implements store.SessionStore.Update
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET end_time = $1,
			duration_hours = $2,
			quality_score = $3,
			reward_currency = $4,
			awarded_collectible_id = $5,
			notes = $6,
			status = $7,
			updated_at = $8
		WHERE id = $9 AND account_id = $10
	`,
		session.EndTime,
		session.DurationHours,
		session.QualityScore,
		session.RewardCurrency,
		nullUUID(session.AwardedCollectibleID),
		session.Notes,
		string(session.Status),
		session.UpdatedAt,
		session.ID,
		session.AccountID,
	)
	if err != nil {
		log.Error("failed to update session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrSessionNotFound); err != nil {
		log.Debug("session not found for update",
			slog.String("session_id", session.ID.String()))
		return err
	}

	log.Info("session updated",
		slog.String("session_id", session.ID.String()),
		slog.String("status", string(session.Status)))
	return nil
}

// ListCompletedSince implements store.SessionStore.ListCompletedSince
func (s *PostgresSessionStore) ListCompletedSince(
	ctx context.Context,
	accountID uuid.UUID,
	since time.Time,
) ([]domain.Session, error) {
	return s.list(ctx, accountID, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = $1 AND status = 'completed' AND start_time >= $2
		ORDER BY start_time ASC
	`, accountID, since)
}

// List implements store.SessionStore.List
func (s *PostgresSessionStore) List(
	ctx context.Context,
	accountID uuid.UUID,
	limit, offset int,
) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	return s.list(ctx, accountID, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE account_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
}

func (s *PostgresSessionStore) list(
	ctx context.Context,
	accountID uuid.UUID,
	query string,
	args ...any,
) ([]domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query sessions",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row", slog.String("error", err.Error()))
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning sessions", slog.String("error", err.Error()))
		return nil, err
	}

	return sessions, nil
}

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
