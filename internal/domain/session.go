package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a sleep session.
type SessionStatus string

// Possible session status values. Completed and Cancelled are terminal.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

const (
	// MaxSessionHours caps the duration credited to a single session.
	MaxSessionHours = 16.0

	// MinScoredSessionHours is the shortest session that is scored and rewarded.
	MinScoredSessionHours = 1.0

	// MaxNotesLength bounds the free-text notes attached on completion.
	MaxNotesLength = 500
)

// Session validation and transition errors
var (
	ErrEmptySessionID        = errors.New("session ID cannot be empty")
	ErrEmptySessionAccountID = errors.New("session account ID cannot be empty")
	ErrEmptyStartTime        = errors.New("session start time cannot be empty")
	ErrInvalidSessionStatus  = errors.New("invalid session status")
	ErrInvalidQualityScore   = errors.New("quality score must be between 0 and 100")
	ErrNegativeReward        = errors.New("reward cannot be negative")
	ErrNotesTooLong          = errors.New("notes must be at most 500 characters long")

	// ErrSessionNotActive is returned when a terminal session is asked to transition.
	ErrSessionNotActive = fmt.Errorf("%w: session is not active", ErrConflict)

	// ErrEndBeforeStart is returned when a session would end before it started.
	ErrEndBeforeStart = NewValidationError("end_time", "must not be before start_time", ErrValidation)
)

// Session is one recorded sleep attempt. It is created Active, transitions
// exactly once to Completed or Cancelled, and is never deleted.
type Session struct {
	ID                   uuid.UUID     `json:"id"`
	AccountID            uuid.UUID     `json:"account_id"`
	StartTime            time.Time     `json:"start_time"`
	PlannedWakeTime      *time.Time    `json:"planned_wake_time,omitempty"`
	EndTime              *time.Time    `json:"end_time,omitempty"`
	DurationHours        *float64      `json:"duration_hours,omitempty"`
	QualityScore         *float64      `json:"quality_score,omitempty"`
	RewardCurrency       int64         `json:"reward_currency"`
	AwardedCollectibleID *uuid.UUID    `json:"awarded_collectible_id,omitempty"`
	Notes                string        `json:"notes,omitempty"`
	Status               SessionStatus `json:"status"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// Completion holds the values written to a session when it completes.
type Completion struct {
	EndTime              time.Time
	DurationHours        float64
	QualityScore         float64
	RewardCurrency       int64
	AwardedCollectibleID *uuid.UUID
	Notes                string
}

// NewSession creates an Active session for the account starting at startTime.
func NewSession(accountID uuid.UUID, startTime time.Time, plannedWake *time.Time) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:              uuid.New(),
		AccountID:       accountID,
		StartTime:       startTime.UTC(),
		PlannedWakeTime: plannedWake,
		Status:          SessionStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the Session has valid data.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if s.AccountID == uuid.Nil {
		return ErrEmptySessionAccountID
	}

	if s.StartTime.IsZero() {
		return ErrEmptyStartTime
	}

	if !isValidSessionStatus(s.Status) {
		return ErrInvalidSessionStatus
	}

	if s.QualityScore != nil && (*s.QualityScore < 0 || *s.QualityScore > 100) {
		return ErrInvalidQualityScore
	}

	if s.RewardCurrency < 0 {
		return ErrNegativeReward
	}

	if len(s.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}

	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		return ErrEndBeforeStart
	}

	return nil
}

// IsActive reports whether the session can still transition.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// ElapsedHours returns the raw time between start and end in hours.
func (s *Session) ElapsedHours(end time.Time) (float64, error) {
	if end.Before(s.StartTime) {
		return 0, ErrEndBeforeStart
	}
	return end.Sub(s.StartTime).Hours(), nil
}

// Complete moves an Active session to Completed with the given results.
func (s *Session) Complete(c Completion) error {
	if !s.IsActive() {
		return ErrSessionNotActive
	}

	if c.EndTime.Before(s.StartTime) {
		return ErrEndBeforeStart
	}

	if len(c.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}

	end := c.EndTime.UTC()
	duration := c.DurationHours
	score := c.QualityScore

	s.EndTime = &end
	s.DurationHours = &duration
	s.QualityScore = &score
	s.RewardCurrency = c.RewardCurrency
	s.AwardedCollectibleID = c.AwardedCollectibleID
	s.Notes = c.Notes
	s.Status = SessionStatusCompleted
	s.UpdatedAt = time.Now().UTC()

	return s.Validate()
}

// Cancel moves an Active session to Cancelled.
func (s *Session) Cancel() error {
	if !s.IsActive() {
		return ErrSessionNotActive
	}

	s.Status = SessionStatusCancelled
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ClampSessionHours applies the anti-cheat cap on credited duration.
func ClampSessionHours(hours float64) float64 {
	if hours > MaxSessionHours {
		return MaxSessionHours
	}
	return hours
}

// isValidSessionStatus checks if the given status is a valid SessionStatus.
func isValidSessionStatus(status SessionStatus) bool {
	switch status {
	case SessionStatusActive, SessionStatusCompleted, SessionStatusCancelled:
		return true
	default:
		return false
	}
}
