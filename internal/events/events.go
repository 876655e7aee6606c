package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// TypeSessionCompleted is emitted after a sleep session is completed.
	TypeSessionCompleted = "session.completed"

	// TypeGenerationRequested asks the background workers to run a passive
	// currency generation sweep.
	TypeGenerationRequested = "generation.requested"
)

// Event is a fact published by a service. Payload holds the type-specific
// data serialized as JSON.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SessionCompleted is the payload of TypeSessionCompleted.
type SessionCompleted struct {
	AccountID       uuid.UUID `json:"account_id"`
	SessionID       uuid.UUID `json:"session_id"`
	StartTime       time.Time `json:"start_time"`
	DurationHours   float64   `json:"duration_hours"`
	QualityScore    float64   `json:"quality_score"`
	RewardCurrency  int64     `json:"reward_currency"`
	CollectibleTier string    `json:"collectible_tier,omitempty"`
}

// GenerationRequested is the payload of TypeGenerationRequested.
type GenerationRequested struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore event types they do not understand.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
