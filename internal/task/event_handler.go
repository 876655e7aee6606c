package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
)

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// GenerationEventHandler implements events.EventHandler. It turns each
// generation.requested event into a GenerationTask and submits it.
type GenerationEventHandler struct {
	accounts  AccountLister
	generator Generator
	runner    Submitter
	logger    *slog.Logger
}

// NewGenerationEventHandler creates a handler that submits sweeps to runner.
func NewGenerationEventHandler(
	accounts AccountLister,
	generator Generator,
	runner Submitter,
	logger *slog.Logger,
) *GenerationEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationEventHandler{
		accounts:  accounts,
		generator: generator,
		runner:    runner,
		logger:    logger.With("component", "generation_event_handler"),
	}
}

// HandleEvent ignores every event type but generation.requested.
func (h *GenerationEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeGenerationRequested {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, h.logger)

	var payload events.GenerationRequested
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := NewGenerationTask(payload.ScheduledAt, h.accounts, h.generator, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		log.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Debug("generation task submitted",
		"task_id", task.ID(),
		"event_id", event.ID,
		"scheduled_at", payload.ScheduledAt)
	return nil
}

// Ensure GenerationEventHandler implements events.EventHandler
var _ events.EventHandler = (*GenerationEventHandler)(nil)
