package task

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/metrics"
	"github.com/phrazzld/sheepify-api/internal/redact"
)

// DefaultGenerationPageSize is how many account IDs a sweep loads per query.
const DefaultGenerationPageSize = 500

// Common errors
var (
	ErrNilAccountLister = errors.New("account lister cannot be nil")
	ErrNilGenerator     = errors.New("generator cannot be nil")
)

// AccountLister pages through account IDs in ID order.
type AccountLister interface {
	ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Generator credits one account with its hourly passive generation and
// returns the amount credited.
type Generator interface {
	Generate(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// generationPayload represents the serialized data stored in the task
type generationPayload struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// GenerationSummary reports what one sweep did.
type GenerationSummary struct {
	Accounts int
	Credited int
	Failed   int
	Total    int64
}

// GenerationTask credits passive generation to every account. Each account
// is credited in its own transaction, so one failing account does not stop
// the sweep.
type GenerationTask struct {
	id          uuid.UUID
	scheduledAt time.Time
	accounts    AccountLister
	generator   Generator
	pageSize    int
	logger      *slog.Logger
	status      atomic.Value
	summary     GenerationSummary
}

// NewGenerationTask creates a sweep for the tick scheduled at scheduledAt.
func NewGenerationTask(
	scheduledAt time.Time,
	accounts AccountLister,
	generator Generator,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if accounts == nil {
		return nil, ErrNilAccountLister
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &GenerationTask{
		id:          uuid.New(),
		scheduledAt: scheduledAt,
		accounts:    accounts,
		generator:   generator,
		pageSize:    DefaultGenerationPageSize,
		logger:      logger.With("task_type", TaskTypeGeneration),
	}
	t.status.Store(TaskStatusPending)
	return t, nil
}

// ID returns the task's unique identifier
func (t *GenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *GenerationTask) Type() string {
	return TaskTypeGeneration
}

// Payload returns the task data as a byte slice
func (t *GenerationTask) Payload() []byte {
	data, err := json.Marshal(generationPayload{ScheduledAt: t.scheduledAt})
	if err != nil {
		t.logger.Error("failed to marshal payload", "error", err)
		return nil
	}
	return data
}

// Status returns the current task status
func (t *GenerationTask) Status() TaskStatus {
	return t.status.Load().(TaskStatus)
}

// Summary returns the outcome of the last Execute.
func (t *GenerationTask) Summary() GenerationSummary {
	return t.summary
}

// Execute runs the sweep. It fails only when the account listing fails or
// ctx is cancelled; per-account failures are counted and logged.
func (t *GenerationTask) Execute(ctx context.Context) error {
	started := time.Now()
	t.status.Store(TaskStatusProcessing)
	log := t.logger.With("task_id", t.id, "scheduled_at", t.scheduledAt)

	err := t.sweep(ctx, log)

	metrics.RecordGenerationRun(time.Since(started), err == nil)
	if err != nil {
		t.status.Store(TaskStatusFailed)
		log.Error("generation sweep aborted",
			"error", redact.Error(err),
			"accounts", t.summary.Accounts,
			"credited", t.summary.Credited)
		return err
	}

	t.status.Store(TaskStatusCompleted)
	log.Info("generation sweep finished",
		"accounts", t.summary.Accounts,
		"credited", t.summary.Credited,
		"failed", t.summary.Failed,
		"total", t.summary.Total,
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

func (t *GenerationTask) sweep(ctx context.Context, log *slog.Logger) error {
	t.summary = GenerationSummary{}
	after := uuid.Nil

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ids, err := t.accounts.ListIDs(ctx, after, t.pageSize)
		if err != nil {
			return err
		}

		for _, id := range ids {
			t.summary.Accounts++

			amount, err := t.generator.Generate(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				t.summary.Failed++
				log.Warn("generation failed for account",
					"account_id", id,
					"error", redact.Error(err))
				continue
			}
			if amount > 0 {
				t.summary.Credited++
				t.summary.Total += amount
			}
		}

		if len(ids) < t.pageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}
