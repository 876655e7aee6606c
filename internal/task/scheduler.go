package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/sheepify-api/internal/clock"
	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/robfig/cron/v3"
)

// Scheduler emits a generation.requested event on every tick of a cron
// schedule. It does no work itself; handlers registered on the emitter do.
type Scheduler struct {
	cron    *cron.Cron
	emitter events.EventEmitter
	clock   clock.Clock
	logger  *slog.Logger
}

// NewScheduler parses spec (standard five-field cron or a descriptor such as
// "@hourly") and returns a stopped Scheduler.
func NewScheduler(spec string, emitter events.EventEmitter, clk clock.Clock, logger *slog.Logger) (*Scheduler, error) {
	if emitter == nil {
		return nil, fmt.Errorf("emitter cannot be nil")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	cronLogger := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		emitter: emitter,
		clock:   clk,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid generation schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the schedule and returns a context that is done once a tick
// already in flight has returned.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info("scheduler stopped")
	return ctx
}

// tick emits one generation request.
func (s *Scheduler) tick() {
	ctx := context.Background()

	event, err := events.NewEvent(events.TypeGenerationRequested, events.GenerationRequested{
		ScheduledAt: s.clock.Now(),
	})
	if err != nil {
		s.logger.Error("failed to build generation event", "error", err)
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit generation event", "error", err, "event_id", event.ID)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

// Info implements cron.Logger, logging at debug level.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

// Error implements cron.Logger.
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
