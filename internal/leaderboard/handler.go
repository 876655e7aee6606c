package leaderboard

import (
	"context"
	"log/slog"

	"github.com/phrazzld/sheepify-api/internal/events"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/redact"
)

// HandleEvent implements events.EventHandler. It records the quality score of
// every scored session.completed event. Redis failures are logged and
// swallowed so they never surface to the completing request.
func (l *Leaderboard) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeSessionCompleted {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, l.logger)

	var payload events.SessionCompleted
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to unmarshal session completed payload",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return nil
	}

	if payload.QualityScore <= 0 {
		return nil
	}

	// The week is that of the completion, not of the bedtime.
	if err := l.Record(ctx, payload.AccountID, payload.QualityScore, event.CreatedAt); err != nil {
		log.Warn("leaderboard update failed",
			slog.String("account_id", payload.AccountID.String()),
			slog.String("error", redact.Error(err)))
		return nil
	}

	log.Debug("leaderboard updated",
		slog.String("account_id", payload.AccountID.String()),
		slog.Float64("quality_score", payload.QualityScore))
	return nil
}

var _ events.EventHandler = (*Leaderboard)(nil)
