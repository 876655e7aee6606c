package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/leaderboard"
)

// LeaderboardReader is the read side of *leaderboard.Leaderboard.
type LeaderboardReader interface {
	Top(ctx context.Context, n int64) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, accountID uuid.UUID) (*leaderboard.Entry, error)
	CurrentWeek() string
}

// LeaderboardHandler exposes the weekly quality ranking.
type LeaderboardHandler struct {
	board  LeaderboardReader
	logger *slog.Logger
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(board LeaderboardReader, logger *slog.Logger) *LeaderboardHandler {
	if board == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("leaderboard cannot be nil for LeaderboardHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardHandler{
		board:  board,
		logger: logger.With(slog.String("component", "leaderboard_handler")),
	}
}

// Top handles GET /leaderboard?limit=.
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAccountID(w, r, h.logger); !ok {
		return
	}

	limit, err := getQueryInt(r, "limit", leaderboard.DefaultTopN, 1, leaderboard.MaxTopN)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entries, err := h.board.Top(r.Context(), int64(limit))
	if err != nil {
		HandleAPIError(w, r, err, "Leaderboard unavailable")
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LeaderboardResponse{
		Week:    h.board.CurrentWeek(),
		Entries: entries,
	})
}

// Me handles GET /leaderboard/me.
func (h *LeaderboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.board.Rank(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Leaderboard unavailable")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}
