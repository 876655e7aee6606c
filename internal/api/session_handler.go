package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/service"
)

// MaxSessionPageSize bounds the limit query parameter of ListSessions.
const MaxSessionPageSize = 100

// SessionHandler handles the sleep session lifecycle.
type SessionHandler struct {
	sleep  service.SleepService
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sleep service.SleepService, logger *slog.Logger) *SessionHandler {
	if sleep == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sleep service cannot be nil for SessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sleep:  sleep,
		logger: logger.With(slog.String("component", "session_handler")),
	}
}

// hasBody reports whether the request carries a body worth decoding. Start
// and Complete accept an empty body.
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

// Start handles POST /sessions.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	var req StartSessionRequest
	if hasBody(r) && !decodeAndValidate(w, r, &req) {
		return
	}

	var startTime time.Time
	if req.StartTime != nil {
		startTime = *req.StartTime
	}

	session, err := h.sleep.Start(r.Context(), accountID, startTime, req.PlannedWakeTime)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start sleep session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, session)
}

// Complete handles POST /sessions/{id}/complete. The response carries the
// score breakdown, the reward and any collectible won.
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	accountID, sessionID, ok := handleAccountIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req CompleteSessionRequest
	if hasBody(r) && !decodeAndValidate(w, r, &req) {
		return
	}

	completion := service.CompleteRequest{
		AccountID: accountID,
		SessionID: sessionID,
		Notes:     req.Notes,
	}
	if req.EndTime != nil {
		completion.EndTime = *req.EndTime
	}

	result, err := h.sleep.Complete(r.Context(), completion)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete sleep session")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Float64("quality_score", result.Score.Total),
		slog.Int64("reward", result.Reward.Currency))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Cancel handles POST /sessions/{id}/cancel.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID, sessionID, ok := handleAccountIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	session, err := h.sleep.Cancel(r.Context(), accountID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to cancel sleep session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// GetActive handles GET /sessions/active.
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	session, err := h.sleep.GetActive(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load active session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// List handles GET /sessions?limit=&offset=.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	limit, err := getQueryInt(r, "limit", service.DefaultSessionPageSize, 1, MaxSessionPageSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := getQueryInt(r, "offset", 0, 0, 1<<20)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sessions, err := h.sleep.ListSessions(r.Context(), accountID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionListResponse{
		Sessions: sessions,
		Limit:    limit,
		Offset:   offset,
	})
}

// Stats handles GET /sessions/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.sleep.GetWeeklyStats(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute weekly stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
