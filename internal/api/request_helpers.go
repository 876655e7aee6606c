package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
)

// getAccountIDFromContext returns the account the auth middleware stored in
// the request context.
func getAccountIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.AccountID(r.Context())
}

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// getQueryInt parses an optional integer query parameter. A missing value
// yields def; a present value must parse and lie within [lo, hi].
func getQueryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", domain.ErrValidation)
	}
	if v < lo || v > hi {
		return 0, domain.NewValidationError(name,
			"must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi), domain.ErrValidation)
	}
	return v, nil
}

// requireAccountID writes a 401 and returns false when the request carries no
// authenticated account.
func requireAccountID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	accountID, ok := getAccountIDFromContext(r)
	if !ok {
		logger.FromContextOrDefault(r.Context(), log).Warn("account ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return accountID, true
}

// handleAccountIDAndPathUUID extracts both the authenticated account and the
// named path UUID, writing an error response and returning false if either
// is missing or malformed.
func handleAccountIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	accountID, ok := requireAccountID(w, r, log)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), log).Warn("invalid "+paramName,
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return accountID, pathID, true
}

// decodeAndValidate decodes the JSON body into req and validates it, writing
// a 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return false
	}
	return true
}
