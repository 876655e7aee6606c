package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/service"
)

// AuthHandler handles registration, login and the account profile.
type AuthHandler struct {
	accounts service.AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts service.AccountService, logger *slog.Logger) *AuthHandler {
	if accounts == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("account service cannot be nil for AuthHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		accounts: accounts,
		logger:   logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register. It opens the account, grants its
// starter collectible and returns an access token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.accounts.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		FarmName: req.FarmName,
		Timezone: req.Timezone,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to register account")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("account registered",
		slog.String("account_id", result.Account.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		AccountID: result.Account.ID,
		Token:     result.Token,
		Account:   result.Account,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		AccountID: result.Account.ID,
		Token:     result.Token,
		Account:   result.Account,
	})
}

// Me handles GET /account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load account")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, account)
}
