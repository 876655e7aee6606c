package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/leaderboard"
	"github.com/phrazzld/sheepify-api/internal/service"
	"github.com/phrazzld/sheepify-api/internal/service/auth"
	"github.com/phrazzld/sheepify-api/internal/store"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps an error to the HTTP status code it deserves by
// matching the domain sentinels in its chain. Anything unclassified is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Domain
// validation messages are written for users and pass through; everything
// else is replaced by a fixed text so internal details never leak.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return unexpectedErrorMessage
	}

	var validationErr *domain.ValidationError
	var fieldErrs validator.ValidationErrors
	var fundsErr *domain.InsufficientFundsError

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.As(err, &validationErr):
		return capitalize(validationErr.Error())
	case errors.As(err, &fieldErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, store.ErrActiveSessionNotFound):
		return "No active session"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, store.ErrCollectibleNotFound):
		return "Collectible not found"
	case errors.Is(err, store.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, leaderboard.ErrNotRanked):
		return "Not ranked this week"
	case errors.Is(err, domain.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrActiveSessionExists):
		return "A sleep session is already active"
	case errors.Is(err, domain.ErrSessionNotActive):
		return "Session is not active"
	case errors.Is(err, store.ErrUsernameTaken):
		return "Username already taken"
	case errors.Is(err, domain.ErrConflict):
		return "Conflict with current state"

	case errors.As(err, &fundsErr):
		return fmt.Sprintf("Insufficient funds: balance %d, requested %d", fundsErr.Balance, fundsErr.Requested)
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient funds"

	default:
		return unexpectedErrorMessage
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted error. defaultMsg, when set, replaces the generic text of a 500.
// Rejected credentials are logged at WARN.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError turns validator output into a short message naming
// the first offending field by its JSON name.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too short or too small"
	case "max", "lte":
		return "too long or too large"
	case "gt":
		return "must be greater than zero"
	case "oneof":
		return "invalid value"
	case "alphanumunicode", "printascii":
		return "contains invalid characters"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
