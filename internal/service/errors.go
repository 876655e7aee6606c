package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/sheepify-api/internal/domain"
)

// Error handling principles:
//  1. Expected conditions surface as domain sentinels (domain.ErrNotFound,
//     domain.ErrConflict, domain.ErrInsufficientFunds, domain.ErrValidation,
//     domain.ErrUnauthorized) somewhere in the chain, so callers use errors.Is.
//  2. Unexpected failures are wrapped in a ServiceError naming the operation.
//  3. The API layer maps the sentinels to HTTP status codes.

// ServiceError wraps a failure with the operation that produced it.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "complete_session", "debit")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err with operation context. Errors that already carry
// a domain classification are returned unchanged so their message stays
// meaningful to callers.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if isClassified(err) {
		return err
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// isClassified reports whether err maps to a client-facing domain error.
func isClassified(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrUnauthorized)
}

// invalid marks a domain validation failure on field so it classifies as
// domain.ErrValidation. Errors that already do are returned unchanged.
func invalid(field string, err error) error {
	if err == nil || errors.Is(err, domain.ErrValidation) {
		return err
	}
	message := strings.TrimPrefix(err.Error(), strings.ReplaceAll(field, "_", " ")+" ")
	return domain.NewValidationError(field, message, err)
}
