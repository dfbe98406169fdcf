// Package apperr defines the error kinds booking operations return to their callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

var (
	// ErrNotFound is returned when a referenced reservation, coupon or property is absent.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition is returned when a reservation cannot move to the requested status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string         `json:"field,omitempty"`
	Reason string         `json:"reason"`
	Detail map[string]any `json:"detail,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ParseDate parses a YYYY-MM-DD input field, reporting a ValidationError for field on failure.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, Invalid(field, "is required")
	}
	t, err := dates.Parse(s)
	if err != nil {
		return time.Time{}, Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// ConflictError reports that the requested dates are occupied at write time.
type ConflictError struct {
	Conflicts []models.Conflict `json:"conflicts"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dates unavailable: %d conflicting period(s)", len(e.Conflicts))
}

// CouponError reports an explicitly supplied coupon that cannot be used.
type CouponError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("invalid coupon %s: %s", e.Code, e.Reason)
}

// TransitionError reports a rejected status transition with the states involved.
type TransitionError struct {
	From models.ReservationStatus `json:"from"`
	To   models.ReservationStatus `json:"to"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move reservation from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Status maps an error to the HTTP status a handler should answer with.
func Status(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		cp *CouponError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve), errors.As(err, &cp):
		return http.StatusBadRequest
	case errors.As(err, &ce), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable identifier for the error kind.
func Code(err error) string {
	var (
		ve *ValidationError
		ce *ConflictError
		cp *CouponError
	)
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &ce):
		return "date_conflict"
	case errors.As(err, &cp):
		return "invalid_coupon"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal_error"
	}
}
