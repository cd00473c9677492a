package controllers

import (
	"errors"
	"net/http"

	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/workflow"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionMismatch = errors.New("token does not belong to this session")
	ErrNotLoggedIn     = errors.New("session is not logged in")
	ErrDuplicateUser   = errors.New("username or email already registered")
)

// statusFor maps workflow and service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		ve *workflow.ValidationError
		ae *workflow.AuthError
		fe *workflow.FetchError
		pe *workflow.PersistError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrTableNotFound),
		errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInFlight),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrTableUnavailable),
		errors.Is(err, workflow.ErrStaleStatus),
		errors.Is(err, ErrDuplicateUser):
		return http.StatusConflict
	case errors.As(err, &ae), errors.Is(err, ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, ErrSessionMismatch):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &fe), errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
