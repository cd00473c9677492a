package workflow

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout           = errors.New("operation timed out")
	ErrInFlight          = errors.New("another request is still in progress")
	ErrInvalidTransition = errors.New("operation not allowed in current step")
	ErrTableNotFound     = errors.New("table not found")
	ErrTableUnavailable  = errors.New("table is no longer available")
	ErrStaleStatus       = errors.New("table status changed concurrently")

	// ErrInvalidCredentials is what an IdentityGate returns when it rejects
	// the username or password. Any other gate error is an outage.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a user-correctable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// FetchError wraps a failed read from the table store or the identity gate.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch failed: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// PersistError wraps a failed write to the booking sink or the table store.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return "persist failed: " + e.Err.Error() }
func (e *PersistError) Unwrap() error { return e.Err }

// AuthError wraps an Identity Gate rejection.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// storeFailure keeps the directory's own errors as they are and wraps
// anything else with wrap.
func storeFailure(err error, wrap func(error) error) error {
	if errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrStaleStatus) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		IsValidation(err) {
		return err
	}
	return wrap(err)
}

func asFetch(err error) error   { return &FetchError{Err: err} }
func asPersist(err error) error { return &PersistError{Err: err} }

// gateFailure tells a credential rejection apart from an unreachable gate.
func gateFailure(err error) error {
	var ae *AuthError
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, ErrInvalidCredentials):
		return &AuthError{Err: err}
	default:
		return storeFailure(err, asFetch)
	}
}
