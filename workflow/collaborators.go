package workflow

import (
	"context"
	"errors"
	"time"
)

// TableProvider is the read side used by the reservation flow.
type TableProvider interface {
	ListTables(ctx context.Context) ([]TableRecord, error)
	CheckAvailability(ctx context.Context, tableID uint) (bool, error)
}

// TableStore is the read/write side used by the status dashboard.
// UpdateTable replaces status, occupancy and time in one step, but only while
// the table still has the expected status.
type TableStore interface {
	ListTables(ctx context.Context) ([]TableRecord, error)
	GetTable(ctx context.Context, tableID uint) (TableRecord, error)
	UpdateTable(ctx context.Context, tableID uint, expected TableStatus, next TableRecord) (TableRecord, error)
}

// BookingSink receives confirmed reservations.
type BookingSink interface {
	RecordReservation(ctx context.Context, r ConfirmedReservation) error
}

// LoginAuditor receives login attempts. It never sees the password.
type LoginAuditor interface {
	RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error
}

// IdentityGate verifies staff credentials.
type IdentityGate interface {
	Authenticate(ctx context.Context, username, password string) (Session, error)
}

// StatusListener is told about every applied status change.
type StatusListener interface {
	TableChanged(table TableRecord, previous TableStatus, counters Counters)
}

// withTimeout runs fn under an optional deadline and folds deadline expiry
// into ErrTimeout.
func withTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
