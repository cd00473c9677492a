package workflow

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeSink records reservations; RecordFunc overrides the behaviour.
type fakeSink struct {
	mu         sync.Mutex
	recorded   []ConfirmedReservation
	RecordFunc func(ctx context.Context, r ConfirmedReservation) error
}

func (s *fakeSink) RecordReservation(ctx context.Context, r ConfirmedReservation) error {
	if s.RecordFunc != nil {
		if err := s.RecordFunc(ctx, r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, r)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

// fakeProvider wraps a directory and lets tests replace ListTables.
type fakeProvider struct {
	*Directory
	ListFunc  func(ctx context.Context) ([]TableRecord, error)
	CheckFunc func(ctx context.Context, id uint) (bool, error)
}

func (p *fakeProvider) ListTables(ctx context.Context) ([]TableRecord, error) {
	if p.ListFunc != nil {
		return p.ListFunc(ctx)
	}
	return p.Directory.ListTables(ctx)
}

func (p *fakeProvider) CheckAvailability(ctx context.Context, id uint) (bool, error) {
	if p.CheckFunc != nil {
		return p.CheckFunc(ctx, id)
	}
	return p.Directory.CheckAvailability(ctx, id)
}

// fakeStore wraps a directory and lets tests replace any store call.
type fakeStore struct {
	*Directory
	ListFunc   func(ctx context.Context) ([]TableRecord, error)
	GetFunc    func(ctx context.Context, id uint) (TableRecord, error)
	UpdateFunc func(ctx context.Context, id uint, expected TableStatus, next TableRecord) (TableRecord, error)
}

func (s *fakeStore) ListTables(ctx context.Context) ([]TableRecord, error) {
	if s.ListFunc != nil {
		return s.ListFunc(ctx)
	}
	return s.Directory.ListTables(ctx)
}

func (s *fakeStore) GetTable(ctx context.Context, id uint) (TableRecord, error) {
	if s.GetFunc != nil {
		return s.GetFunc(ctx, id)
	}
	return s.Directory.GetTable(ctx, id)
}

func (s *fakeStore) UpdateTable(ctx context.Context, id uint, expected TableStatus, next TableRecord) (TableRecord, error) {
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, id, expected, next)
	}
	return s.Directory.UpdateTable(ctx, id, expected, next)
}

type fakeGate struct {
	AuthFunc func(ctx context.Context, username, password string) (Session, error)
}

func (g *fakeGate) Authenticate(ctx context.Context, username, password string) (Session, error) {
	if g.AuthFunc != nil {
		return g.AuthFunc(ctx, username, password)
	}
	return Session{Username: username, Role: "staff", Token: "token-" + username}, nil
}

type fakeAuditor struct {
	mu       sync.Mutex
	attempts []LoginAttempt
}

func (a *fakeAuditor) RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts = append(a.attempts, attempt)
	return nil
}

type listenerCall struct {
	table    TableRecord
	previous TableStatus
	counters Counters
}

type fakeListener struct {
	calls []listenerCall
}

func (l *fakeListener) TableChanged(table TableRecord, previous TableStatus, counters Counters) {
	l.calls = append(l.calls, listenerCall{table: table, previous: previous, counters: counters})
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 10, 14, 18, 5, 0, 0, time.Local)
	return func() time.Time { return now }
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// customerFloor mirrors the booking form sample: tables 2 and 7 are taken.
func customerFloor() []TableRecord {
	floor := make([]TableRecord, 0, 8)
	for id := uint(1); id <= 8; id++ {
		t := TableRecord{ID: id, Status: StatusFree}
		if id == 2 || id == 7 {
			t.Status = StatusReserved
			t.Occupancy = 2
			t.ReservedTime = strPtr("8:00 PM")
		}
		floor = append(floor, t)
	}
	return floor
}
