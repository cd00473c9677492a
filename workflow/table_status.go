package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DashboardStage is a step of the staff session.
type DashboardStage string

const (
	StageLoggedOut      DashboardStage = "logged_out"
	StageAuthenticating DashboardStage = "authenticating"
	StageDashboard      DashboardStage = "dashboard"
)

// StatusChange is a requested status mutation. Occupancy and ReservedTime are
// optional; see TableStatusWorkflow.SetStatus for how omitted values resolve.
type StatusChange struct {
	Status       TableStatus `json:"status"`
	Occupancy    *int        `json:"guests"`
	ReservedTime *string     `json:"time"`
}

// DashboardView is a read-only projection of the staff session.
type DashboardView struct {
	Stage           DashboardStage `json:"stage"`
	Username        string         `json:"username,omitempty"`
	Tables          []TableRecord  `json:"tables"`
	SelectedTableID *uint          `json:"selected_table_id"`
	StatusMenuOpen  bool           `json:"status_menu_open"`
	Counters        Counters       `json:"counters"`
}

// StatusOption configures a TableStatusWorkflow.
type StatusOption func(*TableStatusWorkflow)

// WithStatusClock overrides the clock used for default seating times.
func WithStatusClock(now func() time.Time) StatusOption {
	return func(w *TableStatusWorkflow) { w.now = now }
}

// WithStatusTimeout bounds every gate and store call.
func WithStatusTimeout(d time.Duration) StatusOption {
	return func(w *TableStatusWorkflow) { w.timeout = d }
}

// WithStrictDetails requires guests and time when a free table becomes
// reserved or occupied.
func WithStrictDetails() StatusOption {
	return func(w *TableStatusWorkflow) { w.strict = true }
}

// WithListener registers a listener for applied status changes.
func WithListener(l StatusListener) StatusOption {
	return func(w *TableStatusWorkflow) { w.listener = l }
}

// WithStatusLogger sets the logger for state changes.
func WithStatusLogger(l logrus.FieldLogger) StatusOption {
	return func(w *TableStatusWorkflow) { w.log = l }
}

// TableStatusWorkflow drives one staff session from login through table
// status changes. Methods are safe for concurrent use.
type TableStatusWorkflow struct {
	store    TableStore
	gate     IdentityGate
	audit    LoginAuditor
	listener StatusListener
	now      func() time.Time
	timeout  time.Duration
	strict   bool
	log      logrus.FieldLogger

	mu       sync.Mutex
	stage    DashboardStage
	busy     bool
	session  *Session
	selected *uint
	menuOpen bool
}

// NewTableStatusWorkflow builds a logged out session. audit may be nil.
func NewTableStatusWorkflow(store TableStore, gate IdentityGate, audit LoginAuditor, opts ...StatusOption) *TableStatusWorkflow {
	w := &TableStatusWorkflow{
		store: store,
		gate:  gate,
		audit: audit,
		now:   time.Now,
		log:   logrus.StandardLogger(),
		stage: StageLoggedOut,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Login hands the credentials to the identity gate and opens the dashboard on
// success. The credentials are not kept.
func (w *TableStatusWorkflow) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)

	w.mu.Lock()
	if w.stage == StageAuthenticating {
		w.mu.Unlock()
		return Session{}, ErrInFlight
	}
	if w.stage != StageLoggedOut {
		w.mu.Unlock()
		return Session{}, ErrInvalidTransition
	}
	if username == "" {
		w.mu.Unlock()
		return Session{}, invalid("username", "required")
	}
	if password == "" {
		w.mu.Unlock()
		return Session{}, invalid("password", "required")
	}
	w.stage = StageAuthenticating
	w.mu.Unlock()

	var sess Session
	err := withTimeout(ctx, w.timeout, func(ctx context.Context) error {
		s, err := w.gate.Authenticate(ctx, username, password)
		if err != nil {
			return gateFailure(err)
		}
		sess = s
		return nil
	})
	var ae *AuthError
	rejected := errors.As(err, &ae)
	if err == nil || rejected {
		w.recordAttempt(ctx, username, err == nil)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stage = StageLoggedOut
		entry := w.log.WithError(err).WithField("username", username)
		if rejected {
			entry.Warn("staff login rejected")
		} else {
			entry.Error("identity gate unavailable")
		}
		return Session{}, err
	}
	w.session = &sess
	w.stage = StageDashboard
	w.log.WithField("username", username).Info("staff logged in")
	return sess, nil
}

// SelectTable opens the status menu for a table, replacing any open menu.
func (w *TableStatusWorkflow) SelectTable(ctx context.Context, tableID uint) error {
	if err := w.begin(); err != nil {
		return err
	}
	err := withTimeout(ctx, w.timeout, func(ctx context.Context) error {
		if _, err := w.store.GetTable(ctx, tableID); err != nil {
			return storeFailure(err, asFetch)
		}
		return nil
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err != nil {
		return err
	}
	id := tableID
	w.selected = &id
	w.menuOpen = true
	return nil
}

// CloseMenu dismisses the status menu without changing anything.
func (w *TableStatusWorkflow) CloseMenu() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy || w.stage == StageAuthenticating {
		return ErrInFlight
	}
	if w.stage != StageDashboard {
		return ErrInvalidTransition
	}
	w.selected = nil
	w.menuOpen = false
	return nil
}

// SetStatus applies a status change to one table. Moving to free clears guests
// and time. Moving to reserved or occupied uses the supplied details, falls
// back to the table's current details when it is not free, and otherwise
// defaults to one guest at the current time, unless strict details are
// required.
func (w *TableStatusWorkflow) SetStatus(ctx context.Context, tableID uint, change StatusChange) (TableRecord, error) {
	if !change.Status.Valid() {
		return TableRecord{}, invalid("status", "must be free, reserved or occupied")
	}
	if err := w.begin(); err != nil {
		return TableRecord{}, err
	}

	var (
		previous TableStatus
		updated  TableRecord
		counters *Counters
	)
	err := withTimeout(ctx, w.timeout, func(ctx context.Context) error {
		cur, err := w.store.GetTable(ctx, tableID)
		if err != nil {
			return storeFailure(err, asFetch)
		}
		next, err := w.resolve(cur, change)
		if err != nil {
			return err
		}
		updated, err = w.store.UpdateTable(ctx, tableID, cur.Status, next)
		if err != nil {
			return storeFailure(err, asPersist)
		}
		previous = cur.Status
		if list, err := w.store.ListTables(ctx); err == nil {
			c := CountTables(list)
			counters = &c
		} else {
			w.log.WithError(err).WithField("table_id", tableID).Warn("counters unavailable, change not broadcast")
		}
		return nil
	})

	w.mu.Lock()
	w.busy = false
	if err != nil {
		w.mu.Unlock()
		return TableRecord{}, err
	}
	w.selected = nil
	w.menuOpen = false
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{
		"table_id": tableID,
		"from":     previous,
		"to":       updated.Status,
		"guests":   updated.Occupancy,
	}).Info("table status changed")
	if w.listener != nil && counters != nil {
		w.listener.TableChanged(updated, previous, *counters)
	}
	return updated, nil
}

// Logout ends the session. The table directory is left as it is.
func (w *TableStatusWorkflow) Logout() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy || w.stage == StageAuthenticating {
		return ErrInFlight
	}
	if w.session != nil {
		w.log.WithField("username", w.session.Username).Info("staff logged out")
	}
	w.stage = StageLoggedOut
	w.session = nil
	w.selected = nil
	w.menuOpen = false
	return nil
}

// Stage returns the current step.
func (w *TableStatusWorkflow) Stage() DashboardStage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Busy reports whether a login or table update is outstanding.
func (w *TableStatusWorkflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy || w.stage == StageAuthenticating
}

// Session returns the authenticated session, if any.
func (w *TableStatusWorkflow) Session() (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return Session{}, false
	}
	return *w.session, true
}

// View projects the session and the current floor. Counters come from the
// same listing as the tables.
func (w *TableStatusWorkflow) View(ctx context.Context) (DashboardView, error) {
	w.mu.Lock()
	v := DashboardView{
		Stage:          w.stage,
		StatusMenuOpen: w.menuOpen,
		Tables:         []TableRecord{},
	}
	if w.session != nil {
		v.Username = w.session.Username
	}
	if w.selected != nil {
		id := *w.selected
		v.SelectedTableID = &id
	}
	w.mu.Unlock()

	if v.Stage != StageDashboard {
		return v, nil
	}
	err := withTimeout(ctx, w.timeout, func(ctx context.Context) error {
		list, err := w.store.ListTables(ctx)
		if err != nil {
			return &FetchError{Err: err}
		}
		v.Tables = list
		return nil
	})
	if err != nil {
		return DashboardView{}, err
	}
	v.Counters = CountTables(v.Tables)
	return v, nil
}

// begin claims the session for a store call.
func (w *TableStatusWorkflow) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy || w.stage == StageAuthenticating {
		return ErrInFlight
	}
	if w.stage != StageDashboard {
		return ErrInvalidTransition
	}
	w.busy = true
	return nil
}

func (w *TableStatusWorkflow) resolve(cur TableRecord, change StatusChange) (TableRecord, error) {
	next := TableRecord{ID: cur.ID, Position: cur.Position, Status: change.Status}
	if change.Status == StatusFree {
		return next, nil
	}
	carry := cur.Status != StatusFree

	switch {
	case change.Occupancy != nil:
		if *change.Occupancy < 1 {
			return TableRecord{}, invalid("guests", "must be at least 1")
		}
		next.Occupancy = *change.Occupancy
	case carry && cur.Occupancy > 0:
		next.Occupancy = cur.Occupancy
	case w.strict:
		return TableRecord{}, invalid("guests", "required for a reserved or occupied table")
	default:
		next.Occupancy = 1
	}

	switch {
	case change.ReservedTime != nil:
		label, ok := parseTimeLabel(*change.ReservedTime)
		if !ok {
			return TableRecord{}, invalid("time", "expected a time such as 7:30 PM")
		}
		next.ReservedTime = &label
	case carry && cur.ReservedTime != nil:
		label := *cur.ReservedTime
		next.ReservedTime = &label
	case w.strict:
		return TableRecord{}, invalid("time", "required for a reserved or occupied table")
	default:
		label := w.now().Format(TimeLayout)
		next.ReservedTime = &label
	}
	return next, nil
}

func (w *TableStatusWorkflow) recordAttempt(ctx context.Context, username string, success bool) {
	if w.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	attempt := LoginAttempt{Username: username, Success: success, At: w.now()}
	if err := w.audit.RecordLoginAttempt(ctx, attempt); err != nil {
		w.log.WithError(err).WithField("username", username).Warn("login attempt not recorded")
	}
}
