package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage is a step of the customer booking flow.
type Stage string

const (
	StageEntering              Stage = "entering"
	StageSelectingTable        Stage = "selecting_table"
	StageSelectingTimeAndNotes Stage = "selecting_time_and_notes"
	StageConfirmed             Stage = "confirmed"
)

// ReservationDraft holds what the customer entered so far.
type ReservationDraft struct {
	Date            string `json:"date"`
	PartySize       int    `json:"party_size"`
	SelectedTableID *uint  `json:"selected_table_id"`
	SelectedTime    string `json:"selected_time"`
	Notes           string `json:"notes"`
}

// TableOption is a table as the customer sees it.
type TableOption struct {
	ID           uint         `json:"id"`
	Position     Position     `json:"position"`
	Availability Availability `json:"availability"`
}

// ReservationView is a read-only projection of the booking flow.
type ReservationView struct {
	Stage     Stage                 `json:"stage"`
	Pending   bool                  `json:"pending"`
	Draft     ReservationDraft      `json:"draft"`
	Tables    []TableOption         `json:"tables"`
	Confirmed *ConfirmedReservation `json:"confirmed,omitempty"`
}

// ReservationOption configures a ReservationWorkflow.
type ReservationOption func(*ReservationWorkflow)

// WithClock overrides the clock used for date validation and timestamps.
func WithClock(now func() time.Time) ReservationOption {
	return func(w *ReservationWorkflow) { w.now = now }
}

// WithReservationTimeout bounds every provider and sink call.
func WithReservationTimeout(d time.Duration) ReservationOption {
	return func(w *ReservationWorkflow) { w.timeout = d }
}

// WithAvailabilityRecheck asks the provider again right before confirming.
func WithAvailabilityRecheck() ReservationOption {
	return func(w *ReservationWorkflow) { w.recheck = true }
}

// WithReservationLogger sets the logger for state changes.
func WithReservationLogger(l logrus.FieldLogger) ReservationOption {
	return func(w *ReservationWorkflow) { w.log = l }
}

// ReservationWorkflow drives one customer from date entry to a confirmed
// booking. Methods are safe for concurrent use; while a provider or sink call
// is outstanding every mutator fails with ErrInFlight.
type ReservationWorkflow struct {
	provider TableProvider
	sink     BookingSink
	now      func() time.Time
	newID    func() string
	timeout  time.Duration
	recheck  bool
	log      logrus.FieldLogger

	mu        sync.Mutex
	stage     Stage
	pending   bool
	draft     ReservationDraft
	tables    []TableOption
	confirmed *ConfirmedReservation
}

func NewReservationWorkflow(provider TableProvider, sink BookingSink, opts ...ReservationOption) *ReservationWorkflow {
	w := &ReservationWorkflow{
		provider: provider,
		sink:     sink,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logrus.StandardLogger(),
		stage:    StageEntering,
		draft:    ReservationDraft{PartySize: DefaultPartySize},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SubmitInitial validates date and party size, then loads the floor and
// moves on to table selection.
func (w *ReservationWorkflow) SubmitInitial(ctx context.Context, date string, partySize int) error {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return ErrInFlight
	}
	if w.stage != StageEntering {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if date == "" {
		w.mu.Unlock()
		return invalid("date", "please select a date")
	}
	_, upcoming, err := parseDate(date, w.now())
	if err != nil {
		w.mu.Unlock()
		return invalid("date", "expected YYYY-MM-DD")
	}
	if !upcoming {
		w.mu.Unlock()
		return invalid("date", "must not be in the past")
	}
	if partySize < 1 {
		w.mu.Unlock()
		return invalid("party_size", "must be at least 1")
	}
	w.pending = true
	w.mu.Unlock()

	var tables []TableRecord
	err = withTimeout(ctx, w.timeout, func(ctx context.Context) error {
		list, err := w.provider.ListTables(ctx)
		if err != nil {
			return &FetchError{Err: err}
		}
		tables = list
		return nil
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = false
	if err != nil {
		w.log.WithError(err).WithField("date", date).Warn("table lookup failed")
		return err
	}
	w.draft.Date = date
	w.draft.PartySize = partySize
	w.tables = make([]TableOption, 0, len(tables))
	for _, t := range tables {
		w.tables = append(w.tables, TableOption{ID: t.ID, Position: t.Position, Availability: t.Availability()})
	}
	if id := w.draft.SelectedTableID; id != nil && !w.selectable(*id) {
		w.draft.SelectedTableID = nil
	}
	w.stage = StageSelectingTable
	w.log.WithFields(logrus.Fields{"date": date, "party_size": partySize, "tables": len(tables)}).Info("reservation details submitted")
	return nil
}

// SelectTable picks a table from the snapshot taken at submission. Unknown or
// unavailable tables leave the state untouched and report false.
func (w *ReservationWorkflow) SelectTable(tableID uint) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return false, ErrInFlight
	}
	if w.stage != StageSelectingTable && w.stage != StageSelectingTimeAndNotes {
		return false, ErrInvalidTransition
	}
	if !w.selectable(tableID) {
		return false, nil
	}
	id := tableID
	w.draft.SelectedTableID = &id
	w.stage = StageSelectingTimeAndNotes
	return true, nil
}

// ChooseTime sets the reservation time. Only values from TimeSlots pass.
func (w *ReservationWorkflow) ChooseTime(slot string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return ErrInFlight
	}
	if w.stage != StageSelectingTimeAndNotes {
		return ErrInvalidTransition
	}
	if !IsTimeSlot(slot) {
		return invalid("time", "not an offered time slot")
	}
	w.draft.SelectedTime = slot
	return nil
}

// SetNotes stores free text for the restaurant.
func (w *ReservationWorkflow) SetNotes(notes string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return ErrInFlight
	}
	if w.stage != StageSelectingTimeAndNotes {
		return ErrInvalidTransition
	}
	w.draft.Notes = notes
	return nil
}

// Confirm hands the completed draft to the booking sink.
func (w *ReservationWorkflow) Confirm(ctx context.Context) (ConfirmedReservation, error) {
	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return ConfirmedReservation{}, ErrInFlight
	}
	if w.stage != StageSelectingTimeAndNotes {
		w.mu.Unlock()
		return ConfirmedReservation{}, ErrInvalidTransition
	}
	if w.draft.SelectedTableID == nil {
		w.mu.Unlock()
		return ConfirmedReservation{}, invalid("table", "please select a table")
	}
	if w.draft.SelectedTime == "" {
		w.mu.Unlock()
		return ConfirmedReservation{}, invalid("time", "please select a time")
	}
	rec := ConfirmedReservation{
		ID:          w.newID(),
		Date:        w.draft.Date,
		PartySize:   w.draft.PartySize,
		TableID:     *w.draft.SelectedTableID,
		Time:        w.draft.SelectedTime,
		Notes:       w.draft.Notes,
		ConfirmedAt: w.now(),
	}
	w.pending = true
	w.mu.Unlock()

	err := withTimeout(ctx, w.timeout, func(ctx context.Context) error {
		if w.recheck {
			ok, err := w.provider.CheckAvailability(ctx, rec.TableID)
			if err != nil {
				return &FetchError{Err: err}
			}
			if !ok {
				return ErrTableUnavailable
			}
		}
		if err := w.sink.RecordReservation(ctx, rec); err != nil {
			return &PersistError{Err: err}
		}
		return nil
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = false
	if errors.Is(err, ErrTableUnavailable) {
		w.markUnavailable(rec.TableID)
		w.draft.SelectedTableID = nil
		w.stage = StageSelectingTable
	}
	if err != nil {
		w.log.WithError(err).WithField("table_id", rec.TableID).Warn("reservation not confirmed")
		return ConfirmedReservation{}, err
	}
	w.confirmed = &rec
	w.stage = StageConfirmed
	w.log.WithFields(logrus.Fields{
		"reservation_id": rec.ID,
		"table_id":       rec.TableID,
		"date":           rec.Date,
		"time":           rec.Time,
	}).Info("reservation confirmed")
	return rec, nil
}

// Back steps to the previous screen without clearing anything.
func (w *ReservationWorkflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return ErrInFlight
	}
	switch w.stage {
	case StageSelectingTimeAndNotes:
		w.stage = StageSelectingTable
	case StageSelectingTable:
		w.stage = StageEntering
	default:
		return ErrInvalidTransition
	}
	return nil
}

// Reset starts over after a confirmed booking.
func (w *ReservationWorkflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return ErrInFlight
	}
	if w.stage != StageConfirmed {
		return ErrInvalidTransition
	}
	w.clear()
	return nil
}

// Cancel throws the draft away from any step.
func (w *ReservationWorkflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return ErrInFlight
	}
	w.clear()
	return nil
}

// Stage returns the current step.
func (w *ReservationWorkflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Pending reports whether a submission or confirmation is outstanding.
func (w *ReservationWorkflow) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// View projects the current state for display.
func (w *ReservationWorkflow) View() ReservationView {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := ReservationView{
		Stage:   w.stage,
		Pending: w.pending,
		Draft:   w.draft,
		Tables:  append([]TableOption(nil), w.tables...),
	}
	if id := w.draft.SelectedTableID; id != nil {
		sel := *id
		v.Draft.SelectedTableID = &sel
	}
	if w.confirmed != nil {
		rec := *w.confirmed
		v.Confirmed = &rec
	}
	return v
}

func (w *ReservationWorkflow) clear() {
	w.stage = StageEntering
	w.draft = ReservationDraft{PartySize: DefaultPartySize}
	w.tables = nil
	w.confirmed = nil
}

func (w *ReservationWorkflow) selectable(tableID uint) bool {
	for _, t := range w.tables {
		if t.ID == tableID {
			return t.Availability == Available
		}
	}
	return false
}

func (w *ReservationWorkflow) markUnavailable(tableID uint) {
	for i := range w.tables {
		if w.tables[i].ID == tableID {
			w.tables[i].Availability = Unavailable
		}
	}
}
