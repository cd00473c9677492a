package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/workflow"
)

type reservationEntry struct {
	wf       *workflow.ReservationWorkflow
	lastSeen time.Time
}

type dashboardEntry struct {
	wf       *workflow.TableStatusWorkflow
	lastSeen time.Time
}

// SessionRegistry keeps one workflow instance per client session and drops
// sessions that have been idle longer than IdleTTL.
type SessionRegistry struct {
	IdleTTL  time.Duration
	Interval time.Duration
	StopChan chan struct{}
	Logger   logrus.FieldLogger

	newReservation func() *workflow.ReservationWorkflow
	newDashboard   func(sessionID string) *workflow.TableStatusWorkflow
	now            func() time.Time

	mu           sync.Mutex
	reservations map[string]*reservationEntry
	dashboards   map[string]*dashboardEntry
	stopOnce     sync.Once
}

func NewSessionRegistry(
	newReservation func() *workflow.ReservationWorkflow,
	newDashboard func(sessionID string) *workflow.TableStatusWorkflow,
	idleTTL time.Duration,
) *SessionRegistry {
	return &SessionRegistry{
		IdleTTL:        idleTTL,
		Interval:       time.Minute,
		StopChan:       make(chan struct{}),
		Logger:         logrus.StandardLogger(),
		newReservation: newReservation,
		newDashboard:   newDashboard,
		now:            time.Now,
		reservations:   make(map[string]*reservationEntry),
		dashboards:     make(map[string]*dashboardEntry),
	}
}

func (r *SessionRegistry) CreateReservation() (string, *workflow.ReservationWorkflow) {
	id := uuid.NewString()
	wf := r.newReservation()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[id] = &reservationEntry{wf: wf, lastSeen: r.now()}
	return id, wf
}

// Reservation looks up a session and marks it as used.
func (r *SessionRegistry) Reservation(id string) (*workflow.ReservationWorkflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.reservations[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.wf, true
}

func (r *SessionRegistry) DropReservation(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[id]; !ok {
		return false
	}
	delete(r.reservations, id)
	return true
}

func (r *SessionRegistry) CreateDashboard() (string, *workflow.TableStatusWorkflow) {
	id := uuid.NewString()
	wf := r.newDashboard(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboards[id] = &dashboardEntry{wf: wf, lastSeen: r.now()}
	return id, wf
}

func (r *SessionRegistry) Dashboard(id string) (*workflow.TableStatusWorkflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.dashboards[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.wf, true
}

func (r *SessionRegistry) DropDashboard(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dashboards[id]; !ok {
		return false
	}
	delete(r.dashboards, id)
	return true
}

// Len returns the number of live reservation and dashboard sessions.
func (r *SessionRegistry) Len() (reservations, dashboards int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reservations), len(r.dashboards)
}

// Sweep drops idle sessions and returns how many went. Sessions with an
// outstanding call are kept.
func (r *SessionRegistry) Sweep() int {
	if r.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, e := range r.reservations {
		if e.lastSeen.Before(cutoff) && !e.wf.Pending() {
			delete(r.reservations, id)
			dropped++
		}
	}
	for id, e := range r.dashboards {
		if e.lastSeen.Before(cutoff) && !e.wf.Busy() {
			delete(r.dashboards, id)
			dropped++
		}
	}
	if dropped > 0 {
		r.Logger.WithField("dropped", dropped).Info("idle sessions removed")
	}
	return dropped
}

func (r *SessionRegistry) Start() {
	go func() {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.StopChan:
				return
			}
		}
	}()
}

func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.StopChan) })
}
