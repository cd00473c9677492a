package workflow

import "time"

// TableStatus is the staff-facing state of a table.
type TableStatus string

const (
	StatusFree     TableStatus = "free"
	StatusReserved TableStatus = "reserved"
	StatusOccupied TableStatus = "occupied"
)

// Valid reports whether s is one of the known statuses.
func (s TableStatus) Valid() bool {
	switch s {
	case StatusFree, StatusReserved, StatusOccupied:
		return true
	}
	return false
}

// Availability is the customer-facing projection of a TableStatus.
type Availability string

const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
)

// Position is a floor plan coordinate. Only the presentation layer reads it.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TableRecord is a single table in the directory. Status, Occupancy and
// ReservedTime always change together.
type TableRecord struct {
	ID           uint        `json:"id"`
	Position     Position    `json:"position"`
	Status       TableStatus `json:"status"`
	Occupancy    int         `json:"guests"`
	ReservedTime *string     `json:"time"`
}

// Availability projects the record onto the customer view.
func (t TableRecord) Availability() Availability {
	if t.Status == StatusFree {
		return Available
	}
	return Unavailable
}

// clone copies the record so the caller never shares the time pointer.
func (t TableRecord) clone() TableRecord {
	if t.ReservedTime != nil {
		v := *t.ReservedTime
		t.ReservedTime = &v
	}
	return t
}

// Counters are the dashboard summary numbers. They are always derived from a
// listing and never stored.
type Counters struct {
	Free     int `json:"free"`
	Reserved int `json:"reserved"`
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}

// CountTables derives the counters from a table listing.
func CountTables(tables []TableRecord) Counters {
	c := Counters{Total: len(tables)}
	for _, t := range tables {
		switch t.Status {
		case StatusFree:
			c.Free++
		case StatusReserved:
			c.Reserved++
		case StatusOccupied:
			c.Occupied++
		}
	}
	return c
}

// ConfirmedReservation is the immutable result of a finished booking flow.
type ConfirmedReservation struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	PartySize   int       `json:"party_size"`
	TableID     uint      `json:"table_id"`
	Time        string    `json:"time"`
	Notes       string    `json:"notes,omitempty"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Session is what the identity gate hands back on a successful login. It
// never carries the password.
type Session struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginAttempt is the audit record of a login. Only the username is kept.
type LoginAttempt struct {
	Username string
	Success  bool
	At       time.Time
}

// DefaultFloorPlan is the eight table sample floor used for seeding.
func DefaultFloorPlan() []TableRecord {
	at := func(s string) *string { return &s }
	return []TableRecord{
		{ID: 1, Position: Position{X: 120, Y: 140}, Status: StatusFree},
		{ID: 2, Position: Position{X: 280, Y: 140}, Status: StatusOccupied, Occupancy: 4, ReservedTime: at("7:30 PM")},
		{ID: 3, Position: Position{X: 440, Y: 140}, Status: StatusReserved, Occupancy: 2, ReservedTime: at("8:00 PM")},
		{ID: 4, Position: Position{X: 600, Y: 140}, Status: StatusFree},
		{ID: 5, Position: Position{X: 120, Y: 240}, Status: StatusOccupied, Occupancy: 3, ReservedTime: at("6:45 PM")},
		{ID: 6, Position: Position{X: 280, Y: 240}, Status: StatusFree},
		{ID: 7, Position: Position{X: 440, Y: 240}, Status: StatusReserved, Occupancy: 6, ReservedTime: at("8:30 PM")},
		{ID: 8, Position: Position{X: 600, Y: 240}, Status: StatusOccupied, Occupancy: 2, ReservedTime: at("7:15 PM")},
	}
}
