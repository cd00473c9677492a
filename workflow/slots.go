package workflow

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format of reservation dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of time-of-day labels, e.g. "7:30 PM".
	TimeLayout = "3:04 PM"

	DefaultPartySize = 2
	// LargePartySize stands for "6 or more".
	LargePartySize = 6
)

// TimeSlots lists the bookable times, 5:00 PM to 9:00 PM every 30 minutes.
var TimeSlots = []string{
	"5:00 PM", "5:30 PM", "6:00 PM", "6:30 PM",
	"7:00 PM", "7:30 PM", "8:00 PM", "8:30 PM", "9:00 PM",
}

// IsTimeSlot reports whether slot is one of TimeSlots.
func IsTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// PartySizeOption is one entry of the party size picker.
type PartySizeOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// PartySizeOptions returns 1 to 5 plus the combined "6+" entry.
func PartySizeOptions() []PartySizeOption {
	opts := make([]PartySizeOption, 0, LargePartySize)
	for i := 1; i < LargePartySize; i++ {
		label := "Guests"
		if i == 1 {
			label = "Guest"
		}
		opts = append(opts, PartySizeOption{Value: i, Label: strconv.Itoa(i) + " " + label})
	}
	return append(opts, PartySizeOption{Value: LargePartySize, Label: "6+ Guests"})
}

// parseTimeLabel accepts a time-of-day label such as "6:45 PM".
func parseTimeLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	t, err := time.Parse(TimeLayout, label)
	if err != nil {
		return "", false
	}
	return t.Format(TimeLayout), true
}

// parseDate reads a YYYY-MM-DD date in the location of now and reports
// whether it falls on or after the current day.
func parseDate(date string, now time.Time) (time.Time, bool, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), now.Location())
	if err != nil {
		return time.Time{}, false, err
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return day, !day.Before(today), nil
}
