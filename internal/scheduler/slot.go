package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a clock time within a single day, stored as minutes since
// midnight. Appointments occupy exact slots, so minute resolution suffices.
type TimeOfDay int

// ParseTimeOfDay parses a 24-hour "HH:mm" clock value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("scheduler: invalid time %q", value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("scheduler: invalid time %q", value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("scheduler: invalid time %q", value)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// Hour returns the hour component in the range [0, 23].
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component in the range [0, 59].
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Duration converts the clock time to an offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// String renders the clock time as zero-padded "HH:mm".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// DateOf truncates an instant to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// Slot identifies the exact date and clock time an appointment occupies.
// Slots are discrete: two bookings conflict only when both components match.
type Slot struct {
	Date time.Time
	Time TimeOfDay
}

// NewSlot builds a slot with the date normalized to UTC midnight.
func NewSlot(date time.Time, clock TimeOfDay) Slot {
	return Slot{Date: DateOf(date), Time: clock}
}

// Equal reports whether two slots identify the same date and time.
func (s Slot) Equal(other Slot) bool {
	return s.Date.Equal(other.Date) && s.Time == other.Time
}

// At combines the slot date and clock time into a single instant.
func (s Slot) At() time.Time {
	return s.Date.Add(s.Time.Duration())
}
