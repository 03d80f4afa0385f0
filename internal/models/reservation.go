package models

import (
	"strings"
	"time"
	"unicode"
)

// Reservation is one persisted booking of a lane for a slot. Records are
// created once, read many times and deleted at most once; they are never
// updated in place.
type Reservation struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // HH:MM slot start
	Lane      Lane      `json:"lane"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Club      string    `json:"club"`
	Gender    string    `json:"gender"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StartAt combines the reservation date and slot start time.
func (r *Reservation) StartAt() time.Time {
	hour, minute := parseClock(r.StartTime)
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), hour, minute, 0, 0, r.Date.Location())
}

// Units returns the capacity cost of the reservation's lane.
func (r *Reservation) Units() int {
	return NormalizeLane(string(r.Lane)).Units()
}

// Matches reports whether the reservation occupies the given slot.
func (r *Reservation) Matches(date time.Time, startTime string) bool {
	return sameDay(r.Date, date) && r.StartTime == startTime
}

// Contact carries the details the visitor enters on the booking form. Every
// reservation in one submission shares the same contact.
type Contact struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Club   string `json:"club"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

// BlockedSlot is an operator-reserved slot supplied through configuration.
// Blocked entries consume capacity exactly like persisted reservations.
type BlockedSlot struct {
	Date string `yaml:"date" json:"date"` // YYYY-MM-DD
	Time string `yaml:"time" json:"time"` // HH:MM
	Lane Lane   `yaml:"lane" json:"lane"`
}

// Units returns the capacity cost of the blocked slot.
func (b BlockedSlot) Units() int {
	return NormalizeLane(string(b.Lane)).Units()
}

// DayStatus is the advisory three-tier classification driving calendar-cell
// styling. It must never be the sole gate for a commit.
type DayStatus string

const (
	DayAvailable DayStatus = "available"
	DayHalf      DayStatus = "half"
	DayFull      DayStatus = "full"
)

// NormalizePhone strips a phone label down to its digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhonesMatch compares two phone labels digits-only with suffix tolerance,
// so "+47 900 00 000" matches "90000000" whichever side carries the country
// code.
func PhonesMatch(a, b string) bool {
	da, db := NormalizePhone(a), NormalizePhone(b)
	if da == "" || db == "" {
		return false
	}
	return strings.HasSuffix(da, db) || strings.HasSuffix(db, da)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func parseClock(hhmm string) (hour, minute int) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, 0
	}
	return parsed.Hour(), parsed.Minute()
}
