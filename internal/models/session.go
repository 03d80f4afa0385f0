package models

import "time"

// SlotSelection is one staged (date, time, lane) tuple, not yet persisted.
type SlotSelection struct {
	Date time.Time `json:"date"`
	Time string    `json:"time"` // HH:MM
	Lane Lane      `json:"lane"`
}

// Units returns the capacity cost of the selection.
func (s SlotSelection) Units() int {
	return NormalizeLane(string(s.Lane)).Units()
}

// Equal reports whether two selections name the same slot and lane.
func (s SlotSelection) Equal(other SlotSelection) bool {
	return sameDay(s.Date, other.Date) &&
		s.Time == other.Time &&
		NormalizeLane(string(s.Lane)) == NormalizeLane(string(other.Lane))
}

// BookingSession is one visitor's in-progress booking: the staged selections
// plus any contact details entered so far. Sessions are ephemeral and cleared
// wholesale after a successful submission.
type BookingSession struct {
	SessionID  string          `json:"session_id"`
	Selections []SlotSelection `json:"selections"`
	Contact    Contact         `json:"contact"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AddSlot stages a selection. Staging the exact same slot twice is a no-op;
// the add reports whether the selection was appended.
func (s *BookingSession) AddSlot(sel SlotSelection) bool {
	for _, existing := range s.Selections {
		if existing.Equal(sel) {
			return false
		}
	}
	s.Selections = append(s.Selections, sel)
	return true
}

// RemoveSlot drops one staged selection by position.
func (s *BookingSession) RemoveSlot(index int) bool {
	if index < 0 || index >= len(s.Selections) {
		return false
	}
	s.Selections = append(s.Selections[:index], s.Selections[index+1:]...)
	return true
}

// Clear empties the staged selections, used after a successful submission.
func (s *BookingSession) Clear() {
	s.Selections = nil
	s.Contact = Contact{}
}

// PendingUnits sums the capacity cost of selections staged for the slot.
func (s *BookingSession) PendingUnits(date time.Time, startTime string) int {
	units := 0
	for _, sel := range s.Selections {
		if sameDay(sel.Date, date) && sel.Time == startTime {
			units += sel.Units()
		}
	}
	return units
}

// TotalPrice sums the per-lane price over all staged selections.
func (s *BookingSession) TotalPrice(prices PriceTable) int64 {
	var total int64
	for _, sel := range s.Selections {
		total += prices.For(sel.Lane)
	}
	return total
}

// PriceTable is the externally supplied per-lane price list, in whole NOK.
type PriceTable struct {
	Half int64 `yaml:"half"`
	Full int64 `yaml:"full"`
}

// For returns the price of one booking on the lane. Unrecognized lanes price
// like a half lane, mirroring their one-unit capacity cost.
func (p PriceTable) For(lane Lane) int64 {
	if NormalizeLane(string(lane)) == LaneFull {
		return p.Full
	}
	return p.Half
}
