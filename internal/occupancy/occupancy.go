// Package occupancy computes how many capacity units of a slot are taken and
// how many remain. It is pure bookkeeping over whatever reservation snapshot
// the caller hands it; freshness of that snapshot is the caller's problem.
package occupancy

import (
	"time"

	"fairway/internal/models"
)

// Calculator holds the fixed daily schedule and the operator pre-blocked
// entries. Both come from configuration and never change at runtime.
type Calculator struct {
	slotTimes []string
	blocked   []models.BlockedSlot
}

func NewCalculator(slotTimes []string, blocked []models.BlockedSlot) *Calculator {
	if len(slotTimes) == 0 {
		slotTimes = append([]string(nil), models.DefaultSlotTimes...)
	}
	return &Calculator{
		slotTimes: append([]string(nil), slotTimes...),
		blocked:   append([]models.BlockedSlot(nil), blocked...),
	}
}

// SlotTimes returns the daily schedule of slot starts.
func (c *Calculator) SlotTimes() []string {
	return append([]string(nil), c.slotTimes...)
}

// HasSlot reports whether startTime is part of the daily schedule.
func (c *Calculator) HasSlot(startTime string) bool {
	for _, slot := range c.slotTimes {
		if slot == startTime {
			return true
		}
	}
	return false
}

// OccupiedUnits sums the unit cost of everything holding the slot: persisted
// reservations, pre-blocked entries and, when the caller passes a session,
// its staged selections.
func (c *Calculator) OccupiedUnits(date time.Time, startTime string, reservations []*models.Reservation, session *models.BookingSession) int {
	units := 0
	for _, r := range reservations {
		if r != nil && r.Matches(date, startTime) {
			units += r.Units()
		}
	}

	dateStr := date.Format(models.DateLayout)
	for _, b := range c.blocked {
		if b.Date == dateStr && b.Time == startTime {
			units += b.Units()
		}
	}

	if session != nil {
		units += session.PendingUnits(date, startTime)
	}

	return units
}

// Remaining returns the free units of the slot in [0, SlotCapacity]. Over-booked
// snapshots (a data anomaly) clamp to zero rather than going negative.
func (c *Calculator) Remaining(date time.Time, startTime string, reservations []*models.Reservation, session *models.BookingSession) int {
	remaining := models.SlotCapacity - c.OccupiedUnits(date, startTime, reservations, session)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DayStatus classifies a whole day for calendar-cell styling. Per-slot
// occupancy is capped at SlotCapacity before summing so one corrupt slot
// cannot mark the day full on its own. Advisory only; submission re-validates
// per slot.
func (c *Calculator) DayStatus(date time.Time, reservations []*models.Reservation) models.DayStatus {
	occupied := 0
	for _, slot := range c.slotTimes {
		units := c.OccupiedUnits(date, slot, reservations, nil)
		if units > models.SlotCapacity {
			units = models.SlotCapacity
		}
		occupied += units
	}

	total := len(c.slotTimes) * models.SlotCapacity
	switch {
	case total == 0 || occupied >= total:
		return models.DayFull
	case occupied*2 >= total:
		return models.DayHalf
	default:
		return models.DayAvailable
	}
}

// CanStage reports whether a selection fits the slot given the current
// snapshot plus the session's already staged selections. This is the UI-side
// gate; it does not replace submission-time re-validation.
func (c *Calculator) CanStage(sel models.SlotSelection, reservations []*models.Reservation, session *models.BookingSession) bool {
	return c.Remaining(sel.Date, sel.Time, reservations, session) >= sel.Units()
}
