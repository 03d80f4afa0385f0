package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingSessionAddSlot(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	session := &BookingSession{SessionID: "s1"}

	assert.True(t, session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneHalf}))
	assert.Len(t, session.Selections, 1)

	// The exact same slot again is a no-op.
	assert.False(t, session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneHalf}))
	assert.Len(t, session.Selections, 1)

	// Alias spelling of the same lane is still the same slot.
	assert.False(t, session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: "Halv bane"}))
	assert.Len(t, session.Selections, 1)

	// Same time with a different lane is a new selection.
	assert.True(t, session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneFull}))
	assert.True(t, session.AddSlot(SlotSelection{Date: date, Time: "11:00", Lane: LaneHalf}))
	assert.Len(t, session.Selections, 3)
}

func TestBookingSessionRemoveSlot(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	session := &BookingSession{}
	session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneHalf})
	session.AddSlot(SlotSelection{Date: date, Time: "11:00", Lane: LaneFull})

	assert.False(t, session.RemoveSlot(-1))
	assert.False(t, session.RemoveSlot(2))
	assert.Len(t, session.Selections, 2)

	assert.True(t, session.RemoveSlot(0))
	assert.Len(t, session.Selections, 1)
	assert.Equal(t, "11:00", session.Selections[0].Time)
}

func TestBookingSessionClear(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	session := &BookingSession{Contact: Contact{Name: "Kari", Phone: "90000000"}}
	session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneHalf})

	session.Clear()
	assert.Empty(t, session.Selections)
	assert.Equal(t, Contact{}, session.Contact)
}

func TestBookingSessionPendingUnits(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	session := &BookingSession{}
	session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneHalf})
	session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneFull})
	session.AddSlot(SlotSelection{Date: date, Time: "11:00", Lane: LaneHalf})
	session.AddSlot(SlotSelection{Date: date.AddDate(0, 0, 1), Time: "10:00", Lane: LaneFull})

	assert.Equal(t, 3, session.PendingUnits(date, "10:00"))
	assert.Equal(t, 1, session.PendingUnits(date, "11:00"))
	assert.Equal(t, 0, session.PendingUnits(date, "12:00"))
}

func TestBookingSessionTotalPrice(t *testing.T) {
	prices := PriceTable{Half: 250, Full: 450}
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	session := &BookingSession{}
	assert.Equal(t, int64(0), session.TotalPrice(prices))

	session.AddSlot(SlotSelection{Date: date, Time: "10:00", Lane: LaneHalf})
	session.AddSlot(SlotSelection{Date: date, Time: "11:00", Lane: LaneFull})
	assert.Equal(t, int64(700), session.TotalPrice(prices))
}

func TestPriceTableFor(t *testing.T) {
	prices := PriceTable{Half: 250, Full: 450}
	assert.Equal(t, int64(250), prices.For(LaneHalf))
	assert.Equal(t, int64(450), prices.For("Hel bane"))
	// Unknown lanes price like a half lane, mirroring their unit cost.
	assert.Equal(t, int64(250), prices.For("quarter"))
}
