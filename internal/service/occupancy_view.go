package service

import (
	"context"
	"sync"
	"time"

	"fairway/internal/domain"
	"fairway/internal/events"
	"fairway/internal/models"
)

// occupancyView caches per-day reservation snapshots for the advisory read
// side (calendar styling, slot counts). Entries are invalidated on booking
// events and refreshed wholesale by the background refresher; staleness here
// is tolerated because submission re-validates inside the store transaction.
type occupancyView struct {
	store domain.ReservationStore

	mu   sync.RWMutex
	days map[string][]*models.Reservation
}

func newOccupancyView(store domain.ReservationStore) *occupancyView {
	return &occupancyView{
		store: store,
		days:  make(map[string][]*models.Reservation),
	}
}

func (v *occupancyView) get(ctx context.Context, date time.Time) ([]*models.Reservation, error) {
	key := date.Format(models.DateLayout)

	v.mu.RLock()
	cached, ok := v.days[key]
	v.mu.RUnlock()
	if ok {
		return cached, nil
	}

	reservations, err := v.store.GetReservationsForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.days[key] = reservations
	v.mu.Unlock()
	return reservations, nil
}

func (v *occupancyView) invalidate(date time.Time) {
	v.mu.Lock()
	delete(v.days, date.Format(models.DateLayout))
	v.mu.Unlock()
}

// refresh refetches every cached day in one range read.
func (v *occupancyView) refresh(ctx context.Context) error {
	v.mu.RLock()
	keys := make([]string, 0, len(v.days))
	for key := range v.days {
		keys = append(keys, key)
	}
	v.mu.RUnlock()

	if len(keys) == 0 {
		return nil
	}

	start, end := keys[0], keys[0]
	for _, key := range keys[1:] {
		if key < start {
			start = key
		}
		if key > end {
			end = key
		}
	}

	startDate, err := time.Parse(models.DateLayout, start)
	if err != nil {
		return err
	}
	endDate, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return err
	}

	daily, err := v.store.GetDailyReservations(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	v.mu.Lock()
	for _, key := range keys {
		v.days[key] = daily[key]
	}
	v.mu.Unlock()
	return nil
}

// DayStatus returns the advisory three-tier classification for a day.
func (s *BookingService) DayStatus(ctx context.Context, date time.Time) (models.DayStatus, error) {
	reservations, err := s.view.get(ctx, date)
	if err != nil {
		return "", err
	}
	return s.calc.DayStatus(date, reservations), nil
}

// SlotAvailability returns the advisory remaining units for one slot.
func (s *BookingService) SlotAvailability(ctx context.Context, date time.Time, startTime string) (int, error) {
	reservations, err := s.view.get(ctx, date)
	if err != nil {
		return 0, err
	}
	return s.calc.Remaining(date, startTime, reservations, nil), nil
}

// SlotTimes exposes the daily schedule for rendering.
func (s *BookingService) SlotTimes() []string {
	return s.calc.SlotTimes()
}

// RefreshOccupancy refetches the cached occupancy view. Wired to the
// background refresher as its polling strategy.
func (s *BookingService) RefreshOccupancy(ctx context.Context) error {
	if err := s.view.refresh(ctx); err != nil {
		return err
	}
	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventOccupancyRefreshed, map[string]any{
			"refreshed_at": time.Now(),
		})
	}
	return nil
}

// InvalidateDay drops one day from the occupancy view, used by event
// subscribers when a reservation changes outside the submit path.
func (s *BookingService) InvalidateDay(date time.Time) {
	s.view.invalidate(date)
}
