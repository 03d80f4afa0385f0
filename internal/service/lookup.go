package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"fairway/internal/events"
	"fairway/internal/metrics"
	"fairway/internal/models"
)

// LookupRequest is the partial identity a visitor re-enters to find their
// reservation: the slot plus at least one of phone or email. The stored
// contact may differ in formatting, so matching is tolerant.
type LookupRequest struct {
	Date  time.Time
	Time  string
	Lane  models.Lane
	Phone string
	Email string
}

// Locate resolves a reservation from partial identity: exact date, time and
// normalized lane, plus a suffix-tolerant phone or case-insensitive email
// match. With several candidates the oldest row wins, which is deterministic
// because the store orders by insertion id.
func (s *BookingService) Locate(ctx context.Context, req LookupRequest) (*models.Reservation, error) {
	if strings.TrimSpace(req.Phone) == "" && strings.TrimSpace(req.Email) == "" {
		return nil, ErrNoMatch
	}

	candidates, err := s.store.GetReservationsByContact(ctx, req.Phone, req.Email)
	if err != nil {
		return nil, err
	}

	lane := models.NormalizeLane(string(req.Lane))
	for _, r := range candidates {
		if r.Matches(req.Date, req.Time) && models.NormalizeLane(string(r.Lane)) == lane {
			return r, nil
		}
	}
	return nil, ErrNoMatch
}

// Cancel locates a reservation by partial identity and deletes it. Zero
// matches report not-found and delete nothing.
func (s *BookingService) Cancel(ctx context.Context, req LookupRequest) error {
	reservation, err := s.Locate(ctx, req)
	if err != nil {
		return err
	}

	if err := s.store.DeleteReservation(ctx, reservation.ID); err != nil {
		return err
	}

	metrics.IncCancellation()
	s.view.invalidate(reservation.Date)
	s.publishEvent(events.EventReservationCancelled, reservation, 0)
	s.logger.Info().
		Int64("reservation_id", reservation.ID).
		Str("date", reservation.Date.Format(models.DateLayout)).
		Str("time", reservation.StartTime).
		Msg("reservation cancelled")
	return nil
}

// ActiveReservations lists a visitor's upcoming reservations resolved by
// contact identity, filtered and sorted by FilterActive.
func (s *BookingService) ActiveReservations(ctx context.Context, phone, email string, now time.Time) ([]*models.Reservation, error) {
	if strings.TrimSpace(phone) == "" && strings.TrimSpace(email) == "" {
		return nil, ErrNoMatch
	}

	reservations, err := s.store.GetReservationsByContact(ctx, phone, email)
	if err != nil {
		return nil, err
	}
	return FilterActive(reservations, now), nil
}

// FilterActive keeps reservations whose start is at or after now, sorted by
// start ascending, then lane units descending, then name.
func FilterActive(reservations []*models.Reservation, now time.Time) []*models.Reservation {
	var active []*models.Reservation
	for _, r := range reservations {
		if r != nil && !r.StartAt().Before(now) {
			active = append(active, r)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		si, sj := active[i].StartAt(), active[j].StartAt()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		if active[i].Units() != active[j].Units() {
			return active[i].Units() > active[j].Units()
		}
		return active[i].Name < active[j].Name
	})
	return active
}
