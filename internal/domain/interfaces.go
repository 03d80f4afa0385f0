package domain

import (
	"context"
	"time"

	"fairway/internal/models"
)

// ReservationStore is the persistence contract the booking core needs:
// filtered range reads, a checked bulk insert and a predicate delete.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	CreateReservationsChecked(ctx context.Context, reservations []*models.Reservation, check func(existing []*models.Reservation) error) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	GetReservationsForDate(ctx context.Context, date time.Time) ([]*models.Reservation, error)
	GetReservationsByContact(ctx context.Context, phone, email string) ([]*models.Reservation, error)
	GetDailyReservations(ctx context.Context, start, end time.Time) (map[string][]*models.Reservation, error)
	DeleteReservation(ctx context.Context, id int64) error
}

// SessionRepository stores per-visitor booking sessions.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*models.BookingSession, error)
	SaveSession(ctx context.Context, session *models.BookingSession) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// EventPublisher decouples booking outcomes from their side effects
// (operator notification, cache invalidation).
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
