package service

import (
	"context"
	"strings"
	"time"

	"fairway/internal/database"
	"fairway/internal/domain"
	"fairway/internal/events"
	"fairway/internal/metrics"
	"fairway/internal/models"
	"fairway/internal/occupancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the booking flow: staging slots into a session,
// validating and submitting them, and resolving reservations for
// self-service cancellation. All state lives in the session repository and
// the reservation store; the service itself only caches advisory occupancy.
type BookingService struct {
	store          domain.ReservationStore
	sessions       domain.SessionRepository
	calc           *occupancy.Calculator
	eventBus       domain.EventPublisher
	prices         models.PriceTable
	seasonStart    time.Time
	seasonEnd      time.Time
	maxAdvanceDays int
	logger         *zerolog.Logger

	view *occupancyView
}

type Options struct {
	Prices         models.PriceTable
	SeasonStart    string // YYYY-MM-DD, empty means no lower bound
	SeasonEnd      string // YYYY-MM-DD, empty means no upper bound
	MaxAdvanceDays int
}

func NewBookingService(store domain.ReservationStore, sessions domain.SessionRepository, calc *occupancy.Calculator, eventBus domain.EventPublisher, opts Options, logger *zerolog.Logger) *BookingService {
	if opts.MaxAdvanceDays <= 0 {
		opts.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}

	seasonStart, _ := time.Parse(models.DateLayout, opts.SeasonStart)
	seasonEnd, _ := time.Parse(models.DateLayout, opts.SeasonEnd)

	return &BookingService{
		store:          store,
		sessions:       sessions,
		calc:           calc,
		eventBus:       eventBus,
		prices:         opts.Prices,
		seasonStart:    seasonStart,
		seasonEnd:      seasonEnd,
		maxAdvanceDays: opts.MaxAdvanceDays,
		logger:         logger,
		view:           newOccupancyView(store),
	}
}

// NewSession creates an empty booking session.
func (s *BookingService) NewSession(ctx context.Context) (*models.BookingSession, error) {
	now := time.Now()
	session := &models.BookingSession{
		SessionID: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Session loads an existing booking session.
func (s *BookingService) Session(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ValidateBookingDate checks the date against the season bounds and the
// booking horizon.
func (s *BookingService) ValidateBookingDate(date time.Time) error {
	day := date.Truncate(24 * time.Hour)
	if !s.seasonStart.IsZero() && day.Before(s.seasonStart) {
		return ErrOutOfSeason
	}
	if !s.seasonEnd.IsZero() && day.After(s.seasonEnd) {
		return ErrOutOfSeason
	}
	if day.After(time.Now().AddDate(0, 0, s.maxAdvanceDays)) {
		return ErrOutOfSeason
	}
	return nil
}

// StageSlot appends a selection to the session after the availability gate.
// The gate reads fresh persisted state and counts the session's own staged
// slots; it narrows but does not replace submission-time re-validation.
// Staging the exact same slot twice is a no-op.
func (s *BookingService) StageSlot(ctx context.Context, sessionID string, sel models.SlotSelection) (*models.BookingSession, error) {
	sel.Lane = models.NormalizeLane(string(sel.Lane))
	if !sel.Lane.Known() {
		return nil, ErrUnknownLane
	}
	if !s.calc.HasSlot(sel.Time) {
		return nil, ErrUnknownSlot
	}
	if err := s.ValidateBookingDate(sel.Date); err != nil {
		return nil, err
	}

	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.store.GetReservationsForDate(ctx, sel.Date)
	if err != nil {
		return nil, err
	}
	if !s.calc.CanStage(sel, reservations, session) {
		return nil, database.ErrNotAvailable
	}

	if session.AddSlot(sel) {
		session.UpdatedAt = time.Now()
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// RemoveSlot drops one staged selection by position.
func (s *BookingService) RemoveSlot(ctx context.Context, sessionID string, index int) (*models.BookingSession, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.RemoveSlot(index) {
		session.UpdatedAt = time.Now()
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// TotalPrice sums the configured per-lane price over the staged selections.
func (s *BookingService) TotalPrice(session *models.BookingSession) int64 {
	return session.TotalPrice(s.prices)
}

// Confirmation summarizes a successful submission.
type Confirmation struct {
	Reference    string                `json:"reference"`
	Reservations []*models.Reservation `json:"reservations"`
	TotalPrice   int64                 `json:"total_price"`
}

// Submit runs the booking protocol: non-empty selection, complete contact
// details, then a checked bulk insert that re-validates every staged slot
// against freshly read persisted state inside one transaction. Any conflict
// aborts the whole batch and keeps the session intact so the visitor can
// adjust and retry.
func (s *BookingService) Submit(ctx context.Context, sessionID string, contact models.Contact) (*Confirmation, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Selections) == 0 {
		return nil, ErrEmptySelection
	}
	if err := validateContact(contact); err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	reservations := make([]*models.Reservation, 0, len(session.Selections))
	for _, sel := range session.Selections {
		reservations = append(reservations, &models.Reservation{
			Reference: reference,
			Date:      sel.Date,
			StartTime: sel.Time,
			Lane:      sel.Lane,
			Name:      contact.Name,
			Phone:     contact.Phone,
			Email:     contact.Email,
			Club:      contact.Club,
			Gender:    contact.Gender,
			Age:       contact.Age,
		})
	}

	pending := session.Selections
	err = s.store.CreateReservationsChecked(ctx, reservations, func(existing []*models.Reservation) error {
		working := append([]*models.Reservation(nil), existing...)
		for _, sel := range pending {
			if s.calc.Remaining(sel.Date, sel.Time, working, nil) < sel.Units() {
				return database.ErrNotAvailable
			}
			// Earlier selections in the batch occupy the slot for later ones.
			working = append(working, &models.Reservation{Date: sel.Date, StartTime: sel.Time, Lane: sel.Lane})
		}
		return nil
	})
	if err != nil {
		if err == database.ErrNotAvailable {
			metrics.IncSubmitConflict()
			s.logger.Info().Str("session_id", sessionID).Msg("submit rejected: slot taken during re-validation")
		} else {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("submit failed")
		}
		return nil, err
	}

	totalPrice := session.TotalPrice(s.prices)

	session.Clear()
	session.UpdatedAt = time.Now()
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		// The booking is committed; a stale session only risks a duplicate
		// staging attempt, which re-validation will reject.
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear session after submit")
	}

	for _, r := range reservations {
		metrics.IncReservationCreated(string(r.Lane))
		s.view.invalidate(r.Date)
		s.publishEvent(events.EventReservationCreated, r, totalPrice)
	}

	return &Confirmation{
		Reference:    reference,
		Reservations: reservations,
		TotalPrice:   totalPrice,
	}, nil
}

func validateContact(contact models.Contact) error {
	required := []string{contact.Name, contact.Phone, contact.Email, contact.Club, contact.Gender}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return ErrIncompleteContact
		}
	}
	if contact.Age < 0 || contact.Age > models.MaxAge {
		return ErrInvalidAge
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, r *models.Reservation, totalPrice int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		Reference:     r.Reference,
		Date:          r.Date.Format(models.DateLayout),
		StartTime:     r.StartTime,
		Lane:          string(r.Lane),
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		Club:          r.Club,
		TotalPrice:    totalPrice,
		OccurredAt:    time.Now(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}
