package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"fairway/internal/database"
	"fairway/internal/events"
	"fairway/internal/models"
	"fairway/internal/occupancy"
	"fairway/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

// CreateReservationsChecked mimics the real store: the configured return
// supplies the fresh rows handed to check, and the check verdict decides
// whether the batch commits.
func (m *mockStore) CreateReservationsChecked(ctx context.Context, reservations []*models.Reservation, check func(existing []*models.Reservation) error) error {
	args := m.Called(ctx, reservations)
	if err := args.Error(1); err != nil {
		return err
	}

	var existing []*models.Reservation
	if v := args.Get(0); v != nil {
		existing = v.([]*models.Reservation)
	}
	if check != nil {
		if err := check(existing); err != nil {
			return err
		}
	}

	now := time.Now()
	for i, r := range reservations {
		r.ID = int64(i + 1)
		r.CreatedAt = now
		r.UpdatedAt = now
	}
	return nil
}

func (m *mockStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockStore) GetReservationsForDate(ctx context.Context, date time.Time) ([]*models.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockStore) GetReservationsByContact(ctx context.Context, phone, email string) ([]*models.Reservation, error) {
	args := m.Called(ctx, phone, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockStore) GetDailyReservations(ctx context.Context, start, end time.Time) (map[string][]*models.Reservation, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]*models.Reservation), args.Error(1)
}

func (m *mockStore) DeleteReservation(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var testSlotTimes = []string{"10:00", "11:00", "12:00"}

func newTestService(store *mockStore) *BookingService {
	logger := zerolog.New(io.Discard)
	calc := occupancy.NewCalculator(testSlotTimes, nil)
	sessions := repository.NewMemorySessionRepository(time.Hour)
	return NewBookingService(store, sessions, calc, events.NewEventBus(), Options{
		Prices: models.PriceTable{Half: 250, Full: 450},
	}, &logger)
}

func bookingDate() time.Time {
	return time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
}

func validContact() models.Contact {
	return models.Contact{
		Name:   "Kari Nordmann",
		Phone:  "+47 900 00 000",
		Email:  "kari@example.com",
		Club:   "Oslo GK",
		Gender: "female",
		Age:    34,
	}
}

func TestNewSessionAndLookup(t *testing.T) {
	svc := newTestService(new(mockStore))
	ctx := context.Background()

	session, err := svc.NewSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)

	got, err := svc.Session(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)

	_, err = svc.Session(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateBookingDate(t *testing.T) {
	logger := zerolog.New(io.Discard)
	calc := occupancy.NewCalculator(testSlotTimes, nil)
	sessions := repository.NewMemorySessionRepository(time.Hour)
	svc := NewBookingService(new(mockStore), sessions, calc, nil, Options{
		SeasonStart:    "2020-01-01",
		SeasonEnd:      "2100-09-30",
		MaxAdvanceDays: 30,
	}, &logger)

	assert.ErrorIs(t, svc.ValidateBookingDate(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)), ErrOutOfSeason)
	assert.ErrorIs(t, svc.ValidateBookingDate(time.Date(2100, 10, 1, 0, 0, 0, 0, time.UTC)), ErrOutOfSeason)
	// Inside the season but past the booking horizon.
	assert.ErrorIs(t, svc.ValidateBookingDate(time.Now().UTC().AddDate(0, 0, 45)), ErrOutOfSeason)
	assert.NoError(t, svc.ValidateBookingDate(bookingDate()))
}

func TestStageSlot(t *testing.T) {
	ctx := context.Background()
	date := bookingDate()

	t.Run("Success", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		svc := newTestService(store)

		session, err := svc.NewSession(ctx)
		require.NoError(t, err)

		got, err := svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "10:00", Lane: "Halv bane"})
		require.NoError(t, err)
		require.Len(t, got.Selections, 1)
		// Lane was normalized before staging.
		assert.Equal(t, models.LaneHalf, got.Selections[0].Lane)
	})

	t.Run("UnknownLane", func(t *testing.T) {
		svc := newTestService(new(mockStore))
		_, err := svc.StageSlot(ctx, "any", models.SlotSelection{Date: date, Time: "10:00", Lane: "quarter"})
		assert.ErrorIs(t, err, ErrUnknownLane)
	})

	t.Run("UnknownSlotTime", func(t *testing.T) {
		svc := newTestService(new(mockStore))
		_, err := svc.StageSlot(ctx, "any", models.SlotSelection{Date: date, Time: "10:30", Lane: models.LaneHalf})
		assert.ErrorIs(t, err, ErrUnknownSlot)
	})

	t.Run("PastHorizon", func(t *testing.T) {
		svc := newTestService(new(mockStore))
		far := time.Now().UTC().AddDate(0, 0, models.DefaultMaxAdvanceDays+30)
		_, err := svc.StageSlot(ctx, "any", models.SlotSelection{Date: far, Time: "10:00", Lane: models.LaneHalf})
		assert.ErrorIs(t, err, ErrOutOfSeason)
	})

	t.Run("SlotTaken", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{
			{Date: date, StartTime: "10:00", Lane: models.LaneFull},
		}, nil)
		svc := newTestService(store)

		session, err := svc.NewSession(ctx)
		require.NoError(t, err)

		_, err = svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})
		assert.ErrorIs(t, err, database.ErrNotAvailable)
	})

	t.Run("DuplicateStageIsNoop", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		svc := newTestService(store)

		session, err := svc.NewSession(ctx)
		require.NoError(t, err)

		sel := models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf}
		_, err = svc.StageSlot(ctx, session.SessionID, sel)
		require.NoError(t, err)
		got, err := svc.StageSlot(ctx, session.SessionID, sel)
		require.NoError(t, err)
		assert.Len(t, got.Selections, 1)
	})

	t.Run("OwnHalfBlocksFullOnSameSlot", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		svc := newTestService(store)

		session, err := svc.NewSession(ctx)
		require.NoError(t, err)

		_, err = svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})
		require.NoError(t, err)

		_, err = svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneFull})
		assert.ErrorIs(t, err, database.ErrNotAvailable)
	})
}

func TestRemoveSlot(t *testing.T) {
	ctx := context.Background()
	date := bookingDate()

	store := new(mockStore)
	store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
	svc := newTestService(store)

	session, err := svc.NewSession(ctx)
	require.NoError(t, err)
	_, err = svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})
	require.NoError(t, err)

	got, err := svc.RemoveSlot(ctx, session.SessionID, 0)
	require.NoError(t, err)
	assert.Empty(t, got.Selections)

	// Out-of-range index is a no-op, not an error.
	got, err = svc.RemoveSlot(ctx, session.SessionID, 5)
	require.NoError(t, err)
	assert.Empty(t, got.Selections)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	date := bookingDate()

	stage := func(t *testing.T, svc *BookingService, selections ...models.SlotSelection) string {
		session, err := svc.NewSession(ctx)
		require.NoError(t, err)
		for _, sel := range selections {
			_, err := svc.StageSlot(ctx, session.SessionID, sel)
			require.NoError(t, err)
		}
		return session.SessionID
	}

	t.Run("EmptySelection", func(t *testing.T) {
		svc := newTestService(new(mockStore))
		session, err := svc.NewSession(ctx)
		require.NoError(t, err)

		_, err = svc.Submit(ctx, session.SessionID, validContact())
		assert.ErrorIs(t, err, ErrEmptySelection)
	})

	t.Run("IncompleteContact", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		svc := newTestService(store)
		sessionID := stage(t, svc, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})

		contact := validContact()
		contact.Club = "  "
		_, err := svc.Submit(ctx, sessionID, contact)
		assert.ErrorIs(t, err, ErrIncompleteContact)
	})

	t.Run("InvalidAge", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		svc := newTestService(store)
		sessionID := stage(t, svc, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})

		contact := validContact()
		contact.Age = 121
		_, err := svc.Submit(ctx, sessionID, contact)
		assert.ErrorIs(t, err, ErrInvalidAge)

		contact.Age = -1
		_, err = svc.Submit(ctx, sessionID, contact)
		assert.ErrorIs(t, err, ErrInvalidAge)
	})

	t.Run("Success", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		store.On("CreateReservationsChecked", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil).Once()
		svc := newTestService(store)

		var created events.ReservationEventPayload
		publishedCount := 0
		// Re-wire assertions through the bus the service publishes on.
		bus := events.NewEventBus()
		bus.Subscribe(events.EventReservationCreated, func(e *events.Event) error {
			publishedCount++
			return json.Unmarshal(e.Payload, &created)
		})
		svc.eventBus = bus

		sessionID := stage(t, svc,
			models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf},
			models.SlotSelection{Date: date, Time: "11:00", Lane: models.LaneFull},
		)

		confirmation, err := svc.Submit(ctx, sessionID, validContact())
		require.NoError(t, err)
		require.NotEmpty(t, confirmation.Reference)
		require.Len(t, confirmation.Reservations, 2)
		assert.Equal(t, int64(700), confirmation.TotalPrice)
		// All reservations of one submission share the reference.
		assert.Equal(t, confirmation.Reference, confirmation.Reservations[0].Reference)
		assert.Equal(t, confirmation.Reference, confirmation.Reservations[1].Reference)

		assert.Equal(t, 2, publishedCount)
		assert.Equal(t, confirmation.Reference, created.Reference)

		// Session is cleared wholesale after the commit.
		session, err := svc.Session(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, session.Selections)

		store.AssertExpectations(t)
	})

	t.Run("ConflictKeepsSession", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		// Between staging and submit someone took the whole slot.
		store.On("CreateReservationsChecked", mock.Anything, mock.Anything).Return([]*models.Reservation{
			{Date: date, StartTime: "10:00", Lane: models.LaneFull},
		}, nil).Once()
		svc := newTestService(store)

		sessionID := stage(t, svc, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})

		_, err := svc.Submit(ctx, sessionID, validContact())
		require.ErrorIs(t, err, database.ErrNotAvailable)

		// The visitor can adjust and retry with the staged slots intact.
		session, err := svc.Session(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, session.Selections, 1)
	})

	t.Run("BatchIsAllOrNothing", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		// One half lane already persisted leaves room for the first staged
		// half but not for the staged full on the same slot.
		store.On("CreateReservationsChecked", mock.Anything, mock.Anything).Return([]*models.Reservation{
			{Date: date, StartTime: "11:00", Lane: models.LaneHalf},
		}, nil).Once()
		svc := newTestService(store)

		session, err := svc.NewSession(ctx)
		require.NoError(t, err)
		_, err = svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})
		require.NoError(t, err)
		_, err = svc.StageSlot(ctx, session.SessionID, models.SlotSelection{Date: date, Time: "11:00", Lane: models.LaneFull})
		require.NoError(t, err)

		_, err = svc.Submit(ctx, session.SessionID, validContact())
		require.ErrorIs(t, err, database.ErrNotAvailable)

		got, err := svc.Session(ctx, session.SessionID)
		require.NoError(t, err)
		assert.Len(t, got.Selections, 2)
	})

	t.Run("StoreErrorPropagates", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetReservationsForDate", mock.Anything, mock.Anything).Return([]*models.Reservation{}, nil)
		store.On("CreateReservationsChecked", mock.Anything, mock.Anything).Return(nil, errors.New("disk full")).Once()
		svc := newTestService(store)

		sessionID := stage(t, svc, models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})

		_, err := svc.Submit(ctx, sessionID, validContact())
		require.Error(t, err)
		assert.NotErrorIs(t, err, database.ErrNotAvailable)
	})
}

func TestTotalPrice(t *testing.T) {
	svc := newTestService(new(mockStore))
	date := bookingDate()

	session := &models.BookingSession{}
	session.AddSlot(models.SlotSelection{Date: date, Time: "10:00", Lane: models.LaneHalf})
	session.AddSlot(models.SlotSelection{Date: date, Time: "11:00", Lane: models.LaneFull})

	assert.Equal(t, int64(700), svc.TotalPrice(session))
}
