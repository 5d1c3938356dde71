package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/service"
)

func TestReservationService_CreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("Books free dates and rejects an overlapping request", func(t *testing.T) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		r, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusPending, r.Status)
		assert.Equal(t, "45.00", r.TotalPrice.StringFixed(2))
		assert.Equal(t, f.owner.ID, r.OwnerID)

		_, err = svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-02"), date("2023-11-02"))
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	})

	t.Run("Adjacent ranges do not conflict", func(t *testing.T) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		_, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		require.NoError(t, err)
		_, err = svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-04"), date("2023-11-04"))
		assert.NoError(t, err)
	})

	t.Run("Owner cannot book their own tool", func(t *testing.T) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		_, err := svc.CreateReservation(ctx, f.owner.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		assert.ErrorIs(t, err, domain.ErrSelfBooking)
	})

	t.Run("Invalid ranges", func(t *testing.T) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		_, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-03"), date("2023-11-01"))
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

		_, err = svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-10-29"), date("2023-11-01"))
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

		_, err = svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, fixedToday(), fixedToday())
		assert.NoError(t, err, "booking today is allowed")
	})

	t.Run("Unknown tool", func(t *testing.T) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		_, err := svc.CreateReservation(ctx, f.renter.ID, 404, date("2023-11-01"), date("2023-11-03"))
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
	})

	t.Run("Owner is emailed and the event published after commit", func(t *testing.T) {
		f := newFixture(t)
		email := new(MockEmailService)
		events := new(MockEventPublisher)
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		email.On("SendReservationRequestNotification", ctx, "john@example.com", "John Doe", "Bob Wilson", "Makita Drill", mock.AnythingOfType("*domain.Reservation")).
			Return(errors.New("sendgrid down")).Once()
		events.On("Publish", ctx, service.EventReservationCreated, mock.MatchedBy(func(e service.ReservationCreatedEvent) bool {
			return e.TotalPrice == "45.00" && e.OwnerID == f.owner.ID && e.RenterID == f.renter.ID
		})).Return(nil).Once()

		r, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		require.NoError(t, err, "notification failures do not fail the booking")
		assert.Equal(t, "Bob Wilson", r.RenterName)

		email.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("Failed attempts change nothing", func(t *testing.T) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)

		_, err := svc.CreateReservation(ctx, f.owner.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		require.Error(t, err)

		mine, err := svc.ListMyReservations(ctx, f.owner.ID)
		require.NoError(t, err)
		assert.Empty(t, mine)
		events.AssertNotCalled(t, "Publish", mock.Anything, service.EventReservationCreated, mock.Anything)
	})
}

func TestReservationService_ConcurrentOverlappingBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	email, events := quietCollaborators()
	svc := service.NewReservationService(f.store, email, events, fixedToday)

	const attempts = 16
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every request covers 2023-11-05.
			start := date("2023-11-01").AddDays(i % 5)
			_, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, start, date("2023-11-05"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrSlotUnavailable):
				unavailable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, unavailable)

	blocking, err := f.store.Reservations().ListBlocking(ctx, f.drill.ID, fixedToday())
	require.NoError(t, err)
	assert.Len(t, blocking, 1)
}

func TestReservationService_UpdateReservationStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, service.ReservationService, *domain.Reservation) {
		f := newFixture(t)
		email, events := quietCollaborators()
		svc := service.NewReservationService(f.store, email, events, fixedToday)
		r, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		require.NoError(t, err)
		return f, svc, r
	}

	t.Run("Owner approves then completes", func(t *testing.T) {
		f, svc, r := setup(t)

		updated, err := svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusApproved, updated.Status)

		updated, err = svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCompleted, updated.Status)
	})

	t.Run("Someone else's reservation is forbidden", func(t *testing.T) {
		f, svc, r := setup(t)

		_, err := svc.UpdateReservationStatus(ctx, f.other.ID, r.ID, domain.ReservationStatusApproved)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = svc.UpdateReservationStatus(ctx, f.renter.ID, r.ID, domain.ReservationStatusApproved)
		assert.ErrorIs(t, err, domain.ErrForbidden, "renters cannot approve their own request")
	})

	t.Run("Illegal transition", func(t *testing.T) {
		f, svc, r := setup(t)

		_, err := svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusCompleted)
		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, domain.ReservationStatusPending, te.From)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)

		got, err := svc.GetReservation(ctx, f.owner.ID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusPending, got.Status)
	})

	t.Run("Terminal statuses stay put", func(t *testing.T) {
		f, svc, r := setup(t)

		_, err := svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusRejected)
		require.NoError(t, err)
		_, err = svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusApproved)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("Missing reservation", func(t *testing.T) {
		f, svc, _ := setup(t)

		_, err := svc.UpdateReservationStatus(ctx, f.owner.ID, 1, domain.ReservationStatusApproved)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Rejection frees the dates", func(t *testing.T) {
		f, svc, r := setup(t)

		_, err := svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusRejected)
		require.NoError(t, err)

		_, err = svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-02"), date("2023-11-02"))
		assert.NoError(t, err)
	})

	t.Run("Renter is told about the change", func(t *testing.T) {
		f := newFixture(t)
		email, _ := quietCollaborators()
		events := new(MockEventPublisher)
		events.On("Publish", mock.Anything, service.EventReservationCreated, mock.Anything).Return(nil)
		svc := service.NewReservationService(f.store, email, events, fixedToday)
		r, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
		require.NoError(t, err)

		events.On("Publish", mock.Anything, service.EventReservationStatusChanged, mock.MatchedBy(func(e service.ReservationStatusChangedEvent) bool {
			return e.From == domain.ReservationStatusPending && e.To == domain.ReservationStatusApproved && e.ActorID == f.owner.ID
		})).Return(nil).Once()

		_, err = svc.UpdateReservationStatus(ctx, f.owner.ID, r.ID, domain.ReservationStatusApproved)
		require.NoError(t, err)
		email.AssertCalled(t, "SendReservationStatusNotification", mock.Anything, "bob@example.com", "Bob Wilson", "Makita Drill", mock.Anything)
		events.AssertExpectations(t)
	})
}

func TestReservationService_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	email, events := quietCollaborators()
	svc := service.NewReservationService(f.store, email, events, fixedToday)

	r, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		start     string
		end       string
		excludeID int32
		want      bool
	}{
		{"Inside booking", "2023-11-02", "2023-11-02", 0, false},
		{"Touching first day", "2023-10-31", "2023-11-01", 0, false},
		{"Touching last day", "2023-11-03", "2023-11-05", 0, false},
		{"Day after", "2023-11-04", "2023-11-04", 0, true},
		{"Excluding the booking itself", "2023-11-02", "2023-11-04", r.ID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.CheckAvailability(ctx, f.drill.ID, date(tt.start), date(tt.end), tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	t.Run("Invalid range", func(t *testing.T) {
		_, err := svc.CheckAvailability(ctx, f.drill.ID, date("2023-11-04"), date("2023-11-01"), 0)
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("Unknown tool", func(t *testing.T) {
		_, err := svc.CheckAvailability(ctx, 404, date("2023-11-01"), date("2023-11-01"), 0)
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
	})
}

func TestReservationService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	email, events := quietCollaborators()
	svc := service.NewReservationService(f.store, email, events, fixedToday)

	r, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-03"))
	require.NoError(t, err)

	t.Run("QuotePrice", func(t *testing.T) {
		price, err := svc.QuotePrice(ctx, f.mower.ID, date("2023-11-01"), date("2023-11-02"))
		require.NoError(t, err)
		assert.Equal(t, "50.00", price.StringFixed(2))

		_, err = svc.QuotePrice(ctx, f.mower.ID, date("2023-11-02"), date("2023-11-01"))
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("GetReservation is limited to participants", func(t *testing.T) {
		got, err := svc.GetReservation(ctx, f.renter.ID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Makita Drill", got.ToolName)

		_, err = svc.GetReservation(ctx, f.owner.ID, r.ID)
		assert.NoError(t, err)

		_, err = svc.GetReservation(ctx, f.other.ID, r.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("ListMyReservations covers both sides", func(t *testing.T) {
		asRenter, err := svc.ListMyReservations(ctx, f.renter.ID)
		require.NoError(t, err)
		asOwner, err := svc.ListMyReservations(ctx, f.owner.ID)
		require.NoError(t, err)
		none, err := svc.ListMyReservations(ctx, f.other.ID)
		require.NoError(t, err)

		assert.Len(t, asRenter, 1)
		assert.Len(t, asOwner, 1)
		assert.Empty(t, none)
	})
}

func TestReservationService_SystemTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	email, events := quietCollaborators()

	today := fixedToday()
	clock := func() domain.Date { return today }
	svc := service.NewReservationService(f.store, email, events, clock)

	approved, err := svc.CreateReservation(ctx, f.renter.ID, f.drill.ID, date("2023-11-01"), date("2023-11-02"))
	require.NoError(t, err)
	_, err = svc.UpdateReservationStatus(ctx, f.owner.ID, approved.ID, domain.ReservationStatusApproved)
	require.NoError(t, err)
	stale, err := svc.CreateReservation(ctx, f.renter.ID, f.mower.ID, date("2023-11-01"), date("2023-11-01"))
	require.NoError(t, err)

	today = date("2023-11-02")
	completed, err := svc.CompleteFinishedReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, completed, "the rental is still running on its last day")

	expired, err := svc.ExpireStalePending(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)

	today = date("2023-11-03")
	completed, err = svc.CompleteFinishedReservations(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, domain.ReservationStatusCompleted, completed[0].Status)

	events.AssertCalled(t, "Publish", mock.Anything, service.EventReservationStatusChanged, mock.MatchedBy(func(e service.ReservationStatusChangedEvent) bool {
		return e.ReservationID == approved.ID && e.To == domain.ReservationStatusCompleted && e.ActorID == 0
	}))
}
