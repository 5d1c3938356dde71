package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"
	"toolshare-backend/internal/utils"
)

type reservationService struct {
	store    repository.Store
	emailSvc EmailService
	events   EventPublisher
	today    func() domain.Date
}

// NewReservationService wires the booking flow. today supplies the current
// calendar date in the booking time zone.
func NewReservationService(store repository.Store, emailSvc EmailService, events EventPublisher, today func() domain.Date) ReservationService {
	return &reservationService{
		store:    store,
		emailSvc: emailSvc,
		events:   events,
		today:    today,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, renterID, toolID int32, start, end domain.Date) (*domain.Reservation, error) {
	logger.EnterMethod(ctx, "reservationService.CreateReservation", "renterID", renterID, "toolID", toolID, "start", start, "end", end)

	want := domain.NewDateRange(start, end)
	if err := want.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "reservationService.CreateReservation", err, "toolID", toolID)
		return nil, err
	}
	if today := s.today(); start.Before(today) {
		err := fmt.Errorf("%w: start date %s is in the past (today is %s)", domain.ErrInvalidDateRange, start, today)
		logger.ExitMethodWithError(ctx, "reservationService.CreateReservation", err, "toolID", toolID)
		return nil, err
	}

	var created *domain.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		// Holds the tool row lock until commit, so no other booking for this
		// tool can run its conflict check in between.
		tool, err := tx.Tools().GetByIDForUpdate(ctx, toolID)
		if err != nil {
			return err
		}
		if tool.OwnerID == renterID {
			return domain.ErrSelfBooking
		}

		existing, err := tx.Reservations().ListBlocking(ctx, toolID, start)
		if err != nil {
			return err
		}
		if conflict := domain.FindConflict(existing, want, 0); conflict != nil {
			return fmt.Errorf("%w: overlaps reservation %d (%s to %s)", domain.ErrSlotUnavailable, conflict.ID, conflict.StartDate, conflict.EndDate)
		}

		price, err := utils.CalculateRentalPrice(tool.DailyRate, start, end)
		if err != nil {
			return err
		}

		r := &domain.Reservation{
			ToolID:     toolID,
			RenterID:   renterID,
			StartDate:  start,
			EndDate:    end,
			TotalPrice: price,
			Status:     domain.ReservationStatusPending,
		}
		if err := tx.Reservations().Create(ctx, r); err != nil {
			return err
		}
		r.OwnerID = tool.OwnerID
		r.ToolName = tool.Name
		created = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "reservationService.CreateReservation", err, "toolID", toolID, "renterID", renterID)
		return nil, err
	}

	s.notifyCreated(ctx, created)

	logger.ExitMethod(ctx, "reservationService.CreateReservation", "reservationID", created.ID, "totalPrice", utils.FormatPrice(created.TotalPrice))
	return created, nil
}

func (s *reservationService) UpdateReservationStatus(ctx context.Context, actorID, reservationID int32, status domain.ReservationStatus) (*domain.Reservation, error) {
	logger.EnterMethod(ctx, "reservationService.UpdateReservationStatus", "actorID", actorID, "reservationID", reservationID, "status", status)

	var (
		updated *domain.Reservation
		from    domain.ReservationStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		r, err := tx.Reservations().GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.OwnerID != actorID {
			return fmt.Errorf("%w: only the tool owner can change reservation %d", domain.ErrForbidden, reservationID)
		}
		if err := r.Status.ValidateTransition(status); err != nil {
			return err
		}
		if err := tx.Reservations().UpdateStatus(ctx, reservationID, status); err != nil {
			return err
		}
		from = r.Status
		r.Status = status
		updated = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "reservationService.UpdateReservationStatus", err, "reservationID", reservationID)
		return nil, err
	}

	s.notifyStatusChanged(ctx, updated, from, actorID)

	logger.ExitMethod(ctx, "reservationService.UpdateReservationStatus", "reservationID", reservationID, "from", from, "to", status)
	return updated, nil
}

func (s *reservationService) CheckAvailability(ctx context.Context, toolID int32, start, end domain.Date, excludeID int32) (bool, error) {
	want := domain.NewDateRange(start, end)
	if err := want.Validate(); err != nil {
		return false, err
	}
	if _, err := s.store.Tools().GetByID(ctx, toolID); err != nil {
		return false, err
	}
	existing, err := s.store.Reservations().ListBlocking(ctx, toolID, start)
	if err != nil {
		return false, err
	}
	return domain.FindConflict(existing, want, excludeID) == nil, nil
}

func (s *reservationService) QuotePrice(ctx context.Context, toolID int32, start, end domain.Date) (decimal.Decimal, error) {
	if err := domain.NewDateRange(start, end).Validate(); err != nil {
		return decimal.Zero, err
	}
	tool, err := s.store.Tools().GetByID(ctx, toolID)
	if err != nil {
		return decimal.Zero, err
	}
	return utils.CalculateRentalPrice(tool.DailyRate, start, end)
}

func (s *reservationService) GetReservation(ctx context.Context, actorID, reservationID int32) (*domain.Reservation, error) {
	r, err := s.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.RenterID != actorID && r.OwnerID != actorID {
		return nil, fmt.Errorf("%w: reservation %d belongs to someone else", domain.ErrForbidden, reservationID)
	}
	return r, nil
}

func (s *reservationService) ListMyReservations(ctx context.Context, actorID int32) ([]domain.Reservation, error) {
	return s.store.Reservations().ListByParticipant(ctx, actorID)
}

// CompleteFinishedReservations marks approved reservations whose last day is
// behind us as completed.
func (s *reservationService) CompleteFinishedReservations(ctx context.Context) ([]domain.Reservation, error) {
	return s.systemTransition(ctx, "reservationService.CompleteFinishedReservations", domain.ReservationStatusApproved,
		s.store.Reservations().CompleteEndedBefore)
}

// ExpireStalePending cancels requests the owner never answered before the
// rental was due to start, freeing the dates.
func (s *reservationService) ExpireStalePending(ctx context.Context) ([]domain.Reservation, error) {
	return s.systemTransition(ctx, "reservationService.ExpireStalePending", domain.ReservationStatusPending,
		s.store.Reservations().CancelPendingStartedBefore)
}

func (s *reservationService) systemTransition(ctx context.Context, method string, from domain.ReservationStatus,
	apply func(context.Context, domain.Date) ([]domain.Reservation, error)) ([]domain.Reservation, error) {
	today := s.today()
	logger.EnterMethod(ctx, method, "today", today)

	changed, err := apply(ctx, today)
	if err != nil {
		logger.ExitMethodWithError(ctx, method, err)
		return nil, err
	}
	for i := range changed {
		s.notifyStatusChanged(ctx, &changed[i], from, 0)
	}

	logger.ExitMethod(ctx, method, "count", len(changed))
	return changed, nil
}

func (s *reservationService) notifyCreated(ctx context.Context, r *domain.Reservation) {
	owner, ownerErr := s.store.Users().GetByID(ctx, r.OwnerID)
	renter, renterErr := s.store.Users().GetByID(ctx, r.RenterID)
	if ownerErr == nil && renterErr == nil {
		r.RenterName = renter.Name
		if err := s.emailSvc.SendReservationRequestNotification(ctx, owner.Email, owner.Name, renter.Name, r.ToolName, r); err != nil {
			logger.WarnContext(ctx, "Failed to send reservation request email", "reservationID", r.ID, "error", err)
		}
	} else {
		logger.WarnContext(ctx, "Skipping reservation request email", "reservationID", r.ID, "ownerErr", ownerErr, "renterErr", renterErr)
	}

	event := ReservationCreatedEvent{
		ReservationID: r.ID,
		ToolID:        r.ToolID,
		OwnerID:       r.OwnerID,
		RenterID:      r.RenterID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		TotalPrice:    utils.FormatPrice(r.TotalPrice),
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, EventReservationCreated, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "routingKey", EventReservationCreated, "reservationID", r.ID, "error", err)
	}
}

func (s *reservationService) notifyStatusChanged(ctx context.Context, r *domain.Reservation, from domain.ReservationStatus, actorID int32) {
	if renter, err := s.store.Users().GetByID(ctx, r.RenterID); err != nil {
		logger.WarnContext(ctx, "Skipping reservation status email", "reservationID", r.ID, "error", err)
	} else if err := s.emailSvc.SendReservationStatusNotification(ctx, renter.Email, renter.Name, r.ToolName, r); err != nil {
		logger.WarnContext(ctx, "Failed to send reservation status email", "reservationID", r.ID, "error", err)
	}

	event := ReservationStatusChangedEvent{
		ReservationID: r.ID,
		ToolID:        r.ToolID,
		RenterID:      r.RenterID,
		From:          from,
		To:            r.Status,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, EventReservationStatusChanged, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "routingKey", EventReservationStatusChanged, "reservationID", r.ID, "error", err)
	}
}
