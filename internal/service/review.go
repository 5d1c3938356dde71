package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"
)

type reviewService struct {
	store  repository.Store
	events EventPublisher
}

func NewReviewService(store repository.Store, events EventPublisher) ReviewService {
	return &reviewService{store: store, events: events}
}

func (s *reviewService) SubmitReview(ctx context.Context, actorID, reservationID int32, rating int, comment string) (*domain.Review, error) {
	logger.EnterMethod(ctx, "reviewService.SubmitReview", "actorID", actorID, "reservationID", reservationID, "rating", rating)

	if err := domain.ValidateRating(rating); err != nil {
		logger.ExitMethodWithError(ctx, "reviewService.SubmitReview", err, "reservationID", reservationID)
		return nil, err
	}

	var (
		review      *domain.Review
		reservation *domain.Reservation
		score       float64
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.RenterID != actorID {
			return fmt.Errorf("%w: only the renter can review reservation %d", domain.ErrForbidden, reservationID)
		}

		rv := &domain.Review{
			ReservationID: reservationID,
			Rating:        rating,
			Comment:       strings.TrimSpace(comment),
		}
		if err := tx.Reviews().Create(ctx, rv); err != nil {
			return err
		}
		rv.ReviewerName = r.RenterName

		score, err = recomputeTrustScore(ctx, tx, r.OwnerID)
		if err != nil {
			return err
		}
		review, reservation = rv, r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "reviewService.SubmitReview", err, "reservationID", reservationID)
		return nil, err
	}

	event := ReviewSubmittedEvent{
		ReviewID:        review.ID,
		ReservationID:   reservationID,
		ToolID:          reservation.ToolID,
		OwnerID:         reservation.OwnerID,
		Rating:          rating,
		OwnerTrustScore: score,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, EventReviewSubmitted, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "routingKey", EventReviewSubmitted, "reviewID", review.ID, "error", err)
	}

	logger.ExitMethod(ctx, "reviewService.SubmitReview", "reviewID", review.ID, "ownerID", reservation.OwnerID, "ownerScore", score)
	return review, nil
}

func (s *reviewService) ListToolReviews(ctx context.Context, toolID int32) ([]domain.Review, error) {
	if _, err := s.store.Tools().GetByID(ctx, toolID); err != nil {
		return nil, err
	}
	return s.store.Reviews().ListByTool(ctx, toolID)
}
