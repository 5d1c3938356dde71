package service

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"

	"toolshare-backend/internal/domain"
)

type ReservationService interface {
	// CreateReservation books [start, end] on a tool for renterID. The new
	// reservation is pending.
	CreateReservation(ctx context.Context, renterID, toolID int32, start, end domain.Date) (*domain.Reservation, error)
	// UpdateReservationStatus moves a reservation along the status machine.
	// Only the tool's owner may do this.
	UpdateReservationStatus(ctx context.Context, actorID, reservationID int32, status domain.ReservationStatus) (*domain.Reservation, error)
	// CheckAvailability reports whether no pending or approved reservation
	// other than excludeID overlaps [start, end].
	CheckAvailability(ctx context.Context, toolID int32, start, end domain.Date, excludeID int32) (bool, error)
	QuotePrice(ctx context.Context, toolID int32, start, end domain.Date) (decimal.Decimal, error)
	GetReservation(ctx context.Context, actorID, reservationID int32) (*domain.Reservation, error)
	ListMyReservations(ctx context.Context, actorID int32) ([]domain.Reservation, error)
	CompleteFinishedReservations(ctx context.Context) ([]domain.Reservation, error)
	ExpireStalePending(ctx context.Context) ([]domain.Reservation, error)
}

type ReviewService interface {
	// SubmitReview records a review by the reservation's renter and
	// recomputes the tool owner's trust score in the same transaction.
	SubmitReview(ctx context.Context, actorID, reservationID int32, rating int, comment string) (*domain.Review, error)
	ListToolReviews(ctx context.Context, toolID int32) ([]domain.Review, error)
}

type ReputationService interface {
	Recompute(ctx context.Context, ownerID int32) (float64, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type ToolService interface {
	AddTool(ctx context.Context, ownerID int32, tool *domain.Tool) error
	GetTool(ctx context.Context, id int32) (*domain.ToolDetail, error)
	UpdateTool(ctx context.Context, actorID, id int32, patch domain.ToolPatch) (*domain.Tool, error)
	DeleteTool(ctx context.Context, actorID int32, isAdmin bool, id int32) error
	ListMyTools(ctx context.Context, ownerID int32) ([]domain.Tool, error)
	// SearchTools streams matching tools page by page. Every range over the
	// returned sequence starts a fresh search.
	SearchTools(ctx context.Context, filter domain.ToolFilter) iter.Seq2[domain.Tool, error]
}

type UserService interface {
	GetProfile(ctx context.Context, userID int32) (*domain.User, error)
}

type EmailService interface {
	SendReservationRequestNotification(ctx context.Context, ownerEmail, ownerName, renterName, toolName string, r *domain.Reservation) error
	SendReservationStatusNotification(ctx context.Context, renterEmail, renterName, toolName string, r *domain.Reservation) error
}

// EventPublisher delivers domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}
