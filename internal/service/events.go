package service

import (
	"time"

	"toolshare-backend/internal/domain"
)

// Routing keys on the events exchange.
const (
	EventReservationCreated       = "reservation.created"
	EventReservationStatusChanged = "reservation.status_changed"
	EventReviewSubmitted          = "review.submitted"
)

type ReservationCreatedEvent struct {
	ReservationID int32       `json:"reservation_id"`
	ToolID        int32       `json:"tool_id"`
	OwnerID       int32       `json:"owner_id"`
	RenterID      int32       `json:"renter_id"`
	StartDate     domain.Date `json:"start_date"`
	EndDate       domain.Date `json:"end_date"`
	TotalPrice    string      `json:"total_price"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

type ReservationStatusChangedEvent struct {
	ReservationID int32                    `json:"reservation_id"`
	ToolID        int32                    `json:"tool_id"`
	RenterID      int32                    `json:"renter_id"`
	From          domain.ReservationStatus `json:"from"`
	To            domain.ReservationStatus `json:"to"`
	// ActorID is zero for transitions made by scheduled jobs.
	ActorID    int32     `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReviewSubmittedEvent struct {
	ReviewID        int32     `json:"review_id"`
	ReservationID   int32     `json:"reservation_id"`
	ToolID          int32     `json:"tool_id"`
	OwnerID         int32     `json:"owner_id"`
	Rating          int       `json:"rating"`
	OwnerTrustScore float64   `json:"owner_trust_score"`
	OccurredAt      time.Time `json:"occurred_at"`
}
