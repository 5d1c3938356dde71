package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusApproved  ReservationStatus = "approved"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// reservationTransitions lists every legal status change. Statuses absent
// from the map are terminal.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending: {
		ReservationStatusApproved,
		ReservationStatusRejected,
		ReservationStatusCancelled,
	},
	ReservationStatusApproved: {
		ReservationStatusCompleted,
		ReservationStatusCancelled,
	},
}

// ParseReservationStatus accepts only the statuses of the reservation state
// machine. Legacy values such as "confirmed" are rejected.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch st := ReservationStatus(s); st {
	case ReservationStatusPending, ReservationStatusApproved, ReservationStatusRejected,
		ReservationStatusCompleted, ReservationStatusCancelled:
		return st, true
	}
	return "", false
}

func (s ReservationStatus) IsTerminal() bool {
	_, ok := reservationTransitions[s]
	return !ok
}

// Blocking reports whether a reservation in this status holds its dates.
func (s ReservationStatus) Blocking() bool {
	return s == ReservationStatusPending || s == ReservationStatusApproved
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns a *TransitionError when next is not reachable
// from s in one step.
func (s ReservationStatus) ValidateTransition(next ReservationStatus) error {
	if !s.CanTransitionTo(next) {
		return &TransitionError{From: s, To: next}
	}
	return nil
}

type Reservation struct {
	ID         int32             `json:"id"`
	ToolID     int32             `json:"tool_id"`
	RenterID   int32             `json:"renter_id"`
	StartDate  Date              `json:"start_date"`
	EndDate    Date              `json:"end_date"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Status     ReservationStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`

	// Populated from joins when reading; never written.
	OwnerID    int32  `json:"owner_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	RenterName string `json:"renter_name,omitempty"`
}

func (r *Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// FindConflict returns the first blocking reservation in existing whose
// dates overlap want, skipping the reservation with id excludeID (0 skips
// nothing).
func FindConflict(existing []Reservation, want DateRange, excludeID int32) *Reservation {
	for i := range existing {
		r := &existing[i]
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if !r.Status.Blocking() {
			continue
		}
		if r.Range().Overlaps(want) {
			return r
		}
	}
	return nil
}
