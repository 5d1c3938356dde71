package domain

import (
	"fmt"
	"time"
)

const (
	RatingMin = 1
	RatingMax = 5
)

type Review struct {
	ID            int32     `json:"id"`
	ReservationID int32     `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`

	ReviewerName string `json:"reviewer_name,omitempty"` // renter of the reviewed reservation
}

func ValidateRating(rating int) error {
	if rating < RatingMin || rating > RatingMax {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return nil
}

// RatingStats aggregates ratings as integers so the mean is exact to compute.
type RatingStats struct {
	Count int64 `json:"review_count"`
	Sum   int64 `json:"-"`
}

// Average returns the mean rating, or 0 when there are no reviews.
func (s RatingStats) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

// TrustScore maps the mean rating linearly onto the trust score scale,
// clamped to its bounds. Owners without reviews sit at the midpoint.
func (s RatingStats) TrustScore() float64 {
	if s.Count == 0 {
		return TrustScoreDefault
	}
	score := float64(s.Sum) * TrustScoreMax / (float64(s.Count) * RatingMax)
	return min(max(score, TrustScoreMin), TrustScoreMax)
}
