package http

import (
	"time"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/utils"
)

// Requests

type CreateToolRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4000"`
	DailyRate   string `json:"daily_rate" validate:"required,numeric"`
	Category    string `json:"category" validate:"max=100"`
	Status      string `json:"status" validate:"omitempty,oneof=available maintenance rented"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=1024"`
}

type UpdateToolRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	DailyRate   *string `json:"daily_rate" validate:"omitempty,numeric"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Status      *string `json:"status" validate:"omitempty,oneof=available maintenance rented"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=1024"`
}

type CreateReservationRequest struct {
	ToolID    int32  `json:"tool_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type UpdateReservationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SubmitReviewRequest struct {
	ReservationID int32  `json:"reservation_id" validate:"required,gt=0"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment" validate:"max=2000"`
}

// Responses

type ToolResponse struct {
	ID          int32     `json:"id"`
	OwnerID     int32     `json:"owner_id"`
	OwnerName   string    `json:"owner_name,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DailyRate   string    `json:"daily_rate"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ToolDetailResponse struct {
	ToolResponse
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

type SearchToolsResponse struct {
	Tools   []ToolResponse `json:"tools"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

type ReservationResponse struct {
	ID         int32     `json:"id"`
	ToolID     int32     `json:"tool_id"`
	ToolName   string    `json:"tool_name,omitempty"`
	OwnerID    int32     `json:"owner_id,omitempty"`
	RenterID   int32     `json:"renter_id"`
	RenterName string    `json:"renter_name,omitempty"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type AvailabilityResponse struct {
	ToolID    int32  `json:"tool_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
}

type PriceQuoteResponse struct {
	ToolID     int32  `json:"tool_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Days       int    `json:"days"`
	TotalPrice string `json:"total_price"`
}

type ReviewResponse struct {
	ID            int32     `json:"id"`
	ReservationID int32     `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	ReviewerName  string    `json:"reviewer_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type UserResponse struct {
	ID         int32   `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	TrustScore float64 `json:"trust_score"`
}

// Mappers

func MapToolToResponse(t *domain.Tool) ToolResponse {
	return ToolResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		OwnerName:   t.OwnerName,
		Name:        t.Name,
		Description: t.Description,
		DailyRate:   utils.FormatPrice(t.DailyRate),
		Category:    t.Category,
		Status:      string(t.Status),
		ImageURL:    t.ImageURL,
		CreatedAt:   t.CreatedAt,
	}
}

func MapToolsToResponse(tools []domain.Tool) []ToolResponse {
	out := make([]ToolResponse, 0, len(tools))
	for i := range tools {
		out = append(out, MapToolToResponse(&tools[i]))
	}
	return out
}

func MapToolDetailToResponse(d *domain.ToolDetail) ToolDetailResponse {
	return ToolDetailResponse{
		ToolResponse:  MapToolToResponse(&d.Tool),
		AverageRating: d.Ratings.Average(),
		ReviewCount:   d.Ratings.Count,
	}
}

func MapReservationToResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		ToolID:     r.ToolID,
		ToolName:   r.ToolName,
		OwnerID:    r.OwnerID,
		RenterID:   r.RenterID,
		RenterName: r.RenterName,
		StartDate:  r.StartDate.String(),
		EndDate:    r.EndDate.String(),
		TotalPrice: utils.FormatPrice(r.TotalPrice),
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func MapReservationsToResponse(rs []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for i := range rs {
		out = append(out, MapReservationToResponse(&rs[i]))
	}
	return out
}

func MapReviewToResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:            r.ID,
		ReservationID: r.ReservationID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		ReviewerName:  r.ReviewerName,
		CreatedAt:     r.CreatedAt,
	}
}

func MapReviewsToResponse(rs []domain.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(rs))
	for i := range rs {
		out = append(out, MapReviewToResponse(&rs[i]))
	}
	return out
}

func MapUserToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Role:       string(u.Role),
		TrustScore: u.TrustScore,
	}
}
