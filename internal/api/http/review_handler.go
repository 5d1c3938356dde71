package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"toolshare-backend/internal/service"
)

type ReviewHandler struct {
	reviewSvc service.ReviewService
	validate  *validator.Validate
}

func NewReviewHandler(reviewSvc service.ReviewService, v *validator.Validate) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc, validate: v}
}

func (h *ReviewHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/reviews", h.SubmitReview).Methods(http.MethodPost).Name("SubmitReview")
}

// POST /api/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req SubmitReviewRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Rating bounds are enforced by the service so the error code is invalid_rating
	review, err := h.reviewSvc.SubmitReview(r.Context(), userID, req.ReservationID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created(w, MapReviewToResponse(review))
}
