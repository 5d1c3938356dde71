package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/service"
	"toolshare-backend/internal/utils"
)

type ReservationHandler struct {
	resSvc   service.ReservationService
	validate *validator.Validate
}

func NewReservationHandler(resSvc service.ReservationService, v *validator.Validate) *ReservationHandler {
	return &ReservationHandler{resSvc: resSvc, validate: v}
}

func (h *ReservationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/reservations/price", h.QuotePrice).Methods(http.MethodGet).Name("QuotePrice")
	r.HandleFunc("/api/reservations", h.CreateReservation).Methods(http.MethodPost).Name("CreateReservation")
	r.HandleFunc("/api/reservations", h.ListMyReservations).Methods(http.MethodGet).Name("ListMyReservations")
	r.HandleFunc("/api/reservations/{id:[0-9]+}", h.GetReservation).Methods(http.MethodGet).Name("GetReservation")
	r.HandleFunc("/api/reservations/{id:[0-9]+}/status", h.UpdateReservationStatus).Methods(http.MethodPut).Name("UpdateReservationStatus")
}

// GET /api/reservations/price?tool_id=&start_date=&end_date=
func (h *ReservationHandler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	toolID, err := parseID(r.URL.Query().Get("tool_id"), "tool_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := queryDate(r, "start_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(r, "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}

	price, err := h.resSvc.QuotePrice(r.Context(), toolID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, PriceQuoteResponse{
		ToolID:     toolID,
		StartDate:  start.String(),
		EndDate:    end.String(),
		Days:       start.DaysInclusive(end),
		TotalPrice: utils.FormatPrice(price),
	})
}

// POST /api/reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req CreateReservationRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// The validator has already checked the layout
	start, _ := domain.ParseDate(req.StartDate)
	end, _ := domain.ParseDate(req.EndDate)

	res, err := h.resSvc.CreateReservation(r.Context(), userID, req.ToolID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created(w, MapReservationToResponse(res))
}

// GET /api/reservations
func (h *ReservationHandler) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.resSvc.ListMyReservations(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapReservationsToResponse(list))
}

// GET /api/reservations/{id}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.resSvc.GetReservation(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapReservationToResponse(res))
}

// PUT /api/reservations/{id}/status
func (h *ReservationHandler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateReservationStatusRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	status, valid := domain.ParseReservationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !valid {
		writeError(w, r, fmt.Errorf("%w: unknown reservation status %q", domain.ErrInvalidInput, req.Status))
		return
	}

	res, err := h.resSvc.UpdateReservationStatus(r.Context(), userID, id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapReservationToResponse(res))
}
