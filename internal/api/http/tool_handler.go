package http

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/service"
	"toolshare-backend/internal/utils"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type ToolHandler struct {
	toolSvc   service.ToolService
	reviewSvc service.ReviewService
	resSvc    service.ReservationService
	validate  *validator.Validate
}

func NewToolHandler(toolSvc service.ToolService, reviewSvc service.ReviewService, resSvc service.ReservationService, v *validator.Validate) *ToolHandler {
	return &ToolHandler{toolSvc: toolSvc, reviewSvc: reviewSvc, resSvc: resSvc, validate: v}
}

func (h *ToolHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/tools", h.SearchTools).Methods(http.MethodGet).Name("SearchTools")
	r.HandleFunc("/api/tools", h.AddTool).Methods(http.MethodPost).Name("AddTool")
	r.HandleFunc("/api/tools/mine", h.ListMyTools).Methods(http.MethodGet).Name("ListMyTools")
	r.HandleFunc("/api/tools/{id:[0-9]+}", h.GetTool).Methods(http.MethodGet).Name("GetTool")
	r.HandleFunc("/api/tools/{id:[0-9]+}", h.UpdateTool).Methods(http.MethodPatch).Name("UpdateTool")
	r.HandleFunc("/api/tools/{id:[0-9]+}", h.DeleteTool).Methods(http.MethodDelete).Name("DeleteTool")
	r.HandleFunc("/api/tools/{id:[0-9]+}/reviews", h.ListToolReviews).Methods(http.MethodGet).Name("ListToolReviews")
	r.HandleFunc("/api/tools/{id:[0-9]+}/availability", h.CheckAvailability).Methods(http.MethodGet).Name("CheckAvailability")
}

// GET /api/tools?q=&category=&limit=&offset=
func (h *ToolHandler) SearchTools(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultSearchLimit, 1, maxSearchLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := domain.ToolFilter{
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}

	resp := SearchToolsResponse{Tools: []ToolResponse{}, Limit: limit, Offset: offset}
	seen := 0
	for tool, err := range h.toolSvc.SearchTools(r.Context(), filter) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		seen++
		if seen <= offset {
			continue
		}
		if len(resp.Tools) == limit {
			resp.HasMore = true
			break
		}
		resp.Tools = append(resp.Tools, MapToolToResponse(&tool))
	}

	ok(w, resp)
}

// POST /api/tools
func (h *ToolHandler) AddTool(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req CreateToolRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rate, err := utils.ParsePrice(req.DailyRate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tool := &domain.Tool{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		DailyRate:   rate,
		Category:    strings.TrimSpace(req.Category),
		Status:      domain.ToolStatus(req.Status),
		ImageURL:    req.ImageURL,
	}
	if err := h.toolSvc.AddTool(r.Context(), userID, tool); err != nil {
		writeError(w, r, err)
		return
	}

	created(w, MapToolToResponse(tool))
}

// GET /api/tools/mine
func (h *ToolHandler) ListMyTools(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tools, err := h.toolSvc.ListMyTools(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapToolsToResponse(tools))
}

// GET /api/tools/{id}
func (h *ToolHandler) GetTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.toolSvc.GetTool(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapToolDetailToResponse(detail))
}

// PATCH /api/tools/{id}
func (h *ToolHandler) UpdateTool(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateToolRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	tool, err := h.toolSvc.UpdateTool(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapToolToResponse(tool))
}

func (req UpdateToolRequest) toPatch() (domain.ToolPatch, error) {
	patch := domain.ToolPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if req.DailyRate != nil {
		rate, err := utils.ParsePrice(*req.DailyRate)
		if err != nil {
			return domain.ToolPatch{}, err
		}
		patch.DailyRate = &rate
	}
	if req.Status != nil {
		status := domain.ToolStatus(*req.Status)
		patch.Status = &status
	}
	return patch, nil
}

// DELETE /api/tools/{id}
func (h *ToolHandler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	claims, found := claimsFromContext(r.Context())
	if !found {
		writeAPIError(w, Unauthorized("authentication required"))
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.toolSvc.DeleteTool(r.Context(), claims.UserID, claims.IsAdmin(), id); err != nil {
		writeError(w, r, err)
		return
	}

	noContent(w)
}

// GET /api/tools/{id}/reviews
func (h *ToolHandler) ListToolReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, err := h.reviewSvc.ListToolReviews(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, MapReviewsToResponse(reviews))
}

// GET /api/tools/{id}/availability?start_date=&end_date=&exclude_reservation_id=
func (h *ToolHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
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
	var excludeID int32
	if raw := r.URL.Query().Get("exclude_reservation_id"); raw != "" {
		if excludeID, err = parseID(raw, "exclude_reservation_id"); err != nil {
			writeError(w, r, err)
			return
		}
	}

	available, err := h.resSvc.CheckAvailability(r.Context(), id, start, end, excludeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, AvailabilityResponse{
		ToolID:    id,
		StartDate: start.String(),
		EndDate:   end.String(),
		Available: available,
	})
}
