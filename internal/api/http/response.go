package http

import (
	"encoding/json"
	"net/http"

	"toolshare-backend/internal/logger"
)

// writeJSON sends a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeAPIError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.StatusCode, apiErr)
}

// writeError maps err and sends it. Server-side failures are logged with
// their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "route", routeName(r), "error", err)
	}
	writeAPIError(w, apiErr)
}
