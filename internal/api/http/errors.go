package http

import (
	"errors"
	"net/http"

	"toolshare-backend/internal/domain"
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func InternalError() *APIError {
	return NewAPIError("internal_error", "internal server error", http.StatusInternalServerError)
}

func IdempotencyConflict() *APIError {
	return NewAPIError("idempotency_conflict", "idempotency key already used with different request", http.StatusConflict)
}

func RequestInProgress() *APIError {
	return NewAPIError("request_in_progress", "a request with this idempotency key is already being processed", http.StatusConflict)
}

func RateLimited() *APIError {
	return NewAPIError("rate_limit_exceeded", "too many requests, please try again later", http.StatusTooManyRequests)
}

// errorMappings is checked in order; the first sentinel the error wraps wins.
var errorMappings = []struct {
	target error
	code   string
	status int
}{
	{domain.ErrStorageFailure, "internal_error", http.StatusInternalServerError},
	{domain.ErrNotFound, "not_found", http.StatusNotFound},
	{domain.ErrForbidden, "forbidden", http.StatusForbidden},
	{domain.ErrInvalidDateRange, "invalid_date_range", http.StatusBadRequest},
	{domain.ErrSelfBooking, "self_booking", http.StatusBadRequest},
	{domain.ErrInvalidRating, "invalid_rating", http.StatusBadRequest},
	{domain.ErrInvalidInput, "invalid_input", http.StatusBadRequest},
	{domain.ErrSlotUnavailable, "slot_unavailable", http.StatusConflict},
	{domain.ErrIllegalTransition, "illegal_transition", http.StatusConflict},
}

// toAPIError translates a service error into the response sent to clients.
// Storage failures and unknown errors never expose their cause.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status == http.StatusInternalServerError {
				return InternalError()
			}
			return NewAPIError(m.code, err.Error(), m.status)
		}
	}
	return InternalError()
}
