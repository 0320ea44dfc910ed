package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. These are the stable strings clients
// map to localized messages; contextual data rides in Details.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeMissingID         = "missing_id"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeForbidden         = "forbidden"
	ErrCodeNotFound          = "not_found"
	ErrCodeInternalError     = "internal_error"
	ErrCodeEventPast         = "event_past"
	ErrCodeDuplicateRequest  = "duplicate_request"
	ErrCodeAlreadyAttending  = "already_attending"
	ErrCodeRequestNotPending = "request_not_pending"
	ErrCodeCapacityExceeded  = "capacity_exceeded"
)

// APIError is the error object in the standardized error envelope.
// swagger:model APIError
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the standardized envelope for all error responses.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// WriteJSON sets Content-Type to application/json, writes statusCode, and
// encodes v as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes an ErrorResponse with the given code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// WriteJSONErrorDetails writes an ErrorResponse carrying contextual fields
// alongside the code (e.g. capacity and current count).
func WriteJSONErrorDetails(w http.ResponseWriter, statusCode int, code, message string, details map[string]any) {
	WriteJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}
