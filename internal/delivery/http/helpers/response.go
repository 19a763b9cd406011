package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeUnavailable   = "event_not_available"
	ErrCodeTimeout       = "timeout"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// Retryable tells the client the same request may succeed later.
// swagger:model APIError
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success Data is set and Error is nil; on error Error is set and Data is usually nil.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSON writes an envelope carrying both data and apiErr. Most handlers want
// WriteJSONSuccess or WriteJSONError instead.
func WriteJSON(w http.ResponseWriter, statusCode int, data any, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: apiErr})
}

// WriteJSONSuccess writes statusCode and an envelope with data and a nil error.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	WriteJSON(w, statusCode, data, nil)
}

// WriteJSONError writes statusCode and an envelope with nil data and the given error.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, nil, &APIError{Code: code, Message: message})
}
