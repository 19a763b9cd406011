package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventregistration/internal/domain"
)

// StatusFor maps a service error to its HTTP status and API error.
// Unknown errors become a 500 whose message does not leak internals.
func StatusFor(err error) (int, *APIError) {
	apiErr := &APIError{Message: err.Error(), Retryable: domain.IsRetryable(err)}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, apiErr.Code = http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status, apiErr.Code = http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, domain.ErrEventNotAvailable):
		status, apiErr.Code = http.StatusConflict, ErrCodeUnavailable
	case errors.Is(err, domain.ErrAlreadyRegistered), errors.Is(err, domain.ErrInvalidTransition):
		status, apiErr.Code = http.StatusConflict, ErrCodeConflict
	case errors.Is(err, domain.ErrInvalidCapacity), errors.Is(err, domain.ErrInvalidUserCount), errors.Is(err, domain.ErrInvalidInput):
		status, apiErr.Code = http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrTimeout):
		status, apiErr.Code = http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		apiErr.Code = ErrCodeInternalError
		apiErr.Message = "internal server error"
	}
	return status, apiErr
}

// WriteServiceError writes the envelope for err. Server-side failures are logged.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, apiErr := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	WriteJSON(w, status, nil, apiErr)
}
