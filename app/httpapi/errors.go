package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// StatusFor maps an error from the use cases to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shell.ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConcurrencyConflict), errors.Is(err, ledger.ErrBookAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), ledger.IsBusinessError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with a JSON error body. Server errors are logged and their details withheld.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	errorType := ledger.ErrorType(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "status", status, "error_type", errorType, "error", message)
		message = http.StatusText(status)
	}

	switch {
	case errors.Is(err, shell.ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		errorType = "unauthenticated"
	case errors.Is(err, ErrBadRequest):
		errorType = "bad_request"
	}

	s.writeJSON(w, r, status, errorResponse{Error: message, ErrorType: errorType})
}
