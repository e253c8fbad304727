package rest

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/services"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
)

const (
	errCodeInvalidArgument      = "INVALID_ARGUMENT"
	errCodeEmptyCandidateSet    = "EMPTY_CANDIDATE_SET"
	errCodeStoreUnavailable     = "STORE_UNAVAILABLE"
	errCodeCatalogUnavailable   = "CATALOG_UNAVAILABLE"
	errCodeCatalogNotConfigured = "CATALOG_NOT_CONFIGURED"
	errCodeTimeout              = "TIMEOUT"
	errCodeRateLimited          = "RATE_LIMITED"
	errCodeNotFound             = "NOT_FOUND"
	errCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	errCodeInternal             = "INTERNAL"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg, Code: code})
}

// writeServiceError maps service and port errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidArgument)
	case errors.Is(err, domain.ErrEmptyCandidateSet):
		writeErrorWithCode(w, http.StatusUnprocessableEntity, "no candidate has positive weight", errCodeEmptyCandidateSet)
	case errors.Is(err, ports.ErrStoreUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("store unavailable")
		writeErrorWithCode(w, http.StatusServiceUnavailable, "history store unavailable", errCodeStoreUnavailable)
	case errors.Is(err, services.ErrCatalogNotConfigured):
		writeErrorWithCode(w, http.StatusNotImplemented, "catalog not configured", errCodeCatalogNotConfigured)
	case errors.Is(err, ports.ErrCatalogUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("catalog unavailable")
		writeErrorWithCode(w, http.StatusBadGateway, "catalog unavailable", errCodeCatalogUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorWithCode(w, http.StatusGatewayTimeout, "request timed out", errCodeTimeout)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("unhandled service error")
		writeErrorWithCode(w, http.StatusInternalServerError, "internal server error", errCodeInternal)
	}
}

func isFormContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}
