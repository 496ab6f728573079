package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lumistore/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps a service error onto an HTTP status. Unrecognised
// errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal error", logger)
		return
	}

	writeError(w, domainStatus(domainErr.Code), domainErr.Code, domainErr.Message, logger)
}

func domainStatus(code string) int {
	switch code {
	case model.ErrCodeConfigurationNotFound,
		model.ErrCodeProductNotFound,
		model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientInventory,
		model.ErrCodeOrderNotCancellable:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusForbidden
	case model.ErrCodeInvalidIdempotencyKey,
		model.ErrCodeInvalidShippingOption,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidJSON,
		model.ErrCodeMissingField:
		return http.StatusBadRequest
	case model.ErrCodeOrderNumberExhausted,
		model.ErrCodeOrderConflict:
		// Transient: the client should retry the same request (same
		// idempotency key) after a short delay.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
