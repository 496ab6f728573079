package handler

import (
	"encoding/json"
	"net/http"

	"lumistore/internal/middleware"
	"lumistore/internal/model"
	"lumistore/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConfigurationHandler handles checkout-configuration HTTP requests.
type ConfigurationHandler struct {
	service service.ConfigurationService
	logger  zerolog.Logger
}

// NewConfigurationHandler creates a new configuration handler.
func NewConfigurationHandler(service service.ConfigurationService, logger zerolog.Logger) *ConfigurationHandler {
	return &ConfigurationHandler{
		service: service,
		logger:  logger.With().Str("handler", "configuration").Logger(),
	}
}

// Create handles POST /api/configurations requests.
func (h *ConfigurationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if middleware.UserID(r.Context()) == "" {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", h.logger)
		return
	}

	var req model.ConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	cfg, err := h.service.SaveConfiguration(r.Context(), &req)
	if err != nil {
		if isValidationMessage(err) {
			writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, err.Error(), h.logger)
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

// GetByID handles GET /api/configurations/{id} requests.
func (h *ConfigurationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if middleware.UserID(r.Context()) == "" {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid configuration ID format", h.logger)
		return
	}

	cfg, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}
