package handler

import (
	"net/http"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/service"
)

type SettingsHandler struct {
	settingsService service.SettingsServiceInterface
}

func NewSettingsHandler(settingsService service.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) GetRateLimit(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) UpdateRateLimit(w http.ResponseWriter, r *http.Request) {
	var req model.Settings
	if err := commons.DecodeJSON(w, r, &req, commons.MaxRequestBodyBytes); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	settings, err := h.settingsService.SetRateLimit(r.Context(), req.RateLimitPerMinute)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, settings)
}
