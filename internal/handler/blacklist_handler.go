package handler

import (
	"net/http"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/service"
	"github.com/go-chi/chi/v5"
)

type BlacklistHandler struct {
	blacklistService service.BlacklistServiceInterface
}

func NewBlacklistHandler(blacklistService service.BlacklistServiceInterface) *BlacklistHandler {
	return &BlacklistHandler{blacklistService: blacklistService}
}

func (h *BlacklistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry model.BlacklistEntry
	if err := commons.DecodeJSON(w, r, &entry, commons.MaxRequestBodyBytes); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := h.blacklistService.Add(r.Context(), entry)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusCreated, entry)
}

func (h *BlacklistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.blacklistService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *BlacklistHandler) Update(w http.ResponseWriter, r *http.Request) {
	var entry model.BlacklistEntry
	if err := commons.DecodeJSON(w, r, &entry, commons.MaxRequestBodyBytes); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := h.blacklistService.Update(r.Context(), chi.URLParam(r, "ip"), entry)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, entry)
}

func (h *BlacklistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.blacklistService.Remove(r.Context(), chi.URLParam(r, "ip")); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
