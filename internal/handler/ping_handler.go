package handler

import (
	"net/http"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PingHandler struct {
	pingService service.PingServiceInterface
}

func NewPingHandler(pingService service.PingServiceInterface) *PingHandler {
	return &PingHandler{pingService: pingService}
}

func (h *PingHandler) Register(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}
	var def model.PingDefinition
	if err := commons.DecodeJSON(w, r, &def, commons.MaxRequestBodyBytes); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	svc, err := h.pingService.Register(r.Context(), projectID, def)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusCreated, svc)
}

func (h *PingHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}

	services, err := h.pingService.List(r.Context(), projectID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, services)
}

func (h *PingHandler) Check(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}

	services, err := h.pingService.Trigger(r.Context(), projectID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, services)
}

func (h *PingHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid ping service id")
		return
	}
	var def model.PingDefinition
	if err := commons.DecodeJSON(w, r, &def, commons.MaxRequestBodyBytes); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	svc, err := h.pingService.Update(r.Context(), projectID, id, def)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, svc)
}

func (h *PingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid ping service id")
		return
	}

	if err := h.pingService.Delete(r.Context(), projectID, id); err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Ping service deleted successfully"})
}
