package handler

import (
	"net/http"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projectService service.ProjectServiceInterface
}

func NewProjectHandler(projectService service.ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func decodeProject(w http.ResponseWriter, r *http.Request) (model.Project, error) {
	var project model.Project
	if err := commons.DecodeJSON(w, r, &project, commons.MaxRequestBodyBytes); err != nil {
		return model.Project{}, err
	}
	project.ID = uuid.Nil
	return project, nil
}

func projectID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	return id, err == nil
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	project, err := decodeProject(w, r)
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.projectService.Create(r.Context(), &project); err != nil {
		respondWithServiceError(w, err)
		return
	}

	commons.RespondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}

	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}
	project, err := decodeProject(w, r)
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	project.ID = id

	if err := h.projectService.Update(r.Context(), &project); err != nil {
		respondWithServiceError(w, err)
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}

	logs, pings, err := h.projectService.Delete(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	commons.RespondWithJSON(w, http.StatusOK, map[string]int{
		"deleted_logs":          logs,
		"deleted_ping_services": pings,
	})
}
