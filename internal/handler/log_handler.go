package handler

import (
	"net/http"
	"time"

	"github.com/Lutefd/logpulse/internal/commons"
	api_middleware "github.com/Lutefd/logpulse/internal/middleware"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/Lutefd/logpulse/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type LogHandler struct {
	ingestService service.IngestServiceInterface
	logService    service.LogServiceInterface
}

func NewLogHandler(ingestService service.IngestServiceInterface, logService service.LogServiceInterface) *LogHandler {
	return &LogHandler{
		ingestService: ingestService,
		logService:    logService,
	}
}

type ingestRequest struct {
	UUID string       `json:"uuid"`
	Log  model.RawLog `json:"log"`
}

func (h *LogHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := commons.DecodeJSON(w, r, &req, commons.MaxIngestBodyBytes); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	projectID, err := uuid.Parse(req.UUID)
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}

	id, err := h.ingestService.Ingest(r.Context(), projectID, req.Log, api_middleware.ClientIP(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	commons.RespondWithJSON(w, http.StatusCreated, id)
}

func (h *LogHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.LogFilter{
		Level:   q.Get("level"),
		Text:    q.Get("text"),
		Tag:     q.Get("tag"),
		Service: q.Get("service"),
		User:    q.Get("user"),
		IP:      q.Get("ip"),
	}

	if v := q.Get("uuid"); v != "" {
		projectID, err := uuid.Parse(v)
		if err != nil {
			commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
			return
		}
		filter.ProjectID = &projectID
	}

	var err error
	if filter.From, err = parseDate(q.Get("startDate"), false); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid startDate")
		return
	}
	if filter.To, err = parseDate(q.Get("endDate"), true); err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid endDate")
		return
	}

	records, err := h.logService.Query(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	logs := make([]model.LogRecord, 0)
	truncated := false
	for record := range records {
		if len(logs) == commons.MaxQueryResults {
			truncated = true
			break
		}
		logs = append(logs, record)
	}

	commons.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"logs":      logs,
		"count":     len(logs),
		"truncated": truncated,
	})
}

func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		commons.RespondWithError(w, http.StatusBadRequest, "Invalid project uuid")
		return
	}

	deleted, err := h.logService.DeleteWhere(r.Context(), model.DeleteFilter{
		ProjectID: &projectID,
		Level:     r.URL.Query().Get("level"),
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	commons.RespondWithJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
