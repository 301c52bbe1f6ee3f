package handler

import (
	"errors"
	"net/http"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/model"
)

func respondWithServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		commons.RespondWithErrorKind(w, http.StatusBadRequest, verr.Error(), string(verr.Kind))
	case errors.Is(err, model.ErrInvalidPingDefinition), errors.Is(err, model.ErrInvalidProject),
		errors.Is(err, model.ErrInvalidBlacklist), errors.Is(err, model.ErrInvalidSettings):
		commons.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		commons.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrAccessDenied):
		commons.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrProtectedProject), errors.Is(err, model.ErrAlreadyBlacklisted):
		commons.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "5")
		commons.RespondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		commons.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
