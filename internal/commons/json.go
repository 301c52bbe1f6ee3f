package commons

import (
	"encoding/json"
	"net/http"

	"github.com/Lutefd/logpulse/internal/logger"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithErrorKind(w, code, msg, "")
}

// RespondWithErrorKind adds a machine-readable kind next to the message.
func RespondWithErrorKind(w http.ResponseWriter, code int, msg, kind string) {
	if code > 499 {
		logger.Errorf("responding with %d error: %s", code, msg)
	}
	RespondWithJSON(w, code, errorResponse{Error: msg, Kind: kind})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	dat, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("error marshalling JSON: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	w.Write(dat)
}

// DecodeJSON reads at most limit bytes of r's body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(dst)
}
