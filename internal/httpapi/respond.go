package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Roshan0411/medlearn-ai/internal/lesson"
)

const maxBodyBytes = 1 << 20

// errorBody is the error payload; clients read "detail".
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeServiceError maps lesson errors to a status. Internal errors are
// logged and replaced with fallback, which names the failed operation.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, lesson.ErrInvalidLevel), errors.Is(err, lesson.ErrInvalidTopic):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lesson.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	default:
		slog.Error(fallback, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
