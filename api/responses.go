package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/storage"
)

var validate = validator.New()

// envelope is the body of every api response.
type envelope struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string, err error) {
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "api error response",
		"path", r.URL.Path,
		"method", r.Method,
		"status_code", status,
		"err", err)
	respondJSON(w, logger, status, envelope{Error: message})
}

// statusFor maps pipeline and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTaskNotReady):
		return http.StatusAccepted
	case errors.Is(err, core.ErrTaskFailed):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing text for err. Validation and task
// failures carry their own message; everything else is masked.
func messageFor(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrTaskFailed):
		return err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return "task not found"
	case errors.Is(err, core.ErrTaskNotReady):
		return "task is still running"
	default:
		return "an unexpected error occurred"
	}
}
