// Package api exposes task submission and polling over HTTP.
//
// Every response body is a JSON envelope carrying a success flag.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/poiesic/studyforge/core"
)

// Analyzer is the task surface the handlers drive.
type Analyzer interface {
	Submit(ctx context.Context, url, caseID string) (string, error)
	Progress(ctx context.Context, id string) (core.Progress, error)
	Result(ctx context.Context, id string) (core.ResultPayload, error)
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	URL    string `json:"url"    validate:"required,url"`
	CaseID string `json:"caseId" validate:"omitempty,max=128"`
}

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger means slog.Default.
func NewHandler(analyzer Analyzer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{analyzer: analyzer, logger: logger.With("component", "api")}
}

// Router returns the chi router with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/analyze", func(r chi.Router) {
		r.Post("/", h.Analyze)
		r.Get("/progress", h.Progress)
		r.Get("/result", h.Result)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			h.logger.Error("failed to write health check response", "err", err)
		}
	})
	return r
}

// Analyze submits a video link and returns the new task id.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validate.Struct(&req); err != nil {
		respondError(w, r, h.logger, http.StatusBadRequest, validationMessage(err), err)
		return
	}

	id, err := h.analyzer.Submit(r.Context(), req.URL, req.CaseID)
	if err != nil {
		respondError(w, r, h.logger, statusFor(err), messageFor(err), err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, envelope{Success: true, TaskID: id})
}

// Progress reports the step state of a task.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	p, err := h.analyzer.Progress(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, statusFor(err), messageFor(err), err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: p})
}

// Result returns the study result of a finished task.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	payload, err := h.analyzer.Result(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, statusFor(err), messageFor(err), err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, envelope{Success: true, Data: payload})
}

func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("taskId"))
	if id == "" {
		respondError(w, r, h.logger, http.StatusBadRequest, "taskId is required", nil)
		return "", false
	}
	return id, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	return "invalid request"
}
