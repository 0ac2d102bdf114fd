package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/capture"
	"github.com/jack23912/webscrapbook/internal/delivery/http/request"
	"github.com/jack23912/webscrapbook/internal/delivery/http/response"
	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/usecase"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	sessions  usecase.SessionManager
	capturer  usecase.Capturer
	artifacts http.Handler
	defaults  entity.CaptureOptions
	checks    map[string]HealthCheck
	logger    *zap.Logger
}

func NewHandler(
	sessions usecase.SessionManager,
	capturer usecase.Capturer,
	artifacts http.FileSystem,
	defaults entity.CaptureOptions,
	checks map[string]HealthCheck,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:  sessions,
		capturer:  capturer,
		artifacts: http.StripPrefix("/api/artifacts", http.FileServer(artifacts)),
		defaults:  defaults,
		checks:    checks,
		logger:    logger.Named("http"),
	}
}

func (h *Handler) HandleSubmitCapture(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	sessionID, err := h.sessions.Submit(r.Context(), req)
	if err != nil {
		if isClientError(err) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to submit capture", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitCaptureResponse{
		Status:    "success",
		Message:   "URL submitted for capture",
		SessionID: sessionID,
	})
}

func (h *Handler) HandleCaptureSync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if err := usecase.ValidateRequest(req); err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.capturer.Capture(r.Context(), req)
	if err != nil {
		if errors.Is(err, capture.ErrDocumentNotReady) {
			h.writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("Synchronous capture failed", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Capture failed", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, response.CaptureResultResponse{
		SessionID:    req.SessionID,
		DocumentName: res.DocumentName,
		Reference:    res.Reference,
		Mime:         res.Mime,
		ArtifactURL:  artifactURL(req.SessionID, res.Reference),
	})
}

// artifactURL points at a saved document. The file server answers index.html
// on the session directory itself.
func artifactURL(sessionID, reference string) string {
	if reference == "index.html" {
		return path.Join("/api/artifacts", sessionID) + "/"
	}
	return path.Join("/api/artifacts", sessionID, reference)
}

func (h *Handler) HandleGetCaptureStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	status, err := h.sessions.GetStatus(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			h.writeJSONError(w, "Capture session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get capture status", zap.String("session_id", sessionID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.SessionStatusResponse{
		SessionID:     status.SessionID,
		CurrentStatus: status.Record.Status,
		Record:        status.Record,
		Failures:      status.Failures,
	})
}

func (h *Handler) HandleArtifacts(w http.ResponseWriter, r *http.Request) {
	h.artifacts.ServeHTTP(w, r)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthStatus[name] = "unhealthy"
			healthy = false
			h.logger.Error("Health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		healthStatus[name] = "healthy"
	}

	if !healthy {
		healthStatus["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	h.writeJSON(w, http.StatusOK, healthStatus)
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (*entity.CaptureRequest, bool) {
	var body request.SubmitCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	req, err := body.ToEntity(h.defaults)
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return req, true
}

func isClientError(err error) bool {
	return errors.Is(err, usecase.ErrInvalidURL) ||
		errors.Is(err, entity.ErrInvalidPolicy) ||
		errors.Is(err, entity.ErrInvalidCategory) ||
		errors.Is(err, entity.ErrInvalidBaseHrefMode)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
