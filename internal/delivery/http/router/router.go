package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jack23912/webscrapbook/internal/delivery/http/handler"
	"github.com/jack23912/webscrapbook/internal/delivery/http/middleware"
	"github.com/jack23912/webscrapbook/pkg/metrics"
)

// New builds the API router. gatherer serves /metrics.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/captures", h.HandleSubmitCapture)
		r.Post("/captures/sync", h.HandleCaptureSync)
		r.Get("/captures/{sessionID}", h.HandleGetCaptureStatus)
		r.Get("/artifacts/*", h.HandleArtifacts)
	})

	return r
}
