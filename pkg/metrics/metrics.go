package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CapturesTotal       *prometheus.CounterVec
	CaptureDuration     *prometheus.HistogramVec
	SubOperationsTotal  *prometheus.CounterVec
	CapturesInQueue     prometheus.Gauge
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		CapturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "captures_total",
				Help: "Total number of capture invocations.",
			},
			[]string{"status"}, // status: completed, failed, not_ready
		),
		CaptureDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capture_duration_seconds",
				Help:    "Duration of capture invocations.",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"frame"}, // frame: main, sub
		),
		SubOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capture_subops_total",
				Help: "Total number of capture sub-operations.",
			},
			[]string{"kind", "outcome"}, // kind: download, frame; outcome: saved, fallback, skipped
		),
		CapturesInQueue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "capture_queue_depth",
				Help: "Current number of capture jobs in the queue.",
			},
		),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func (m *Metrics) IncCaptures(status string) {
	if m == nil {
		return
	}
	m.CapturesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCapture(mainFrame bool, d time.Duration) {
	if m == nil {
		return
	}
	frame := "sub"
	if mainFrame {
		frame = "main"
	}
	m.CaptureDuration.WithLabelValues(frame).Observe(d.Seconds())
}

func (m *Metrics) IncSubOperations(kind, outcome string) {
	if m == nil {
		return
	}
	m.SubOperationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SetQueueDepth(n int64) {
	if m == nil {
		return
	}
	m.CapturesInQueue.Set(float64(n))
}
