package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_backend_requests_total",
			Help: "Total number of requests sent to the marketplace backend",
		},
		[]string{"method", "path", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_backend_request_duration_seconds",
			Help:    "Duration of marketplace backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	StageCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_intake_stage_completions_total",
			Help: "Intake stage completion attempts by outcome",
		},
		[]string{"stage", "outcome"},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_document_uploads_total",
			Help: "Document upload items by final status",
		},
		[]string{"status"},
	)

	ActiveEventStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_event_streams_active",
			Help: "Number of open intake event websocket streams",
		},
	)
)

// ObserveBackend records one backend round trip. Status 0 means the
// request never got a response.
func ObserveBackend(method, path string, status int, elapsed time.Duration) {
	BackendRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	BackendRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveStageCompletion records a completion attempt
func ObserveStageCompletion(stage int, outcome string) {
	StageCompletions.WithLabelValues(strconv.Itoa(stage), outcome).Inc()
}
