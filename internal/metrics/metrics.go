// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MarksSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marks_saved_total",
			Help: "Total number of mark rows upserted",
		},
		[]string{"event", "judge"},
	)

	LockTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_lock_toggles_total",
			Help: "Total number of applied event lock transitions",
		},
		[]string{"event", "state"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
