// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohost_remote_requests_total",
			Help: "Total number of calls made to the co-host API",
		},
		[]string{"endpoint", "outcome"},
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cohost_remote_request_duration_seconds",
			Help:    "Duration of co-host API calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	SchemaDrift = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohost_schema_drift_total",
			Help: "Responses from the co-host API that did not match the expected schema",
		},
		[]string{"endpoint"},
	)

	DashboardActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohost_dashboard_actions_total",
			Help: "Dashboard actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cohost_sessions_active",
			Help: "Number of dashboard sessions held by the in-memory store",
		},
	)
)
