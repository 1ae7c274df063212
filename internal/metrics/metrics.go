package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtool_remote_requests_total",
			Help: "Licensing API calls by operation and outcome",
		},
		[]string{"operation", "outcome"}, // ok|conflict|failed|unreachable
	)

	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dmtool_remote_request_duration_seconds",
			Help:    "Licensing API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DashboardRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtool_dashboard_requests_total",
			Help: "Dashboard requests by route and status code",
		},
		[]string{"route", "code"},
	)

	ChangeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmtool_change_events_total",
			Help: "Change events by type and publish result",
		},
		[]string{"type", "result"}, // published|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RemoteRequestsTotal,
		RemoteRequestDuration,
		DashboardRequestsTotal,
		ChangeEventsTotal,
	)
}

var defaultOnce sync.Once

// MustRegisterDefault registers the collectors on prometheus.DefaultRegisterer.
// Repeated calls are no-ops.
func MustRegisterDefault() {
	defaultOnce.Do(func() { MustRegister(prometheus.DefaultRegisterer) })
}
