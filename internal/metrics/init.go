package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRoutingMetrics() {
	r.ResolutionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "replirouter_resolutions_total",
			Help: "Total number of connection resolutions by model and connection",
		},
		[]string{"model", "connection"},
	)

	r.ResolutionErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "replirouter_resolution_errors_total",
			Help: "Total number of resolutions that named an unregistered connection",
		},
		[]string{"model", "connection"},
	)

	r.LockOverridesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "replirouter_lock_overrides_total",
			Help: "Total number of row locks routed to the primary",
		},
		[]string{"model", "scope"}, // scope: the name that was active before the lock, or "unset"
	)
}

func (r *Registry) initPoolMetrics() {
	r.ConnectionsRegistered = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "replirouter_connections_registered",
			Help: "Number of named connections registered per model",
		},
		[]string{"model"},
	)

	r.EstablishTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "replirouter_establish_total",
			Help: "Total number of connection establishments by model and status",
		},
		[]string{"model", "status"}, // ok, error
	)

	r.ClearsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "replirouter_replica_clears_total",
			Help: "Total number of replica clear fan-outs by model and release tier",
		},
		[]string{"model", "tier"}, // idle, active, all
	)
}

func (r *Registry) initHealthMetrics() {
	r.ConnectionUp = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "replirouter_connection_up",
			Help: "Whether the last health poll reached the connection (1) or not (0)",
		},
		[]string{"model", "connection"},
	)

	r.PingDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "replirouter_ping_duration_seconds",
			Help:    "Health poll ping latency by model and connection",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"model", "connection"},
	)
}
