package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Routing Metrics
	ResolutionsTotal      *prometheus.CounterVec
	ResolutionErrorsTotal *prometheus.CounterVec
	LockOverridesTotal    *prometheus.CounterVec

	// Pool Lifecycle Metrics
	ConnectionsRegistered *prometheus.GaugeVec
	EstablishTotal        *prometheus.CounterVec
	ClearsTotal           *prometheus.CounterVec

	// Health Metrics
	ConnectionUp *prometheus.GaugeVec
	PingDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initRoutingMetrics()
	r.initPoolMetrics()
	r.initHealthMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
