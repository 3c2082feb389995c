package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/replirouter/internal/metrics"
	"github.com/rickgao/replirouter/internal/model"
	"github.com/rickgao/replirouter/internal/poller"
	"github.com/rickgao/replirouter/internal/routing"
	"github.com/rickgao/replirouter/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type connectionHealth struct {
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	LatencyMS float64    `json:"latency_ms,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

type modelHealth struct {
	Replicated  bool                        `json:"replicated"`
	Connections map[string]connectionHealth `json:"connections"`
}

type healthReport struct {
	Status  string                 `json:"status"`
	Version version.Info           `json:"version"`
	Models  map[string]modelHealth `json:"models"`
}

// newServeMux serves /health and the metrics endpoint.
func newServeMux(models []*model.Model, p *poller.Poller, m *metrics.Registry, metricsPath string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(models, p))
	mux.Handle(metricsPath, m.Handler())
	return mux
}

// healthHandler reports the poller's latest results. A failed or unpolled
// replica degrades the report; a failed master makes it unhealthy (503).
func healthHandler(models []*model.Model, p *poller.Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := p.Results()
		report := healthReport{
			Status:  statusHealthy,
			Version: version.Get(),
			Models:  make(map[string]modelHealth, len(models)),
		}

		degrade := func(name string) {
			if name == routing.Master {
				report.Status = statusUnhealthy
			} else if report.Status == statusHealthy {
				report.Status = statusDegraded
			}
		}

		for _, md := range models {
			mh := modelHealth{
				Replicated:  md.Replicated(),
				Connections: make(map[string]connectionHealth),
			}
			for _, name := range md.Names() {
				res, ok := results[md.ID()][name]
				switch {
				case !ok:
					mh.Connections[name] = connectionHealth{Status: "unknown"}
					degrade(name)
				case res.Up():
					mh.Connections[name] = connectionHealth{
						Status:    "connected",
						LatencyMS: float64(res.Latency.Microseconds()) / 1000,
						CheckedAt: &res.CheckedAt,
					}
				default:
					mh.Connections[name] = connectionHealth{
						Status:    "disconnected",
						Error:     res.Err.Error(),
						CheckedAt: &res.CheckedAt,
					}
					degrade(name)
				}
			}
			report.Models[md.ID()] = mh
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Status == statusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
