package routing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/connection"
	"github.com/rickgao/replirouter/internal/metrics"
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Registry) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// Handler coordinates a connection registry and the per-model proxies
// resolving against it. One Handler may serve many models.
type Handler struct {
	registry *connection.Registry
	logger   *slog.Logger
	metrics  *metrics.Registry

	mu      sync.Mutex
	proxies map[string]*Proxy
}

// NewHandler creates a Handler over registry.
func NewHandler(registry *connection.Registry, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		logger:   slog.Default(),
		proxies:  make(map[string]*Proxy),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry returns the connection registry.
func (h *Handler) Registry() *connection.Registry {
	return h.registry
}

// Metrics returns the metrics registry, nil when metrics are disabled.
func (h *Handler) Metrics() *metrics.Registry {
	return h.metrics
}

// Logger returns the handler's logger.
func (h *Handler) Logger() *slog.Logger {
	return h.logger
}

// EstablishConnection registers the connections of spec under modelID.
// Callers re-establishing a model must RemoveConnection first.
func (h *Handler) EstablishConnection(ctx context.Context, modelID string, spec config.ModelConfig, opts ...connection.EstablishOption) error {
	return h.registry.Establish(ctx, modelID, spec, opts...)
}

// RemoveConnection closes and forgets every connection of modelID.
func (h *Handler) RemoveConnection(modelID string) {
	h.registry.Remove(modelID)
}

// RetrieveProxy returns the proxy of modelID, creating it on first use.
// Proxies are cached per model ID, so the returned proxy always resolves
// against modelID.
func (h *Handler) RetrieveProxy(modelID string) *Proxy {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.proxies[modelID]
	if !ok {
		p = newProxy(h, modelID)
		h.proxies[modelID] = p
	}
	return p
}

// Replicated reports whether modelID has at least one registered replica.
func (h *Handler) Replicated(modelID string) bool {
	return len(h.registry.Replicas(modelID)) > 0
}

// ClearActiveSlaveConnections releases checked-out replica connections of
// modelID. No-op for unreplicated models.
func (h *Handler) ClearActiveSlaveConnections(ctx context.Context, modelID string) error {
	if !h.Replicated(modelID) {
		return nil
	}
	return h.registry.ClearActive(ctx, modelID)
}

// ClearReloadableSlaveConnections releases idle replica connections of
// modelID. No-op for unreplicated models.
func (h *Handler) ClearReloadableSlaveConnections(ctx context.Context, modelID string) error {
	if !h.Replicated(modelID) {
		return nil
	}
	return h.registry.ClearIdle(ctx, modelID)
}

// ClearAllSlaveConnections releases every replica connection of modelID.
// No-op for unreplicated models.
func (h *Handler) ClearAllSlaveConnections(ctx context.Context, modelID string) error {
	if !h.Replicated(modelID) {
		return nil
	}
	return h.registry.ClearAll(ctx, modelID)
}
