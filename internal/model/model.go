package model

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/connection"
	"github.com/rickgao/replirouter/internal/database"
	"github.com/rickgao/replirouter/internal/routing"
)

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. Defaults to the handler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Model adds replica routing to a ConnectionManager.
type Model struct {
	id         string
	base       ConnectionManager
	handler    *routing.Handler
	logger     *slog.Logger
	replicated atomic.Bool
}

// New creates a Model identified by id. Many models may share one handler.
func New(id string, base ConnectionManager, handler *routing.Handler, opts ...Option) *Model {
	m := &Model{
		id:      id,
		base:    base,
		handler: handler,
		logger:  handler.Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the model identifier.
func (m *Model) ID() string {
	return m.id
}

// Base returns the wrapped ConnectionManager.
func (m *Model) Base() ConnectionManager {
	return m.base
}

// Replicated reports whether the established config declares replicas.
func (m *Model) Replicated() bool {
	return m.replicated.Load()
}

// EstablishConnection establishes the primary through the base manager and,
// when cfg declares replicas, registers them with the handler alongside the
// base primary. Any previous registration of the model is removed first.
func (m *Model) EstablishConnection(ctx context.Context, cfg config.ModelConfig) error {
	if cfg.Replicated() {
		// Reject a bad replica spec before touching the running primary.
		if _, err := database.DeriveConnections(cfg); err != nil {
			return err
		}
	}

	m.replicated.Store(false)
	m.handler.RemoveConnection(m.id)

	if err := m.base.EstablishConnection(ctx, cfg); err != nil {
		return err
	}
	if !cfg.Replicated() {
		m.logger.Info("model established", "model", m.id, "replicated", false)
		return nil
	}

	err := m.handler.EstablishConnection(ctx, m.id, cfg, connection.WithPrimary(m.base.Connection()))
	if err != nil {
		return err
	}
	m.replicated.Store(true)

	m.logger.Info("model established",
		"model", m.id,
		"replicated", true,
		"replicas", m.handler.Registry().Replicas(m.id),
	)
	return nil
}

// Names returns the connection names the model can be scoped to, master
// first. An unreplicated model only has master.
func (m *Model) Names() []string {
	if m.Replicated() {
		return m.handler.Registry().Names(m.id)
	}
	return []string{routing.Master}
}

// Connection returns the routing proxy of a replicated model, or the base
// primary pool otherwise. It is nil for an unreplicated model that was never
// established.
func (m *Model) Connection() database.Conn {
	if m.Replicated() {
		return m.handler.RetrieveProxy(m.id)
	}
	if pool := m.base.Connection(); pool != nil {
		return pool
	}
	return nil
}

func (m *Model) conn() (database.Conn, error) {
	conn := m.Connection()
	if conn == nil {
		return nil, ErrNotEstablished
	}
	return conn, nil
}

// Connected reports whether the connection ctx resolves to is connected.
func (m *Model) Connected(ctx context.Context) bool {
	if m.Replicated() {
		return m.handler.RetrieveProxy(m.id).Connected(ctx)
	}
	return m.base.Connected(ctx)
}

// Ping pings the named connection.
func (m *Model) Ping(ctx context.Context, name string) error {
	return m.Using(ctx, name, func(ctx context.Context) error {
		conn, err := m.conn()
		if err != nil {
			return err
		}
		return conn.Ping(ctx)
	})
}

// Using runs fn with a ctx that selects the named connection. The caller's
// ctx is left as it was, so the selection ends with fn on every exit path
// and goroutines fn starts from its ctx inherit the selection without
// sharing it. On an unreplicated model fn simply runs.
func (m *Model) Using(ctx context.Context, name string, fn func(context.Context) error) error {
	if !m.Replicated() {
		return fn(ctx)
	}
	return fn(routing.WithScope(ctx, name))
}

// Scope returns a handle running every call through Using(name).
func (m *Model) Scope(name string) *Scoped {
	return &Scoped{model: m, name: name}
}

// Lock runs l against master, whatever connection ctx currently selects.
// ctx keeps its selection for whatever the caller does next.
func (m *Model) Lock(ctx context.Context, l RowLocker) error {
	if !m.Replicated() {
		conn, err := m.conn()
		if err != nil {
			return err
		}
		return l.Lock(ctx, conn)
	}

	prev, _ := routing.Current(ctx)
	m.handler.Metrics().RecordLockOverride(m.id, prev)

	return l.Lock(routing.ForceScope(ctx, routing.Master), m.handler.RetrieveProxy(m.id))
}

// ClearActiveConnections clears the base pool's checked-out connections,
// then those of every replica.
func (m *Model) ClearActiveConnections(ctx context.Context) error {
	return errors.Join(
		m.base.ClearActiveConnections(ctx),
		m.handler.ClearActiveSlaveConnections(ctx, m.id),
	)
}

// ClearReloadableConnections clears idle connections of the base pool and
// every replica.
func (m *Model) ClearReloadableConnections(ctx context.Context) error {
	return errors.Join(
		m.base.ClearReloadableConnections(ctx),
		m.handler.ClearReloadableSlaveConnections(ctx, m.id),
	)
}

// ClearAllConnections clears every connection of the base pool and every
// replica.
func (m *Model) ClearAllConnections(ctx context.Context) error {
	return errors.Join(
		m.base.ClearAllConnections(ctx),
		m.handler.ClearAllSlaveConnections(ctx, m.id),
	)
}

// Close removes the model's replicas and closes the base.
func (m *Model) Close() {
	m.replicated.Store(false)
	m.handler.RemoveConnection(m.id)
	m.base.Close()
}
