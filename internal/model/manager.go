package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/database"
)

// Errors
var (
	ErrNotEstablished = errors.New("connection not established")
)

// ConnectionManager is the host's base connection management for a single
// model: one primary pool and its lifecycle.
type ConnectionManager interface {
	EstablishConnection(ctx context.Context, cfg config.ModelConfig) error
	// Connection returns the primary pool, nil before EstablishConnection.
	Connection() database.Pool
	Connected(ctx context.Context) bool
	ClearActiveConnections(ctx context.Context) error
	ClearReloadableConnections(ctx context.Context) error
	ClearAllConnections(ctx context.Context) error
	Config() config.ModelConfig
	Close()
}

// PoolManager is a ConnectionManager owning one primary pool.
type PoolManager struct {
	open   database.Opener
	logger *slog.Logger

	mu   sync.RWMutex
	pool database.Pool
	cfg  config.ModelConfig
}

// NewPoolManager creates a PoolManager opening pools with open.
// A nil open defaults to database.Open.
func NewPoolManager(open database.Opener, logger *slog.Logger) *PoolManager {
	if open == nil {
		open = database.Open
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PoolManager{open: open, logger: logger}
}

// EstablishConnection opens a primary pool for cfg and replaces the current
// one, closing it.
func (m *PoolManager) EstablishConnection(ctx context.Context, cfg config.ModelConfig) error {
	pool, err := m.open(ctx, config.MasterName, cfg.DBConfig)
	if err != nil {
		return fmt.Errorf("establish primary: %w", err)
	}

	m.mu.Lock()
	old := m.pool
	m.pool = pool
	m.cfg = cfg
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

func (m *PoolManager) Connection() database.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

func (m *PoolManager) Config() config.ModelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *PoolManager) Connected(ctx context.Context) bool {
	pool := m.Connection()
	return pool != nil && pool.Connected(ctx)
}

func (m *PoolManager) ClearActiveConnections(ctx context.Context) error {
	return m.release(ctx, database.Pool.ReleaseActive)
}

func (m *PoolManager) ClearReloadableConnections(ctx context.Context) error {
	return m.release(ctx, database.Pool.ReleaseIdle)
}

func (m *PoolManager) ClearAllConnections(ctx context.Context) error {
	return m.release(ctx, database.Pool.ReleaseAll)
}

func (m *PoolManager) release(ctx context.Context, fn func(database.Pool, context.Context) error) error {
	pool := m.Connection()
	if pool == nil {
		return nil
	}
	return fn(pool, ctx)
}

// Close closes the primary pool. The manager can be established again.
func (m *PoolManager) Close() {
	m.mu.Lock()
	pool := m.pool
	m.pool = nil
	m.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}

var _ ConnectionManager = (*PoolManager)(nil)
