package database

import (
	"context"
	"fmt"

	"github.com/rickgao/replirouter/internal/config"
)

// Opener opens a named pool from a descriptor. Registries take an Opener so
// tests can substitute in-memory pools.
type Opener func(ctx context.Context, name string, cfg config.DBConfig) (Pool, error)

// Open opens a pool for cfg's adapter.
func Open(ctx context.Context, name string, cfg config.DBConfig) (Pool, error) {
	switch adapter := config.NormalizeAdapter(cfg.Adapter); adapter {
	case config.AdapterPostgres:
		p, err := Connect(ctx, name, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", name, err)
		}
		return p, nil
	case config.AdapterPQ, config.AdapterMySQL, config.AdapterSQLite:
		p, err := OpenSQL(ctx, name, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", name, err)
		}
		return p, nil
	default:
		return nil, &InvalidSpecError{Connection: name, Reason: fmt.Sprintf("adapter %q is not supported", cfg.Adapter)}
	}
}

// Compile-time interface checks.
var (
	_ Pool = (*PgxPool)(nil)
	_ Pool = (*SQLPool)(nil)
)
