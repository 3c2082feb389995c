package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/replirouter/internal/config"
)

// hijackCloseTimeout bounds closing a connection taken out of a pool.
const hijackCloseTimeout = 5 * time.Second

// PgxPool is a Pool backed by a pgx connection pool.
type PgxPool struct {
	name string
	pool *pgxpool.Pool

	// Bumped by ReleaseActive; connections acquired under an older
	// generation are destroyed on release.
	gen    atomic.Uint64
	closed atomic.Bool
}

// Connect creates a single pgx connection pool and verifies it with a ping.
func Connect(ctx context.Context, name string, cfg config.DBConfig) (*PgxPool, error) {
	poolCfg, err := ParsePgxConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PgxPool{name: name, pool: pool}, nil
}

// ParsePgxConfig builds a pgx pool config from a descriptor.
func ParsePgxConfig(cfg config.DBConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MinConns = int32(cfg.MinConns)

	return poolCfg, nil
}

// Name returns the connection name the pool was opened under.
func (p *PgxPool) Name() string {
	return p.name
}

func (p *PgxPool) acquire(ctx context.Context) (*pgxpool.Conn, func(), error) {
	if p.closed.Load() {
		return nil, nil, ErrPoolClosed
	}

	gen := p.gen.Load()
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}

	var once sync.Once
	return c, func() { once.Do(func() { p.release(c, gen) }) }, nil
}

func (p *PgxPool) release(c *pgxpool.Conn, gen uint64) {
	if p.gen.Load() == gen {
		c.Release()
		return
	}

	conn := c.Hijack()
	ctx, cancel := context.WithTimeout(context.Background(), hijackCloseTimeout)
	defer cancel()
	conn.Close(ctx)
}

// Exec runs a statement on a pooled connection.
func (p *PgxPool) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	c, release, err := p.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	tag, err := c.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// QueryRow runs a single-row query. The connection is held until Scan.
func (p *PgxPool) QueryRow(ctx context.Context, sql string, args ...any) Row {
	c, release, err := p.acquire(ctx)
	if err != nil {
		return ErrRow(err)
	}
	return &pgxRow{row: c.QueryRow(ctx, sql, args...), release: release}
}

// Ping verifies the server is reachable.
func (p *PgxPool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	return p.pool.Ping(ctx)
}

// Connected reports whether the pool holds at least one connection.
func (p *PgxPool) Connected(ctx context.Context) bool {
	return !p.closed.Load() && p.pool.Stat().TotalConns() > 0
}

// ServerVersion returns the PostgreSQL server version.
func (p *PgxPool) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := p.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return version, nil
}

// ReleaseIdle closes every idle connection.
func (p *PgxPool) ReleaseIdle(ctx context.Context) error {
	if p.closed.Load() {
		return nil
	}

	var errs []error
	for _, c := range p.pool.AcquireAllIdle(ctx) {
		if err := c.Hijack().Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReleaseActive marks every checked-out connection for destruction on release.
func (p *PgxPool) ReleaseActive(ctx context.Context) error {
	p.gen.Add(1)
	return nil
}

// ReleaseAll closes idle connections now and checked-out ones on release.
func (p *PgxPool) ReleaseAll(ctx context.Context) error {
	if p.closed.Load() {
		return nil
	}
	p.gen.Add(1)
	p.pool.Reset()
	return nil
}

// Stat returns pool statistics.
func (p *PgxPool) Stat() Stat {
	s := p.pool.Stat()
	return Stat{
		Total:    int(s.TotalConns()),
		Idle:     int(s.IdleConns()),
		Acquired: int(s.AcquiredConns()),
	}
}

// Close closes the pool. Safe to call more than once.
func (p *PgxPool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.pool.Close()
	}
}

// pgxRow releases its connection after Scan.
type pgxRow struct {
	row     pgx.Row
	release func()
}

func (r *pgxRow) Scan(dest ...any) error {
	defer r.release()
	return r.row.Scan(dest...)
}
