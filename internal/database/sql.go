package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"sync/atomic"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/rickgao/replirouter/internal/config"
)

// defaultMaxIdle mirrors database/sql's default idle limit.
const defaultMaxIdle = 2

// Driver names registered by the imported drivers.
var sqlDrivers = map[string]string{
	config.AdapterPQ:     "postgres",
	config.AdapterMySQL:  "mysql",
	config.AdapterSQLite: "sqlite",
}

var versionQueries = map[string]string{
	config.AdapterPQ:     "SHOW server_version",
	config.AdapterMySQL:  "SELECT VERSION()",
	config.AdapterSQLite: "SELECT sqlite_version()",
}

// SQLPool is a Pool backed by database/sql.
type SQLPool struct {
	name    string
	adapter string
	db      *sql.DB
	maxIdle int

	gen    atomic.Uint64
	closed atomic.Bool
}

// OpenSQL opens a database/sql pool for a pq, mysql or sqlite descriptor and
// verifies it with a ping.
func OpenSQL(ctx context.Context, name string, cfg config.DBConfig) (*SQLPool, error) {
	adapter := config.NormalizeAdapter(cfg.Adapter)
	driverName, ok := sqlDrivers[adapter]
	if !ok {
		return nil, &InvalidSpecError{Connection: name, Reason: fmt.Sprintf("adapter %q is not a database/sql adapter", cfg.Adapter)}
	}

	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, &InvalidSpecError{Connection: name, Reason: err.Error()}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", adapter, err)
	}

	p := NewSQLPool(name, adapter, db, cfg.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return p, nil
}

// NewSQLPool wraps an open *sql.DB. maxConns <= 0 leaves the pool unbounded.
func NewSQLPool(name, adapter string, db *sql.DB, maxConns int) *SQLPool {
	maxIdle := defaultMaxIdle
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		maxIdle = maxConns
	}
	db.SetMaxIdleConns(maxIdle)

	return &SQLPool{
		name:    name,
		adapter: config.NormalizeAdapter(adapter),
		db:      db,
		maxIdle: maxIdle,
	}
}

// Name returns the connection name the pool was opened under.
func (p *SQLPool) Name() string {
	return p.name
}

func (p *SQLPool) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	if p.closed.Load() {
		return nil, nil, ErrPoolClosed
	}

	gen := p.gen.Load()
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}

	var once sync.Once
	return c, func() { once.Do(func() { p.release(c, gen) }) }, nil
}

func (p *SQLPool) release(c *sql.Conn, gen uint64) {
	if p.gen.Load() != gen {
		// Returning ErrBadConn from Raw makes database/sql discard the
		// driver connection instead of pooling it.
		c.Raw(func(any) error { return driver.ErrBadConn })
	}
	c.Close()
}

// Exec runs a statement on a pooled connection.
func (p *SQLPool) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	c, release, err := p.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	res, err := c.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// QueryRow runs a single-row query. The connection is held until Scan.
func (p *SQLPool) QueryRow(ctx context.Context, query string, args ...any) Row {
	c, release, err := p.acquire(ctx)
	if err != nil {
		return ErrRow(err)
	}
	return &sqlRow{row: c.QueryRowContext(ctx, query, args...), release: release}
}

// Ping verifies the server is reachable.
func (p *SQLPool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	return p.db.PingContext(ctx)
}

// Connected reports whether the pool holds at least one connection.
func (p *SQLPool) Connected(ctx context.Context) bool {
	return !p.closed.Load() && p.db.Stats().OpenConnections > 0
}

// ServerVersion returns the server version reported by the adapter's
// version query.
func (p *SQLPool) ServerVersion(ctx context.Context) (string, error) {
	q, ok := versionQueries[p.adapter]
	if !ok {
		return "", fmt.Errorf("no version query for adapter %q", p.adapter)
	}

	var version string
	if err := p.QueryRow(ctx, q).Scan(&version); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return version, nil
}

// ReleaseIdle closes every idle connection.
func (p *SQLPool) ReleaseIdle(ctx context.Context) error {
	if p.closed.Load() {
		return nil
	}
	// Lowering the idle limit closes the surplus synchronously.
	p.db.SetMaxIdleConns(0)
	p.db.SetMaxIdleConns(p.maxIdle)
	return nil
}

// ReleaseActive marks every checked-out connection for destruction on release.
func (p *SQLPool) ReleaseActive(ctx context.Context) error {
	p.gen.Add(1)
	return nil
}

// ReleaseAll closes idle connections now and checked-out ones on release.
func (p *SQLPool) ReleaseAll(ctx context.Context) error {
	p.gen.Add(1)
	return p.ReleaseIdle(ctx)
}

// Stat returns pool statistics.
func (p *SQLPool) Stat() Stat {
	s := p.db.Stats()
	return Stat{
		Total:    s.OpenConnections,
		Idle:     s.Idle,
		Acquired: s.InUse,
	}
}

// Close closes the pool. Safe to call more than once.
func (p *SQLPool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.db.Close()
	}
}

// sqlRow releases its connection after Scan.
type sqlRow struct {
	row     *sql.Row
	release func()
}

func (r *sqlRow) Scan(dest ...any) error {
	defer r.release()
	return r.row.Scan(dest...)
}
