// Package mock provides in-memory implementations of database.Pool and
// database.Opener for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/database"
)

// Pool is an in-memory database.Pool. QueryRow scans the pool's target
// label into the first destination, so tests can tell which pool served a
// query.
type Pool struct {
	mu sync.RWMutex

	name   string
	target string
	cfg    config.DBConfig

	connected bool
	closed    bool
	execs     []string

	releasedIdle   int
	releasedActive int
	releasedAll    int

	execErr    error
	pingErr    error
	releaseErr error
	onExec     func(sql string)
}

// NewPool creates a connected mock pool.
func NewPool(name string, cfg config.DBConfig) *Pool {
	return &Pool{
		name:      name,
		target:    Target(cfg),
		cfg:       cfg,
		connected: true,
	}
}

// Target labels a descriptor by the first of dsn, host or name that is set.
func Target(cfg config.DBConfig) string {
	switch {
	case cfg.DSN != "":
		return cfg.DSN
	case cfg.Host != "":
		return cfg.Host
	default:
		return cfg.Name
	}
}

// WithExecError makes Exec return err.
func (p *Pool) WithExecError(err error) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.execErr = err
	return p
}

// WithPingError makes Ping return err.
func (p *Pool) WithPingError(err error) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingErr = err
	return p
}

// WithReleaseError makes every Release* call return err.
func (p *Pool) WithReleaseError(err error) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseErr = err
	return p
}

// OnExec registers a hook called with every statement passed to Exec,
// before the statement is recorded.
func (p *Pool) OnExec(f func(sql string)) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onExec = f
	return p
}

// Name returns the connection name.
func (p *Pool) Name() string {
	return p.name
}

// Target returns the label of the descriptor the pool was opened with.
func (p *Pool) Target() string {
	return p.target
}

// Config returns the descriptor the pool was opened with.
func (p *Pool) Config() config.DBConfig {
	return p.cfg
}

// Exec records sql.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	p.mu.RLock()
	hook := p.onExec
	p.mu.RUnlock()
	if hook != nil {
		hook(sql)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, database.ErrPoolClosed
	}
	if p.execErr != nil {
		return 0, p.execErr
	}
	p.execs = append(p.execs, sql)
	p.connected = true
	return 1, nil
}

// QueryRow returns a row holding the pool's target label.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return database.ErrRow(database.ErrPoolClosed)
	}
	p.execs = append(p.execs, sql)
	p.connected = true
	return row{value: p.target}
}

// Ping returns the configured ping error.
func (p *Pool) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return database.ErrPoolClosed
	}
	return p.pingErr
}

// Connected reports the simulated connection state.
func (p *Pool) Connected(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && !p.closed
}

// ServerVersion returns "mock-" followed by the target label.
func (p *Pool) ServerVersion(ctx context.Context) (string, error) {
	var v string
	if err := p.QueryRow(ctx, "SELECT version()").Scan(&v); err != nil {
		return "", err
	}
	return "mock-" + v, nil
}

// ReleaseIdle counts the call.
func (p *Pool) ReleaseIdle(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releasedIdle++
	return p.releaseErr
}

// ReleaseActive counts the call.
func (p *Pool) ReleaseActive(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releasedActive++
	return p.releaseErr
}

// ReleaseAll counts the call and disconnects the pool.
func (p *Pool) ReleaseAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releasedAll++
	if p.releaseErr != nil {
		return p.releaseErr
	}
	p.connected = false
	return nil
}

// Stat returns one idle connection while connected.
func (p *Pool) Stat() database.Stat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.connected || p.closed {
		return database.Stat{}
	}
	return database.Stat{Total: 1, Idle: 1}
}

// Close marks the pool closed.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.connected = false
}

// Closed reports whether Close was called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Execs returns every statement executed so far.
func (p *Pool) Execs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.execs...)
}

// Releases returns the idle, active and all release counts.
func (p *Pool) Releases() (idle, active, all int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.releasedIdle, p.releasedActive, p.releasedAll
}

type row struct {
	value string
}

func (r row) Scan(dest ...any) error {
	if len(dest) == 0 {
		return nil
	}
	s, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("mock row: cannot scan into %T", dest[0])
	}
	*s = r.value
	return nil
}

// Opener opens mock pools and remembers them by target label.
type Opener struct {
	mu     sync.Mutex
	pools  map[string]*Pool
	opened []*Pool
	fail   map[string]error
}

// NewOpener creates an empty Opener.
func NewOpener() *Opener {
	return &Opener{
		pools: make(map[string]*Pool),
		fail:  make(map[string]error),
	}
}

// FailOn makes Open return err for descriptors labelled target.
func (o *Opener) FailOn(target string, err error) *Opener {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail[target] = err
	return o
}

// Open implements database.Opener.
func (o *Opener) Open(ctx context.Context, name string, cfg config.DBConfig) (database.Pool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	target := Target(cfg)
	if err, ok := o.fail[target]; ok {
		return nil, err
	}

	p := NewPool(name, cfg)
	o.pools[target] = p
	o.opened = append(o.opened, p)
	return p, nil
}

// Pool returns the most recent pool opened for target.
func (o *Opener) Pool(target string) *Pool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pools[target]
}

// Opened returns every pool opened so far, in order.
func (o *Opener) Opened() []*Pool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Pool(nil), o.opened...)
}

// Compile-time interface checks.
var (
	_ database.Pool   = (*Pool)(nil)
	_ database.Opener = (*Opener)(nil).Open
)
