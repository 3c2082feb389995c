package routing

import (
	"context"

	"github.com/rickgao/replirouter/internal/database"
)

// Proxy stands in for a model's connection. Every call resolves the named
// connection from the caller's routing Context and forwards to it.
//
// A Proxy is bound to one model for its whole life. The Handler caches one
// per model ID.
type Proxy struct {
	handler *Handler
	model   string
}

func newProxy(h *Handler, modelID string) *Proxy {
	return &Proxy{handler: h, model: modelID}
}

// Model returns the model the proxy resolves against.
func (p *Proxy) Model() string {
	return p.model
}

// ResolvedName returns the connection name ctx resolves to.
func (p *Proxy) ResolvedName(ctx context.Context) string {
	return Resolve(ctx)
}

// Target resolves the pool serving ctx. Unknown names fail here, at the
// point of use, never at scope entry.
func (p *Proxy) Target(ctx context.Context) (database.Pool, error) {
	model := p.model
	rc, _ := FromContext(ctx)
	name := rc.Resolve()

	pool, err := p.handler.registry.Get(model, name)
	if err != nil {
		p.handler.metrics.RecordResolutionError(model, name)
		return nil, err
	}

	p.handler.metrics.RecordResolution(model, name)
	if rc != nil {
		p.handler.logger.Debug("connection resolved",
			"model", model,
			"connection", name,
			"unit", rc.ID(),
		)
	}
	return pool, nil
}

// Exec runs a statement on the resolved connection.
func (p *Proxy) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	pool, err := p.Target(ctx)
	if err != nil {
		return 0, err
	}
	return pool.Exec(ctx, sql, args...)
}

// QueryRow runs a single-row query on the resolved connection.
func (p *Proxy) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	pool, err := p.Target(ctx)
	if err != nil {
		return database.ErrRow(err)
	}
	return pool.QueryRow(ctx, sql, args...)
}

// Ping pings the resolved connection.
func (p *Proxy) Ping(ctx context.Context) error {
	pool, err := p.Target(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Connected reports whether the resolved connection is connected. An
// unresolvable name is reported as not connected.
func (p *Proxy) Connected(ctx context.Context) bool {
	pool, err := p.Target(ctx)
	if err != nil {
		return false
	}
	return pool.Connected(ctx)
}

// ServerVersion queries the resolved connection's server version.
func (p *Proxy) ServerVersion(ctx context.Context) (string, error) {
	pool, err := p.Target(ctx)
	if err != nil {
		return "", err
	}
	return pool.ServerVersion(ctx)
}

var _ database.Conn = (*Proxy)(nil)
