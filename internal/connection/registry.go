package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/database"
	"github.com/rickgao/replirouter/internal/metrics"
)

// Registry owns the named connection pools of every model.
type Registry struct {
	open    database.Opener
	logger  *slog.Logger
	metrics *metrics.Registry

	mu     sync.RWMutex
	models map[string]*modelConns
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		open:   database.Open,
		logger: slog.Default(),
		models: make(map[string]*modelConns),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Establish derives the master and replica descriptors from spec, opens
// them concurrently and registers them under modelID. An invalid spec is
// returned unchanged and nothing is opened. If any pool fails to open, the
// pools already opened are closed and the model is left unregistered.
//
// Callers re-establishing a model should Remove it first.
func (r *Registry) Establish(ctx context.Context, modelID string, spec config.ModelConfig, opts ...EstablishOption) error {
	var o establishOptions
	for _, opt := range opts {
		opt(&o)
	}

	named, err := database.DeriveConnections(spec)
	if err != nil {
		r.metrics.RecordEstablish(modelID, 0, err)
		return err
	}

	toOpen := named
	if o.primary != nil {
		toOpen = named[1:]
	}

	pools := make([]database.Pool, len(toOpen))
	g, gctx := errgroup.WithContext(ctx)
	for i, nc := range toOpen {
		g.Go(func() error {
			p, err := r.open(gctx, nc.Name, nc.Config)
			if err != nil {
				return fmt.Errorf("open %s for model %s: %w", nc.Name, modelID, err)
			}
			pools[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range pools {
			if p != nil {
				p.Close()
			}
		}
		r.metrics.RecordEstablish(modelID, 0, err)
		return err
	}

	mc := &modelConns{conns: make(map[string]entry, len(named))}
	if o.primary != nil {
		mc.conns[MasterName] = entry{pool: o.primary}
	}
	for i, nc := range toOpen {
		mc.conns[nc.Name] = entry{pool: pools[i], owned: true}
		if nc.Name != MasterName {
			mc.replicas = append(mc.replicas, nc.Name)
		}
	}

	r.mu.Lock()
	old := r.models[modelID]
	r.models[modelID] = mc
	r.mu.Unlock()

	if old != nil {
		r.logger.Warn("model re-established without remove, closing replaced connections",
			"model", modelID,
		)
		old.close()
	}

	r.metrics.RecordEstablish(modelID, len(mc.conns), nil)
	r.logger.Info("connections established",
		"model", modelID,
		"replicas", mc.replicas,
		"shared_primary", o.primary != nil,
	)
	return nil
}

// Remove closes and discards every connection owned by modelID. Removing an
// unregistered model is a no-op.
func (r *Registry) Remove(modelID string) {
	r.mu.Lock()
	mc, ok := r.models[modelID]
	delete(r.models, modelID)
	r.mu.Unlock()

	if !ok {
		return
	}

	mc.close()
	r.metrics.RecordRemove(modelID)
	r.logger.Info("connections removed", "model", modelID)
}

// Get returns the named connection of modelID.
func (r *Registry) Get(modelID, name string) (database.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mc, ok := r.models[modelID]
	if !ok {
		return nil, &UnknownConnectionError{Model: modelID, Name: name}
	}
	e, ok := mc.conns[name]
	if !ok {
		return nil, &UnknownConnectionError{Model: modelID, Name: name}
	}
	return e.pool, nil
}

// Has reports whether modelID is registered.
func (r *Registry) Has(modelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[modelID]
	return ok
}

// Names returns the connection names of modelID, master first, then
// replicas sorted by name. Nil for an unregistered model.
func (r *Registry) Names(modelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mc, ok := r.models[modelID]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mc.conns))
	if _, ok := mc.conns[MasterName]; ok {
		names = append(names, MasterName)
	}
	return append(names, mc.replicas...)
}

// Replicas returns the sorted replica names of modelID.
func (r *Registry) Replicas(modelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mc, ok := r.models[modelID]
	if !ok {
		return nil
	}
	return append([]string(nil), mc.replicas...)
}

// Models returns the registered model IDs, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearIdle releases idle connections of every replica of modelID.
func (r *Registry) ClearIdle(ctx context.Context, modelID string) error {
	return r.clear(ctx, modelID, TierIdle, database.Pool.ReleaseIdle)
}

// ClearActive releases checked-out connections of every replica of modelID.
func (r *Registry) ClearActive(ctx context.Context, modelID string) error {
	return r.clear(ctx, modelID, TierActive, database.Pool.ReleaseActive)
}

// ClearAll releases idle and checked-out connections of every replica of
// modelID.
func (r *Registry) ClearAll(ctx context.Context, modelID string) error {
	return r.clear(ctx, modelID, TierAll, database.Pool.ReleaseAll)
}

// clear fans release out to every replica of modelID concurrently. The
// primary is never touched. One replica failing does not stop the others:
// the group is not derived from ctx, every replica is released, and every
// failure is reported, joined in replica name order.
func (r *Registry) clear(ctx context.Context, modelID, tier string, release func(database.Pool, context.Context) error) error {
	r.mu.RLock()
	var (
		names []string
		pools []database.Pool
	)
	if mc, ok := r.models[modelID]; ok {
		names = slices.Clone(mc.replicas)
		pools = make([]database.Pool, len(names))
		for i, name := range names {
			pools[i] = mc.conns[name].pool
		}
	}
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil
	}

	var g errgroup.Group
	errs := make([]error, len(names))
	for i, p := range pools {
		g.Go(func() error {
			if err := release(p, ctx); err != nil {
				errs[i] = fmt.Errorf("release %s connections of %s: %w", tier, names[i], err)
			}
			return errs[i]
		})
	}
	failed := g.Wait() != nil

	r.metrics.RecordClear(modelID, tier)
	r.logger.Debug("replica connections cleared",
		"model", modelID,
		"tier", tier,
		"replicas", len(names),
		"failed", failed,
	)
	if !failed {
		return nil
	}
	return errors.Join(errs...)
}

// Close removes every model.
func (r *Registry) Close() {
	for _, id := range r.Models() {
		r.Remove(id)
	}
}

// close closes every owned pool.
func (mc *modelConns) close() {
	for _, e := range mc.conns {
		if e.owned {
			e.pool.Close()
		}
	}
}
