package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/replirouter/internal/metrics"
)

// Target is a model whose connections are polled.
type Target interface {
	ID() string
	Names() []string
	Ping(ctx context.Context, name string) error
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 30s)
	Concurrency int           // Max concurrent pings (default: 8)
	Timeout     time.Duration // Per-ping timeout (default: 5s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Concurrency: 8,
		Timeout:     5 * time.Second,
	}
}

// Result is the outcome of the latest ping of one connection.
type Result struct {
	Model      string
	Connection string
	Err        error
	Latency    time.Duration
	CheckedAt  time.Time
}

// Up reports whether the ping succeeded.
func (r Result) Up() bool {
	return r.Err == nil
}

// Poller periodically pings every connection of its targets.
type Poller struct {
	cfg     Config
	targets []Target
	metrics *metrics.Registry
	logger  *slog.Logger

	mu      sync.RWMutex
	results map[string]map[string]Result

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, targets []Target, m *metrics.Registry, logger *slog.Logger) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		targets: targets,
		metrics: m,
		logger:  logger,
		results: make(map[string]map[string]Result),
	}
}

// Start polls once synchronously, so results are available on return, then
// keeps polling in the background until Stop or ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.PollOnce(ctx)

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("health poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("health poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce pings every connection of every target concurrently and
// records the results.
func (p *Poller) PollOnce(ctx context.Context) {
	start := time.Now()

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var checked, failed atomic.Int64

	for _, target := range p.targets {
		for _, name := range target.Names() {
			wg.Add(1)
			go func() {
				defer wg.Done()

				// Acquire semaphore slot.
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}

				res := p.ping(ctx, target, name)
				p.store(res)
				checked.Add(1)
				if !res.Up() {
					failed.Add(1)
					p.logger.Warn("connection ping failed",
						"model", res.Model,
						"connection", res.Connection,
						"err", res.Err,
					)
				}
			}()
		}
	}

	wg.Wait()

	p.logger.Debug("poll cycle complete",
		"connections", checked.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start),
	)
}

func (p *Poller) ping(ctx context.Context, target Target, name string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := target.Ping(ctx, name)
	latency := time.Since(start)

	p.metrics.RecordPing(target.ID(), name, latency, err)
	return Result{
		Model:      target.ID(),
		Connection: name,
		Err:        err,
		Latency:    latency,
		CheckedAt:  time.Now(),
	}
}

func (p *Poller) store(res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byName, ok := p.results[res.Model]
	if !ok {
		byName = make(map[string]Result)
		p.results[res.Model] = byName
	}
	byName[res.Connection] = res
}

// Results returns a copy of the latest results by model and connection.
func (p *Poller) Results() map[string]map[string]Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]map[string]Result, len(p.results))
	for model, byName := range p.results {
		cp := make(map[string]Result, len(byName))
		for name, res := range byName {
			cp[name] = res
		}
		out[model] = cp
	}
	return out
}
