package connection

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/database"
	"github.com/rickgao/replirouter/internal/metrics"
)

// MasterName is the name of the primary connection of every model.
const MasterName = config.MasterName

// Release tiers, used as metric and log labels.
const (
	TierIdle   = "idle"
	TierActive = "active"
	TierAll    = "all"
)

// Errors
var (
	ErrUnknownConnection = errors.New("unknown connection")
)

// UnknownConnectionError reports a lookup of a name that is not registered
// for a model.
type UnknownConnectionError struct {
	Model string
	Name  string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection %q for model %q", e.Name, e.Model)
}

// Is makes errors.Is(err, ErrUnknownConnection) hold for any UnknownConnectionError.
func (e *UnknownConnectionError) Is(target error) bool {
	return target == ErrUnknownConnection
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpener sets the function used to open pools. Defaults to database.Open.
func WithOpener(open database.Opener) Option {
	return func(r *Registry) {
		r.open = open
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// EstablishOption configures a single Establish call.
type EstablishOption func(*establishOptions)

type establishOptions struct {
	primary database.Pool
}

// WithPrimary registers pool as the model's master instead of opening one.
// The registry never closes or clears a pool supplied this way; its owner
// manages its lifecycle.
func WithPrimary(pool database.Pool) EstablishOption {
	return func(o *establishOptions) {
		o.primary = pool
	}
}

// entry is one named connection.
type entry struct {
	pool  database.Pool
	owned bool // Opened by the registry, closed on Remove
}

// modelConns holds every named connection of one model.
type modelConns struct {
	conns    map[string]entry
	replicas []string // Sorted replica names, master excluded
}
