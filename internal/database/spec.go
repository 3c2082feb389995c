package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/replirouter/internal/config"
)

// ErrInvalidSpec is matched by every InvalidSpecError.
var ErrInvalidSpec = errors.New("invalid connection spec")

// InvalidSpecError reports a malformed primary or replica descriptor.
type InvalidSpecError struct {
	Connection string // "master" or the replica name
	Reason     string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid connection spec for %q: %s", e.Connection, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidSpec) hold for any InvalidSpecError.
func (e *InvalidSpecError) Is(target error) bool {
	return target == ErrInvalidSpec
}

// NamedConfig is a descriptor together with its connection name.
type NamedConfig struct {
	Name   string
	Config config.DBConfig
}

// DeriveConnections returns the master descriptor followed by every replica
// descriptor, each replica inheriting unset fields from the master. Replicas
// are sorted by name.
func DeriveConnections(spec config.ModelConfig) ([]NamedConfig, error) {
	master := spec.DBConfig
	master.Adapter = config.NormalizeAdapter(master.Adapter)
	if err := master.Validate(config.MasterName); err != nil {
		return nil, specError(config.MasterName, err)
	}

	replicas, err := DeriveReplicas(spec)
	if err != nil {
		return nil, err
	}

	out := make([]NamedConfig, 0, len(replicas)+1)
	out = append(out, NamedConfig{Name: config.MasterName, Config: master})
	return append(out, replicas...), nil
}

// DeriveReplicas returns the replica descriptors of spec, sorted by name.
// A DSN primary is expanded into its fields first so replicas can inherit
// from it.
func DeriveReplicas(spec config.ModelConfig) ([]NamedConfig, error) {
	names := spec.ReplicaNames()
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]NamedConfig, 0, len(names))

	parent, err := spec.DBConfig.ExpandDSN()
	if err != nil {
		return nil, &InvalidSpecError{Connection: config.MasterName, Reason: "dsn: " + err.Error()}
	}

	for _, name := range names {
		switch name {
		case "":
			return nil, &InvalidSpecError{Connection: name, Reason: "replica name must not be empty"}
		case config.MasterName:
			return nil, &InvalidSpecError{Connection: name, Reason: "name is reserved for the primary"}
		}

		r := spec.Replications[name]
		if r.Host == "" && r.Name == "" && r.DSN == "" {
			return nil, &InvalidSpecError{Connection: name, Reason: "one of host, name or dsn is required"}
		}

		derived := r.Inherit(parent)
		derived.Adapter = config.NormalizeAdapter(derived.Adapter)
		if err := derived.Validate(name); err != nil {
			return nil, specError(name, err)
		}

		out = append(out, NamedConfig{Name: name, Config: derived})
	}

	return out, nil
}

func specError(name string, err error) error {
	// Validate prefixes field paths with the connection name; drop it here
	// since the error already carries the name.
	reason := strings.TrimPrefix(err.Error(), name+".")
	return &InvalidSpecError{Connection: name, Reason: reason}
}
