package config

import (
	"errors"
	"fmt"
	"sort"
)

// MasterName is the reserved name of the primary connection.
const MasterName = "master"

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if len(c.Models) == 0 {
		return errors.New("models: at least one model is required")
	}

	for _, name := range c.ModelIDs() {
		if name == "" {
			return errors.New("models: model name must not be empty")
		}
		m := c.Models[name]
		if err := m.Validate("models." + name); err != nil {
			return err
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	return nil
}

// ModelIDs returns the configured model names in sorted order.
func (c *Config) ModelIDs() []string {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the primary descriptor and every replica descriptor after
// inheritance. prefix is prepended to field paths in error messages.
func (m *ModelConfig) Validate(prefix string) error {
	if err := m.DBConfig.Validate(prefix); err != nil {
		return err
	}

	if !m.Replicated() {
		return nil
	}
	parent, err := m.DBConfig.ExpandDSN()
	if err != nil {
		return fmt.Errorf("%s.dsn: %w", prefix, err)
	}
	for _, name := range m.ReplicaNames() {
		if err := m.validateReplica(prefix, name, parent); err != nil {
			return err
		}
	}
	return nil
}

// ReplicaNames returns the replica names in sorted order.
func (m *ModelConfig) ReplicaNames() []string {
	names := make([]string, 0, len(m.Replications))
	for name := range m.Replications {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *ModelConfig) validateReplica(prefix, name string, parent DBConfig) error {
	path := prefix + ".replications." + name
	if name == "" {
		return fmt.Errorf("%s.replications: replica name must not be empty", prefix)
	}
	if name == MasterName {
		return fmt.Errorf("%s: name %q is reserved for the primary", path, MasterName)
	}

	r := m.Replications[name]
	if r.Host == "" && r.Name == "" && r.DSN == "" {
		return fmt.Errorf("%s: one of host, name or dsn is required", path)
	}

	derived := r.Inherit(parent)
	derived.Adapter = NormalizeAdapter(derived.Adapter)
	return derived.Validate(path)
}

// Validate checks a single connection descriptor.
func (db *DBConfig) Validate(prefix string) error {
	switch NormalizeAdapter(db.Adapter) {
	case AdapterPostgres, AdapterPQ, AdapterMySQL:
		if db.DSN == "" {
			if db.Host == "" {
				return fmt.Errorf("%s.host is required", prefix)
			}
			if db.Name == "" {
				return fmt.Errorf("%s.name is required", prefix)
			}
			if db.User == "" {
				return fmt.Errorf("%s.user is required", prefix)
			}
		}
	case AdapterSQLite:
		if db.DSN == "" && db.Name == "" {
			return fmt.Errorf("%s.name is required", prefix)
		}
	default:
		return fmt.Errorf("%s.adapter %q is not supported", prefix, db.Adapter)
	}

	if db.Port < 0 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 0 and 65535, got %d", prefix, db.Port)
	}
	if db.MaxConns < 0 {
		return fmt.Errorf("%s.max_conns must be >= 0", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MaxConns > 0 && db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
