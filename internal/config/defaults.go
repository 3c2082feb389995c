package config

import "os"

// Supported adapters.
const (
	AdapterPostgres = "postgresql" // pgx pool
	AdapterPQ       = "pq"         // database/sql + lib/pq
	AdapterMySQL    = "mysql"
	AdapterSQLite   = "sqlite"
)

// Default values for optional configuration fields.
const (
	DefaultAdapter      = AdapterPostgres
	DefaultPostgresPort = 5432
	DefaultMySQLPort    = 3306
	DefaultDBSSLMode    = "prefer"
	DefaultMaxConns     = 10
	DefaultMinConns     = 0
	DefaultMetricsPort  = 9090
	DefaultMetricsPath  = "/metrics"
	DefaultLogLevel     = "info"

	// DatabaseURLEnv is consulted for a model that names neither host nor dsn.
	DatabaseURLEnv = "DATABASE_URL"
)

// NormalizeAdapter maps adapter aliases to their canonical name.
func NormalizeAdapter(adapter string) string {
	switch adapter {
	case "", "postgres", "pgx", AdapterPostgres:
		return AdapterPostgres
	case "sqlite3", AdapterSQLite:
		return AdapterSQLite
	default:
		return adapter
	}
}

func (c *Config) applyDefaults() {
	for name, m := range c.Models {
		m.applyDefaults()
		c.Models[name] = m
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// applyDefaults fills the primary descriptor only. Replicas pick the
// defaults up through Inherit.
func (m *ModelConfig) applyDefaults() {
	if m.DSN == "" && m.Host == "" && m.Name == "" {
		m.DSN = os.Getenv(DatabaseURLEnv)
	}
	applyDBDefaults(&m.DBConfig)
}

func applyDBDefaults(db *DBConfig) {
	db.Adapter = NormalizeAdapter(db.Adapter)
	if db.Port == 0 {
		switch db.Adapter {
		case AdapterPostgres, AdapterPQ:
			db.Port = DefaultPostgresPort
		case AdapterMySQL:
			db.Port = DefaultMySQLPort
		}
	}
	if db.SSLMode == "" && (db.Adapter == AdapterPostgres || db.Adapter == AdapterPQ) {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
