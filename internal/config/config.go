package config

// Config is the root configuration for a replirouter instance.
type Config struct {
	Instance InstanceConfig         `yaml:"instance"`
	Models   map[string]ModelConfig `yaml:"models"`
	Metrics  MetricsConfig          `yaml:"metrics"`
	Logging  LoggingConfig          `yaml:"logging"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ModelConfig is the connection spec of one model: the primary descriptor
// plus named replica descriptors.
type ModelConfig struct {
	DBConfig     `yaml:",inline"`
	Replications map[string]DBConfig `yaml:"replications"`
}

// Replicated reports whether at least one replica is declared.
func (m ModelConfig) Replicated() bool {
	return len(m.Replications) > 0
}

// DBConfig holds a single database connection descriptor.
type DBConfig struct {
	Adapter  string `yaml:"adapter"`
	DSN      string `yaml:"dsn"` // Overrides host/port/name/user/password when set
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"` // Database name, or file path for sqlite
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Inherit returns db with every unset field taken from parent. DSN is never
// inherited: a replica always points somewhere the primary does not.
func (db DBConfig) Inherit(parent DBConfig) DBConfig {
	out := db
	if out.Adapter == "" {
		out.Adapter = parent.Adapter
	}
	if out.Host == "" {
		out.Host = parent.Host
	}
	if out.Port == 0 {
		out.Port = parent.Port
	}
	if out.Name == "" {
		out.Name = parent.Name
	}
	if out.User == "" {
		out.User = parent.User
	}
	if out.Password == "" {
		out.Password = parent.Password
	}
	if out.SSLMode == "" {
		out.SSLMode = parent.SSLMode
	}
	if out.MaxConns == 0 {
		out.MaxConns = parent.MaxConns
	}
	if out.MinConns == 0 {
		out.MinConns = parent.MinConns
	}
	return out
}

// MetricsConfig holds Prometheus metrics and health endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
