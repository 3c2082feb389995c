package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/rickgao/replirouter/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	port := cfg.Port
	if port == 0 {
		port = config.DefaultPostgresPort
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		port,
		cfg.Name,
		sslMode,
	)
}

// BuildDSN builds the driver data source name for cfg's adapter.
func BuildDSN(cfg config.DBConfig) (string, error) {
	switch config.NormalizeAdapter(cfg.Adapter) {
	case config.AdapterPostgres, config.AdapterPQ:
		return BuildConnString(cfg), nil
	case config.AdapterMySQL:
		return buildMySQLDSN(cfg), nil
	case config.AdapterSQLite:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		return cfg.Name, nil
	default:
		return "", fmt.Errorf("adapter %q is not supported", cfg.Adapter)
	}
}

func buildMySQLDSN(cfg config.DBConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	port := cfg.Port
	if port == 0 {
		port = config.DefaultMySQLPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	return mc.FormatDSN()
}
