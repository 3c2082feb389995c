package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ExpandDSN returns db with host, port, name, user, password and ssl mode
// filled from its DSN, so that replicas can inherit them. The DSN wins over
// the discrete fields, matching how a DSN primary is actually opened. A
// descriptor without a DSN, or with a sqlite DSN, is returned unchanged.
func (db DBConfig) ExpandDSN() (DBConfig, error) {
	if db.DSN == "" {
		return db, nil
	}

	switch NormalizeAdapter(db.Adapter) {
	case AdapterPostgres, AdapterPQ:
		return db.expandPostgresDSN()
	case AdapterMySQL:
		return db.expandMySQLDSN()
	default:
		return db, nil
	}
}

func (db DBConfig) expandPostgresDSN() (DBConfig, error) {
	pc, err := pgconn.ParseConfig(db.DSN)
	if err != nil {
		return db, fmt.Errorf("parse dsn: %w", err)
	}

	out := db
	setString(&out.Host, pc.Host)
	if pc.Port != 0 {
		out.Port = int(pc.Port)
	}
	setString(&out.Name, pc.Database)
	setString(&out.User, pc.User)
	setString(&out.Password, pc.Password)
	setString(&out.SSLMode, postgresSSLMode(db.DSN))
	return out, nil
}

func (db DBConfig) expandMySQLDSN() (DBConfig, error) {
	mc, err := mysql.ParseDSN(db.DSN)
	if err != nil {
		return db, fmt.Errorf("parse dsn: %w", err)
	}

	out := db
	if mc.Net == "tcp" && mc.Addr != "" {
		host, port, err := net.SplitHostPort(mc.Addr)
		if err != nil {
			return db, fmt.Errorf("parse dsn address %q: %w", mc.Addr, err)
		}
		setString(&out.Host, host)
		if p, err := strconv.Atoi(port); err == nil {
			out.Port = p
		}
	}
	setString(&out.Name, mc.DBName)
	setString(&out.User, mc.User)
	setString(&out.Password, mc.Passwd)
	return out, nil
}

// postgresSSLMode returns the sslmode named by a URL or keyword/value DSN.
// pgconn folds it into a tls.Config, so it is read from the DSN text.
func postgresSSLMode(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		return u.Query().Get("sslmode")
	}
	for _, field := range strings.Fields(dsn) {
		if v, ok := strings.CutPrefix(field, "sslmode="); ok {
			return strings.Trim(v, "'")
		}
	}
	return ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
