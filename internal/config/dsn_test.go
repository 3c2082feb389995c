package config

import (
	"strings"
	"testing"
)

func TestExpandDSN(t *testing.T) {
	tests := []struct {
		name string
		in   DBConfig
		want DBConfig
	}{
		{
			name: "no dsn",
			in:   DBConfig{Host: "primary", Name: "app"},
			want: DBConfig{Host: "primary", Name: "app"},
		},
		{
			name: "postgres url",
			in:   DBConfig{Adapter: AdapterPostgres, DSN: "postgres://app:pw@primary:5433/app?sslmode=require", Port: 5432, MaxConns: 10},
			want: DBConfig{
				Adapter:  AdapterPostgres,
				DSN:      "postgres://app:pw@primary:5433/app?sslmode=require",
				Host:     "primary",
				Port:     5433,
				Name:     "app",
				User:     "app",
				Password: "pw",
				SSLMode:  "require",
				MaxConns: 10,
			},
		},
		{
			name: "pq keyword form",
			in:   DBConfig{Adapter: AdapterPQ, DSN: "host=primary port=6432 dbname=app user=app password=pw sslmode=disable"},
			want: DBConfig{
				Adapter:  AdapterPQ,
				DSN:      "host=primary port=6432 dbname=app user=app password=pw sslmode=disable",
				Host:     "primary",
				Port:     6432,
				Name:     "app",
				User:     "app",
				Password: "pw",
				SSLMode:  "disable",
			},
		},
		{
			name: "dsn wins over discrete fields",
			in:   DBConfig{DSN: "postgres://app@primary:5432/app", Host: "stale", Name: "old", SSLMode: "prefer"},
			want: DBConfig{
				DSN:     "postgres://app@primary:5432/app",
				Host:    "primary",
				Port:    5432,
				Name:    "app",
				User:    "app",
				SSLMode: "prefer",
			},
		},
		{
			name: "mysql",
			in:   DBConfig{Adapter: AdapterMySQL, DSN: "app:pw@tcp(primary:3307)/app?parseTime=true"},
			want: DBConfig{
				Adapter:  AdapterMySQL,
				DSN:      "app:pw@tcp(primary:3307)/app?parseTime=true",
				Host:     "primary",
				Port:     3307,
				Name:     "app",
				User:     "app",
				Password: "pw",
			},
		},
		{
			name: "sqlite is left alone",
			in:   DBConfig{Adapter: AdapterSQLite, DSN: "file:app.db"},
			want: DBConfig{Adapter: AdapterSQLite, DSN: "file:app.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ExpandDSN()
			if err != nil {
				t.Fatalf("ExpandDSN() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandDSN() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExpandDSN_Invalid(t *testing.T) {
	tests := []DBConfig{
		{Adapter: AdapterPostgres, DSN: "postgres://app@primary:notaport/app"},
		{Adapter: AdapterMySQL, DSN: "app:pw@tcp(primary:3306/app"},
	}

	for _, in := range tests {
		_, err := in.ExpandDSN()
		if err == nil {
			t.Errorf("ExpandDSN(%q) expected error", in.DSN)
			continue
		}
		if !strings.Contains(err.Error(), "parse dsn") {
			t.Errorf("ExpandDSN(%q) error = %v, want parse dsn error", in.DSN, err)
		}
	}
}
