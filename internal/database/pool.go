package database

import (
	"context"
	"errors"
)

// Errors
var (
	ErrPoolClosed = errors.New("pool closed")
)

// Row is the result of QueryRow. Scan must be called to release the
// underlying connection.
type Row interface {
	Scan(dest ...any) error
}

// Conn is the query surface shared by pools and routing proxies.
type Conn interface {
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// QueryRow runs a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Ping verifies a connection to the server can be established.
	Ping(ctx context.Context) error

	// Connected reports whether at least one physical connection is open.
	Connected(ctx context.Context) bool

	// ServerVersion queries the server for its version string.
	ServerVersion(ctx context.Context) (string, error)
}

// Pool is a pooled set of connections to a single server.
type Pool interface {
	Conn

	// ReleaseIdle closes connections that are not checked out.
	ReleaseIdle(ctx context.Context) error

	// ReleaseActive destroys connections checked out at call time when they
	// are returned, instead of putting them back in the pool.
	ReleaseActive(ctx context.Context) error

	// ReleaseAll applies both ReleaseIdle and ReleaseActive.
	ReleaseAll(ctx context.Context) error

	// Stat returns a snapshot of pool statistics.
	Stat() Stat

	// Close closes all connections. The pool is unusable afterwards.
	Close()
}

// Stat is a snapshot of pool statistics.
type Stat struct {
	Total    int // Open physical connections
	Idle     int // Open connections not checked out
	Acquired int // Connections currently checked out
}

// errRow is a Row that failed before reaching the server.
type errRow struct {
	err error
}

// ErrRow returns a Row whose Scan returns err.
func ErrRow(err error) Row {
	return errRow{err: err}
}

func (r errRow) Scan(dest ...any) error {
	return r.err
}
