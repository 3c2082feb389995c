package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/replirouter/internal/config"
)

func newMockSQLPool(t *testing.T) (*SQLPool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLPool("slave1", config.AdapterPQ, db, 4), mock
}

func TestSQLPool_Exec(t *testing.T) {
	p, mock := newMockSQLPool(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE users SET name").
		WithArgs("alice", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := p.Exec(ctx, "UPDATE users SET name = $1 WHERE id = $2", "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLPool_ExecError(t *testing.T) {
	p, mock := newMockSQLPool(t)
	boom := errors.New("read-only transaction")

	mock.ExpectExec("DELETE FROM users").WillReturnError(boom)

	_, err := p.Exec(context.Background(), "DELETE FROM users")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLPool_QueryRowAndServerVersion(t *testing.T) {
	p, mock := newMockSQLPool(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT name FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("bob"))
	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("16.2"))

	var name string
	require.NoError(t, p.QueryRow(ctx, "SELECT name FROM users WHERE id = $1", 7).Scan(&name))
	assert.Equal(t, "bob", name)

	version, err := p.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "16.2", version)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, p.Stat().Acquired, "connections must be returned after Scan")
}

func TestSQLPool_ReleaseIdle(t *testing.T) {
	p, mock := newMockSQLPool(t)
	ctx := context.Background()

	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	_, err := p.Exec(ctx, "SELECT 1")
	require.NoError(t, err)
	require.True(t, p.Connected(ctx))
	require.Equal(t, 1, p.Stat().Idle)

	require.NoError(t, p.ReleaseIdle(ctx))
	assert.False(t, p.Connected(ctx))
	assert.Equal(t, Stat{}, p.Stat())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLPool_Closed(t *testing.T) {
	p, mock := newMockSQLPool(t)
	ctx := context.Background()
	mock.ExpectClose()

	p.Close()
	p.Close()

	_, err := p.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrPoolClosed)

	var s string
	assert.ErrorIs(t, p.QueryRow(ctx, "SELECT 1").Scan(&s), ErrPoolClosed)
	assert.ErrorIs(t, p.Ping(ctx), ErrPoolClosed)
	assert.False(t, p.Connected(ctx))
	assert.NoError(t, p.ReleaseIdle(ctx))
}

func openSQLite(t *testing.T, name string) *SQLPool {
	t.Helper()
	cfg := config.DBConfig{
		Adapter:  config.AdapterSQLite,
		Name:     filepath.Join(t.TempDir(), name+".db"),
		MaxConns: 4,
	}
	p, err := OpenSQL(context.Background(), name, cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestSQLPool_SQLite(t *testing.T) {
	p := openSQLite(t, "master")
	ctx := context.Background()

	_, err := p.Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	n, err := p.Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var name string
	require.NoError(t, p.QueryRow(ctx, "SELECT name FROM users WHERE id = ?", 1).Scan(&name))
	assert.Equal(t, "alice", name)

	version, err := p.ServerVersion(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, version)

	assert.True(t, p.Connected(ctx))
	assert.Equal(t, "master", p.Name())
}

func TestSQLPool_SQLiteReleaseActive(t *testing.T) {
	p := openSQLite(t, "slave1")
	ctx := context.Background()

	// Check out a connection and hold it until Scan.
	row := p.QueryRow(ctx, "SELECT 1")
	require.Equal(t, 1, p.Stat().Acquired)

	require.NoError(t, p.ReleaseActive(ctx))

	var v int
	require.NoError(t, row.Scan(&v))
	assert.Equal(t, 1, v)

	// The checked-out connection was destroyed instead of pooled.
	assert.Equal(t, 0, p.Stat().Total)
	assert.False(t, p.Connected(ctx))

	// New checkouts are pooled normally.
	require.NoError(t, p.QueryRow(ctx, "SELECT 1").Scan(&v))
	assert.Equal(t, 1, p.Stat().Idle)
}

func TestSQLPool_SQLiteReleaseAll(t *testing.T) {
	p := openSQLite(t, "slave2")
	ctx := context.Background()

	var v int
	require.NoError(t, p.QueryRow(ctx, "SELECT 1").Scan(&v))
	require.True(t, p.Connected(ctx))

	require.NoError(t, p.ReleaseAll(ctx))
	assert.False(t, p.Connected(ctx))

	// The pool reconnects on demand.
	require.NoError(t, p.Ping(ctx))
	assert.True(t, p.Connected(ctx))
}

func TestOpen_UnsupportedAdapter(t *testing.T) {
	_, err := Open(context.Background(), "slave1", config.DBConfig{Adapter: "oracle", Host: "db"})
	require.ErrorIs(t, err, ErrInvalidSpec)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.DBConfig{Adapter: "sqlite3", Name: filepath.Join(t.TempDir(), "app.db")}
	p, err := Open(context.Background(), "master", cfg)
	require.NoError(t, err)
	defer p.Close()

	_, ok := p.(*SQLPool)
	assert.True(t, ok, "sqlite should open a database/sql pool")
	assert.NoError(t, p.Ping(context.Background()))
}
