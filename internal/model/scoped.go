package model

import (
	"context"

	"github.com/rickgao/replirouter/internal/database"
)

// Scoped is a model bound to a connection name. Every call runs inside
// Model.Using(name); the selection never outlives the call.
type Scoped struct {
	model *Model
	name  string
}

func (s *Scoped) Model() *Model {
	return s.model
}

func (s *Scoped) Name() string {
	return s.name
}

// Do runs fn with the bound name selected.
func (s *Scoped) Do(ctx context.Context, fn func(context.Context) error) error {
	return s.model.Using(ctx, s.name, fn)
}

// Exec runs a statement on the bound connection.
func (s *Scoped) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	var n int64
	err := s.Do(ctx, func(ctx context.Context) error {
		conn, err := s.model.conn()
		if err != nil {
			return err
		}
		n, err = conn.Exec(ctx, sql, args...)
		return err
	})
	return n, err
}

// QueryRow runs a single-row query on the bound connection.
func (s *Scoped) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	var row database.Row
	err := s.Do(ctx, func(ctx context.Context) error {
		conn, err := s.model.conn()
		if err != nil {
			return err
		}
		row = conn.QueryRow(ctx, sql, args...)
		return nil
	})
	if err != nil {
		return database.ErrRow(err)
	}
	return row
}

// Lock takes a row lock. It goes to master regardless of the bound name.
func (s *Scoped) Lock(ctx context.Context, l RowLocker) error {
	return s.Do(ctx, func(ctx context.Context) error {
		return s.model.Lock(ctx, l)
	})
}
