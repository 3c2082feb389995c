package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/replirouter/internal/database"
)

// RowLocker is a row-lock primitive run against the connection a Model
// resolves for it.
type RowLocker interface {
	Lock(ctx context.Context, conn database.Conn) error
}

// RowLockerFunc adapts a function to RowLocker.
type RowLockerFunc func(ctx context.Context, conn database.Conn) error

func (f RowLockerFunc) Lock(ctx context.Context, conn database.Conn) error {
	return f(ctx, conn)
}

// ForUpdate locks one row with SELECT ... FOR UPDATE and scans the selected
// columns into Dest. Table, Key and Columns are interpolated verbatim.
type ForUpdate struct {
	Table       string
	Key         string // Defaults to "id"
	ID          any
	Columns     []string // Defaults to "*"
	Dest        []any
	Placeholder string // Defaults to "$1"; use "?" for mysql
}

// SQL returns the locking statement.
func (f ForUpdate) SQL() string {
	key := f.Key
	if key == "" {
		key = "id"
	}
	cols := "*"
	if len(f.Columns) > 0 {
		cols = strings.Join(f.Columns, ", ")
	}
	ph := f.Placeholder
	if ph == "" {
		ph = "$1"
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s FOR UPDATE", cols, f.Table, key, ph)
}

func (f ForUpdate) Lock(ctx context.Context, conn database.Conn) error {
	if f.Table == "" {
		return errors.New("lock: table is required")
	}
	if err := conn.QueryRow(ctx, f.SQL(), f.ID).Scan(f.Dest...); err != nil {
		return fmt.Errorf("lock %s %v: %w", f.Table, f.ID, err)
	}
	return nil
}
