package routing

import (
	"context"

	"github.com/google/uuid"

	"github.com/rickgao/replirouter/internal/connection"
)

// Master is the connection every unscoped operation resolves to.
const Master = connection.MasterName

// Context is the routing state of one execution unit. It is immutable once
// attached to a context.Context: selecting a connection derives a child
// Context carried by a child context.Context, so goroutines forked from one
// ctx never observe each other's selections.
type Context struct {
	id    uuid.UUID
	name  string // "" means unset
	depth int    // Scopes entered on the way to this Context
}

// NewContext creates an unset Context.
func NewContext() *Context {
	return &Context{id: uuid.New()}
}

// ID identifies the execution unit in logs. Derived Contexts keep the ID
// of the Context they were derived from.
func (c *Context) ID() uuid.UUID {
	if c == nil {
		return uuid.Nil
	}
	return c.id
}

// Current returns the explicitly selected name, if any.
func (c *Context) Current() (string, bool) {
	if c == nil {
		return "", false
	}
	return c.name, c.name != ""
}

// Resolve returns the name operations should use: the current name, or
// Master when unset.
func (c *Context) Resolve() string {
	if c == nil || c.name == "" {
		return Master
	}
	return c.name
}

// Depth returns the number of scopes entered to reach c.
func (c *Context) Depth() int {
	if c == nil {
		return 0
	}
	return c.depth
}

func (c *Context) derive(name string, depth int) *Context {
	child := &Context{name: name, depth: depth}
	if c != nil {
		child.id = c.id
	} else {
		child.id = uuid.New()
	}
	return child
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the routing Context carried by ctx.
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok && rc != nil
}

// Ensure returns ctx and its routing Context, attaching a new one if ctx
// carries none.
func Ensure(ctx context.Context) (context.Context, *Context) {
	if rc, ok := FromContext(ctx); ok {
		return ctx, rc
	}
	rc := NewContext()
	return WithContext(ctx, rc), rc
}

// WithScope returns a child of ctx that selects name. ctx itself keeps its
// selection, so the scope ends when the caller stops using the child,
// whichever way the caller returns.
func WithScope(ctx context.Context, name string) context.Context {
	rc, _ := FromContext(ctx)
	return WithContext(ctx, rc.derive(name, rc.Depth()+1))
}

// ForceScope is WithScope for internal overrides such as routing row locks
// to the primary.
func ForceScope(ctx context.Context, name string) context.Context {
	return WithScope(ctx, name)
}

// Set returns a child of ctx that selects name without opening a scope.
// Hold on to the returned ctx for as long as the selection should last.
func Set(ctx context.Context, name string) context.Context {
	rc, _ := FromContext(ctx)
	return WithContext(ctx, rc.derive(name, rc.Depth()))
}

// Reset returns a child of ctx that resolves to Master again.
func Reset(ctx context.Context) context.Context {
	return Set(ctx, "")
}

// Current returns the name explicitly selected by ctx, if any.
func Current(ctx context.Context) (string, bool) {
	rc, _ := FromContext(ctx)
	return rc.Current()
}

// Resolve returns the name ctx resolves to.
func Resolve(ctx context.Context) string {
	rc, _ := FromContext(ctx)
	return rc.Resolve()
}
