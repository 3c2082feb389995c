// Package routing selects which named connection of a model serves each
// operation.
//
// A Context holds the routing state of one execution unit (a goroutine
// serving a request, a job, a test). It travels inside a context.Context and
// is never mutated: WithScope, ForceScope, Set and Reset derive a child
// context.Context, so a ctx handed to several goroutines stays safe to share
// and each goroutine's own scopes stay invisible to the others.
//
// Resolution rules:
//   - no Context, or a Context with no name set, resolves to "master"
//   - a scoped Context resolves to its current name
//   - leaving a scope means going back to the parent ctx, so scopes nest
//     LIFO and restore on every exit path
//
// A Proxy re-resolves on every call, so a scope change between two
// operations on the same Proxy is observed immediately.
package routing
