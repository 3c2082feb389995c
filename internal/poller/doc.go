// Package poller implements the connection health poller.
//
// The poller:
//   - Pings every connection of every model on an interval (default 30s)
//   - Bounds concurrent pings with a semaphore
//   - Keeps the latest result per connection for /health
//   - Exports connection_up and ping latency metrics
package poller
