// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection resolutions per model and connection name
//   - Resolution failures (unknown connection names)
//   - Row locks forced onto the primary
//   - Replica clear fan-outs per release tier
//   - Registered connections per model
//   - Connection up/down and ping latency from the health poller
//
// Every Record method is safe to call on a nil *Registry, so components
// built without metrics skip instrumentation without nil checks.
package metrics
