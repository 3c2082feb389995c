package metrics

import "time"

// Unset labels the scope of a lock taken outside any explicit scope.
const Unset = "unset"

// RecordResolution records a successful connection resolution.
func (r *Registry) RecordResolution(model, connection string) {
	if r == nil {
		return
	}
	r.ResolutionsTotal.WithLabelValues(model, connection).Inc()
}

// RecordResolutionError records a resolution to an unregistered name.
func (r *Registry) RecordResolutionError(model, connection string) {
	if r == nil {
		return
	}
	r.ResolutionErrorsTotal.WithLabelValues(model, connection).Inc()
}

// RecordLockOverride records a lock forced onto the primary. scope is the
// connection name active before the lock, or Unset.
func (r *Registry) RecordLockOverride(model, scope string) {
	if r == nil {
		return
	}
	if scope == "" {
		scope = Unset
	}
	r.LockOverridesTotal.WithLabelValues(model, scope).Inc()
}

// RecordEstablish records an establish attempt and sets the registered
// connection count on success.
func (r *Registry) RecordEstablish(model string, connections int, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.EstablishTotal.WithLabelValues(model, "error").Inc()
		return
	}
	r.EstablishTotal.WithLabelValues(model, "ok").Inc()
	r.ConnectionsRegistered.WithLabelValues(model).Set(float64(connections))
}

// RecordRemove clears the registered connection count of a model.
func (r *Registry) RecordRemove(model string) {
	if r == nil {
		return
	}
	r.ConnectionsRegistered.WithLabelValues(model).Set(0)
}

// RecordClear records a replica clear fan-out for a release tier.
func (r *Registry) RecordClear(model, tier string) {
	if r == nil {
		return
	}
	r.ClearsTotal.WithLabelValues(model, tier).Inc()
}

// RecordPing records the outcome and latency of a health poll ping.
func (r *Registry) RecordPing(model, connection string, d time.Duration, err error) {
	if r == nil {
		return
	}
	up := 1.0
	if err != nil {
		up = 0
	}
	r.ConnectionUp.WithLabelValues(model, connection).Set(up)
	r.PingDuration.WithLabelValues(model, connection).Observe(d.Seconds())
}
