package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)

	assert.NotNil(t, r.ResolutionsTotal)
	assert.NotNil(t, r.ResolutionErrorsTotal)
	assert.NotNil(t, r.LockOverridesTotal)
	assert.NotNil(t, r.ConnectionsRegistered)
	assert.NotNil(t, r.EstablishTotal)
	assert.NotNil(t, r.ClearsTotal)
	assert.NotNil(t, r.ConnectionUp)
	assert.NotNil(t, r.PingDuration)
	assert.NotNil(t, r.GetPrometheusRegistry())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordResolution(t *testing.T) {
	r := NewRegistry()

	r.RecordResolution("users", "master")
	r.RecordResolution("users", "master")
	r.RecordResolution("users", "slave1")
	r.RecordResolutionError("users", "slave9")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ResolutionsTotal.WithLabelValues("users", "master")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ResolutionsTotal.WithLabelValues("users", "slave1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ResolutionErrorsTotal.WithLabelValues("users", "slave9")))
}

func TestRecordLockOverride(t *testing.T) {
	r := NewRegistry()

	r.RecordLockOverride("users", "")
	r.RecordLockOverride("users", "slave1")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.LockOverridesTotal.WithLabelValues("users", Unset)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LockOverridesTotal.WithLabelValues("users", "slave1")))
}

func TestRecordEstablishAndRemove(t *testing.T) {
	r := NewRegistry()

	r.RecordEstablish("users", 3, nil)
	r.RecordEstablish("users", 0, errors.New("boom"))

	assert.Equal(t, 3.0, testutil.ToFloat64(r.ConnectionsRegistered.WithLabelValues("users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.EstablishTotal.WithLabelValues("users", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.EstablishTotal.WithLabelValues("users", "error")))

	r.RecordRemove("users")
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ConnectionsRegistered.WithLabelValues("users")))
}

func TestRecordPing(t *testing.T) {
	r := NewRegistry()

	r.RecordPing("users", "master", 2*time.Millisecond, nil)
	r.RecordPing("users", "slave1", time.Second, errors.New("refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConnectionUp.WithLabelValues("users", "master")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ConnectionUp.WithLabelValues("users", "slave1")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.PingDuration))
}

func TestNilRegistry(t *testing.T) {
	var r *Registry

	assert.NotPanics(t, func() {
		r.RecordResolution("users", "master")
		r.RecordResolutionError("users", "slave9")
		r.RecordLockOverride("users", "slave1")
		r.RecordEstablish("users", 2, nil)
		r.RecordRemove("users")
		r.RecordClear("users", "idle")
		r.RecordPing("users", "master", time.Millisecond, nil)
	})
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordClear("users", "all")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `replirouter_replica_clears_total{model="users",tier="all"} 1`), body)
}
