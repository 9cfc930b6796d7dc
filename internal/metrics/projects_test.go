package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

func TestRecorder_CountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ProjectProvisioned(projects.ResultOK)
	r.ProjectProvisioned(projects.ResultOK)
	r.ProjectProvisioned(projects.ResultValidation)
	r.OwnerAnomaly(projects.AnomalyOwnerNotFound)
	r.InvariantViolation("email_service_config")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.provisioned.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.provisioned.WithLabelValues("validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.anomalies.WithLabelValues("owner_not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invariants.WithLabelValues("email_service_config")))
}

func TestNewRecorder_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewRecorder(reg)
	require.NoError(t, err)
	b, err := NewRecorder(reg)
	require.NoError(t, err)

	a.ProjectProvisioned(projects.ResultError)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.provisioned.WithLabelValues("error")))
}

func TestPoolCollector_NilPoolEmitsNothing(t *testing.T) {
	c := NewPoolCollector(nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
