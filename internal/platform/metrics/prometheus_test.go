package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsManager(t *testing.T) {
	var m *MetricsManager
	require.NotPanics(t, func() {
		m = NewMetricsManager("class-service")
	})

	m.ObserveOperation("publish_draft", OutcomeSuccess, time.Now())
	m.ObserveOperation("publish_draft", OutcomeSuccess, time.Now())
	m.ReplicationFailure("publish_draft", "write_mirror")
	m.Orphan("update_listing")
	m.Repair("missing_mirror")
	m.RegisterActiveStreams("class-service", func() float64 { return 3 })

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("publish_draft", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReplicationFailuresTotal.WithLabelValues("publish_draft", "write_mirror")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepairsTotal.WithLabelValues("missing_mirror")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "class_service_active_streams")
	assert.Contains(t, names, "class_service_orphan_records_total")
}

func TestMetricsManager_NilIsNoop(t *testing.T) {
	var m *MetricsManager
	assert.NotPanics(t, func() {
		m.ObserveOperation("x", OutcomeError, time.Now())
		m.ReplicationFailure("x", "y")
		m.Orphan("x")
		m.Repair("x")
		m.RegisterActiveStreams("x", func() float64 { return 0 })
	})
}
