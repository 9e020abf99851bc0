package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics("clinic", "test", prometheus.NewRegistry())
	b := NewMetrics("clinic", "test", prometheus.NewRegistry())

	a.SlotConflicts.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.SlotConflicts))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.SlotConflicts))
}

func TestNewMetricsRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("clinic", "", reg)
	m.Bookings.WithLabelValues("staff", "created").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["clinic_bookings_total"])
	assert.True(t, names["clinic_slot_conflicts_total"])
}
