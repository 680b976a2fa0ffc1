package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("stock:low").End(nil))
	boom := errors.New("redis down")
	require.ErrorIs(t, m.Track("stock:low").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stock:low", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stock:low", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("stock:low")))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("stock:low").End(boom), boom)
}
