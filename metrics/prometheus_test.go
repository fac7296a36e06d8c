package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg)

	rec.IncCounter("payment_verified", map[string]string{"network": "base"})
	rec.IncCounter("payment_verified", map[string]string{"network": "base"})
	rec.IncCounter("rejected_missing_payment", nil)
	rec.ObserveLatency("verify", 25*time.Millisecond, map[string]string{"network": "base"})

	pr, ok := rec.(*PrometheusRecorder)
	require.True(t, ok)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.counters.WithLabelValues("payment_verified", "base")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.counters.WithLabelValues("rejected_missing_payment", "")))
	require.Equal(t, 1, testutil.CollectAndCount(pr.histogram))
}

func TestPrometheusRecorderRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusRecorderWith(reg)

	// Registering the same metrics twice on one registry must panic, which
	// proves the first call actually registered them.
	require.Panics(t, func() { NewPrometheusRecorderWith(reg) })
}
