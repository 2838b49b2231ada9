package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("erishub", reg)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestSetTotalsComputesExchangeRate(t *testing.T) {
	m, err := New("erishub_t1", prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetTotals(1_025_000, 1_000_000)
	require.InDelta(t, 1025.0, gaugeValue(t, m.exchangeRateMilli), 0.001)
	require.InDelta(t, 1_025_000, gaugeValue(t, m.totalBonded), 0.001)
}

func TestSetTotalsZeroSupplyDefaultsToOne(t *testing.T) {
	m, err := New("erishub_t2", prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetTotals(0, 0)
	require.InDelta(t, 1000.0, gaugeValue(t, m.exchangeRateMilli), 0.001)
}

func TestMarkTransitionIncrementsCounter(t *testing.T) {
	m, err := New("erishub_t3", prometheus.NewRegistry())
	require.NoError(t, err)

	m.MarkTransition("bond")
	m.MarkTransition("bond")
	m.MarkTransition("queue_unbond")

	var metric dto.Metric
	require.NoError(t, m.transitions.WithLabelValues("bond").Write(&metric))
	require.Equal(t, float64(2), metric.GetCounter().GetValue())
}

func TestNoOpIsSafeToCall(t *testing.T) {
	m := NoOp()
	m.SetTotals(1, 1)
	m.SetPendingBatchID(1)
	m.SetUnreconciledBatches(0)
	m.MarkTransition("bond")
}
