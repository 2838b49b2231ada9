// Package metrics implements the hub's prometheus instrumentation
// (spec.md §4.O expansion), grounded on vms/platformvm/metrics.go's
// pattern: a struct of pre-registered collectors built by New, exposed
// through plain setter/incrementer methods.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erisprotocol/alliancehub/internal/stakehub/wrappers"
)

// Metrics is the hub's full set of exported collectors.
type Metrics struct {
	totalBonded         prometheus.Gauge
	totalSupply         prometheus.Gauge
	exchangeRateMilli   prometheus.Gauge
	pendingBatchID      prometheus.Gauge
	unreconciledBatches prometheus.Gauge
	transitions         *prometheus.CounterVec
}

// New builds and registers every collector against registerer, under
// namespace. Mirrors the teacher's metrics.New(namespace, registerer,
// ...) registration-with-error-accumulation pattern.
func New(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		totalBonded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_utoken_bonded",
			Help:      "Total underlying tokens currently delegated or pending-in-flight",
		}),
		totalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_supply",
			Help:      "Total outstanding stake shares",
		}),
		exchangeRateMilli: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exchange_rate_milli",
			Help:      "Current bonded/supply exchange rate, scaled by 1000",
		}),
		pendingBatchID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_batch_id",
			Help:      "ID of the currently accumulating unbond batch",
		}),
		unreconciledBatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unreconciled_batches",
			Help:      "Count of previous batches not yet reconciled",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Count of successful hub transitions by operation",
		}, []string{"operation"}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.totalBonded),
		registerer.Register(m.totalSupply),
		registerer.Register(m.exchangeRateMilli),
		registerer.Register(m.pendingBatchID),
		registerer.Register(m.unreconciledBatches),
		registerer.Register(m.transitions),
	)
	return m, errs.Err
}

// SetTotals records the share-accounting singleton after a transition.
// exchangeRateMilli is bonded*1000/supply (1000, a rate of 1, if supply
// is 0), matching
// I1's "never return a lossy inverse" guidance scaled into an integer
// gauge value.
func (m *Metrics) SetTotals(totalBonded, totalSupply uint64) {
	m.totalBonded.Set(float64(totalBonded))
	m.totalSupply.Set(float64(totalSupply))
	if totalSupply == 0 {
		m.exchangeRateMilli.Set(1000)
		return
	}
	m.exchangeRateMilli.Set(float64(totalBonded) * 1000 / float64(totalSupply))
}

// SetPendingBatchID records the currently accumulating batch's id.
func (m *Metrics) SetPendingBatchID(id uint64) {
	m.pendingBatchID.Set(float64(id))
}

// SetUnreconciledBatches records the count of not-yet-reconciled
// previous batches.
func (m *Metrics) SetUnreconciledBatches(n int) {
	m.unreconciledBatches.Set(float64(n))
}

// MarkTransition increments the counter for a successfully completed
// hub operation (spec.md §6's command-surface method names, e.g.
// "bond", "queue_unbond", "submit_batch").
func (m *Metrics) MarkTransition(op string) {
	m.transitions.WithLabelValues(op).Inc()
}

// NoOp returns a Metrics whose methods are all safe no-ops, for callers
// (tests, or a Hub built without a registerer) that don't want
// instrumentation wired. Mirrors the teacher's vms/relayvm/metrics/no_op.go.
func NoOp() *Metrics {
	return &Metrics{
		totalBonded:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_total_bonded"}),
		totalSupply:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_total_supply"}),
		exchangeRateMilli:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_exchange_rate"}),
		pendingBatchID:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_pending_batch"}),
		unreconciledBatches: prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_unreconciled"}),
		transitions:         prometheus.NewCounterVec(prometheus.CounterOpts{Name: "noop_transitions"}, []string{"operation"}),
	}
}
