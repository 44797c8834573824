package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess           = "success"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

// LedgerMetrics counts stock ledger operations by outcome.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	snapshots  prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Stock ledger operations by operation and outcome.",
	}, []string{"op", "outcome"})
	snapshots := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_audit_snapshots_total",
		Help: "Audit snapshots persisted.",
	})
	reg.MustRegister(operations, snapshots)
	return &LedgerMetrics{operations: operations, snapshots: snapshots}
}

// Observe increments the counter for op/outcome.
func (m *LedgerMetrics) Observe(op, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op), outcome).Inc()
}

// IncSnapshots counts one persisted audit snapshot.
func (m *LedgerMetrics) IncSnapshots() {
	if m == nil || m.snapshots == nil {
		return
	}
	m.snapshots.Inc()
}
