package identity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus counters for identity reconciliation.
type Metrics struct {
	RowsReconciled   prometheus.Counter
	Collisions       prometheus.Counter
	ValidationAborts prometheus.Counter
}

// NewMetrics creates and registers reconciliation metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		RowsReconciled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_identity_rows_reconciled_total",
			Help: "Aggregate rows moved from a historical ident to the active ident",
		}),
		Collisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_identity_collisions_total",
			Help: "Reconciliations where rows existed under both idents and were merged",
		}),
		ValidationAborts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_identity_validation_aborts_total",
			Help: "Reconciliations skipped because the registry did not confirm the active ident",
		}),
	}
}

func (m *Metrics) recordReconciled(n int64) {
	if m == nil {
		return
	}
	m.RowsReconciled.Add(float64(n))
}

func (m *Metrics) recordCollision() {
	if m == nil {
		return
	}
	m.Collisions.Inc()
}

func (m *Metrics) recordValidationAbort() {
	if m == nil {
		return
	}
	m.ValidationAborts.Inc()
}
