package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus counters for the merge engine.
type Metrics struct {
	UpsertsTotal   *prometheus.CounterVec
	DurationClamps prometheus.Counter
}

// New creates and registers merge engine metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		UpsertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_person_status_upserts_total",
			Help: "Field-group upserts applied to the aggregate, by group and outcome",
		}, []string{"group", "outcome"}),
		DurationClamps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_follow_up_case_duration_clamps_total",
			Help: "Follow-up case duration computations clamped to zero (data-quality anomaly)",
		}),
	}
}

// RecordUpsert counts one applied upsert.
func (m *Metrics) RecordUpsert(group, outcome string) {
	if m == nil {
		return
	}
	m.UpsertsTotal.WithLabelValues(group, outcome).Inc()
}

// RecordDurationClamp counts one clamped duration computation.
func (m *Metrics) RecordDurationClamp() {
	if m == nil {
		return
	}
	m.DurationClamps.Inc()
}
