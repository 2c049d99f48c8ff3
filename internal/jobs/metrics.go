package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus counters for the maintenance jobs.
type Metrics struct {
	AssignmentsCleared prometheus.Counter
	CachesWarmed       prometheus.Counter
	EmployersEnriched  prometheus.Counter
	RowFailures        *prometheus.CounterVec
}

// NewMetrics creates and registers job metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		AssignmentsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_reaper_assignments_cleared_total",
			Help: "Stale caseworker assignments cleared by the reaper",
		}),
		CachesWarmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_preloader_persons_warmed_total",
			Help: "Persons submitted to access-control cache warming",
		}),
		EmployersEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "syfooversiktsrv_backfill_employers_enriched_total",
			Help: "Employer rows enriched with an organization name",
		}),
		RowFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_job_row_failures_total",
			Help: "Individual rows a job failed to process",
		}, []string{"job"}),
	}
}

func (m *Metrics) addCleared(n int) {
	if m == nil {
		return
	}
	m.AssignmentsCleared.Add(float64(n))
}

func (m *Metrics) addWarmed(n int) {
	if m == nil {
		return
	}
	m.CachesWarmed.Add(float64(n))
}

func (m *Metrics) addEnriched(n int) {
	if m == nil {
		return
	}
	m.EmployersEnriched.Add(float64(n))
}

func (m *Metrics) recordRowFailure(job string) {
	if m == nil {
		return
	}
	m.RowFailures.WithLabelValues(job).Inc()
}
