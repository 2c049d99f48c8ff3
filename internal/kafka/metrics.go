package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics shared by all topic consumers.
type Metrics struct {
	BatchesCommitted *prometheus.CounterVec
	RecordsProcessed *prometheus.CounterVec
	Tombstones       *prometheus.CounterVec
	BatchFailures    *prometheus.CounterVec
	Malformed        *prometheus.CounterVec
	ConsumerGroupLag *prometheus.GaugeVec
}

// NewMetrics creates and registers consumer metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		BatchesCommitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_kafka_batches_committed_total",
			Help: "Consumer batches fully processed with offsets committed",
		}, []string{"topic"}),
		RecordsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_kafka_records_processed_total",
			Help: "Valid records handled inside a committed batch",
		}, []string{"topic"}),
		Tombstones: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_kafka_tombstones_total",
			Help: "Null-payload records skipped without failing the batch",
		}, []string{"topic"}),
		BatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_kafka_batch_failures_total",
			Help: "Batches aborted without offset commit",
		}, []string{"topic"}),
		Malformed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_kafka_malformed_records_total",
			Help: "Records rejected at the decode boundary and skipped",
		}, []string{"topic"}),
		ConsumerGroupLag: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "syfooversiktsrv_kafka_consumer_group_lag",
			Help: "Uncommitted records per consumer group and topic",
		}, []string{"group", "topic"}),
	}
}

func (m *Metrics) recordBatch(topic string, records, tombstones int) {
	if m == nil {
		return
	}
	m.BatchesCommitted.WithLabelValues(topic).Inc()
	m.RecordsProcessed.WithLabelValues(topic).Add(float64(records))
	if tombstones > 0 {
		m.Tombstones.WithLabelValues(topic).Add(float64(tombstones))
	}
}

func (m *Metrics) recordFailure(topic string) {
	if m == nil {
		return
	}
	m.BatchFailures.WithLabelValues(topic).Inc()
}

// RecordMalformed counts a record rejected at a consumer's decode boundary.
func (m *Metrics) RecordMalformed(topic string) {
	if m == nil {
		return
	}
	m.Malformed.WithLabelValues(topic).Inc()
}

func (m *Metrics) setLag(group, topic string, lag int64) {
	if m == nil {
		return
	}
	m.ConsumerGroupLag.WithLabelValues(group, topic).Set(float64(lag))
}
