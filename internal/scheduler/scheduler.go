// Package scheduler runs registered maintenance jobs on fixed
// (initialDelay, interval) schedules, gated by leader election. Ticks on
// non-leader replicas are skipped outright, never queued. A job failure or
// panic is recovered, logged and counted; it never takes the process down or
// blocks the next tick.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"syfooversiktsrv/internal/leader"
)

// Job is one maintenance task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Metrics holds Prometheus counters for scheduled job runs.
type Metrics struct {
	Runs     *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Skips    *prometheus.CounterVec
}

// NewMetrics creates and registers scheduler metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_scheduled_job_runs_total",
			Help: "Completed scheduled job runs",
		}, []string{"job"}),
		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_scheduled_job_failures_total",
			Help: "Scheduled job runs that returned an error or panicked",
		}, []string{"job"}),
		Skips: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "syfooversiktsrv_scheduled_job_skips_total",
			Help: "Ticks skipped because this replica is not the leader",
		}, []string{"job"}),
	}
}

type entry struct {
	job          Job
	initialDelay time.Duration
	interval     time.Duration
}

// Scheduler owns the registered jobs and their tickers.
type Scheduler struct {
	elector leader.Checker
	logger  *slog.Logger
	metrics *Metrics
	entries []entry
}

func New(elector leader.Checker, logger *slog.Logger, metrics *Metrics) (*Scheduler, error) {
	if elector == nil {
		return nil, fmt.Errorf("elector is required")
	}
	return &Scheduler{elector: elector, logger: logger, metrics: metrics}, nil
}

// Register adds a job with its schedule. Call before Run.
func (s *Scheduler) Register(job Job, initialDelay, interval time.Duration) {
	s.entries = append(s.entries, entry{job: job, initialDelay: initialDelay, interval: interval})
}

// Run drives every registered job until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range s.entries {
		g.Go(func() error {
			return s.runEntry(ctx, e)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runEntry(ctx context.Context, e entry) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.initialDelay):
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx, e.job)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick runs one scheduled invocation, re-checking leadership at launch time.
func (s *Scheduler) tick(ctx context.Context, job Job) {
	if !s.elector.IsLeader(ctx) {
		s.logger.Debug("skipping scheduled job on non-leader replica", "job", job.Name())
		if s.metrics != nil {
			s.metrics.Skips.WithLabelValues(job.Name()).Inc()
		}
		return
	}

	start := time.Now()
	err := s.runProtected(ctx, job)
	if err != nil {
		s.logger.Error("scheduled job failed", "job", job.Name(), "error", err)
		if s.metrics != nil {
			s.metrics.Failures.WithLabelValues(job.Name()).Inc()
		}
		return
	}

	s.logger.Info("scheduled job completed", "job", job.Name(), "duration", time.Since(start))
	if s.metrics != nil {
		s.metrics.Runs.WithLabelValues(job.Name()).Inc()
	}
}

// runProtected converts a job panic into an error so one bad run cannot
// crash the process.
func (s *Scheduler) runProtected(ctx context.Context, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return job.Run(ctx)
}

// UntilNextHour computes the delay from now until the next occurrence of the
// given local hour, for jobs that run once daily at a fixed time.
func UntilNextHour(hour int, now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
