package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// LagReporter periodically measures how far each consumer group trails its
// topic's end offsets and exposes the sum as a Prometheus gauge. Purely
// observational: a reporting failure is logged and retried next tick.
type LagReporter struct {
	admin    *kadm.Client
	client   *kgo.Client
	group    string
	topics   []string
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics
}

// NewLagReporter connects an admin client for one consumer group.
func NewLagReporter(brokers []string, group string, topics []string, interval time.Duration, logger *slog.Logger, m *Metrics) (*LagReporter, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("create admin kafka client: %w", err)
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &LagReporter{
		admin:    kadm.NewClient(client),
		client:   client,
		group:    group,
		topics:   topics,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}, nil
}

// Run reports until ctx is cancelled.
func (r *LagReporter) Run(ctx context.Context) error {
	defer r.client.Close()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.report(ctx); err != nil {
				r.logger.Warn("consumer lag reporting failed", "group", r.group, "error", err)
			}
		}
	}
}

func (r *LagReporter) report(ctx context.Context) error {
	commits, err := r.admin.FetchOffsets(ctx, r.group)
	if err != nil {
		return fmt.Errorf("fetch committed offsets: %w", err)
	}
	ends, err := r.admin.ListEndOffsets(ctx, r.topics...)
	if err != nil {
		return fmt.Errorf("list end offsets: %w", err)
	}

	lagByTopic := make(map[string]int64, len(r.topics))
	commits.Each(func(committed kadm.OffsetResponse) {
		if committed.Err != nil {
			return
		}
		end, ok := ends.Lookup(committed.Topic, committed.Partition)
		if !ok {
			return
		}
		if lag := end.Offset - committed.At; lag > 0 {
			lagByTopic[committed.Topic] += lag
		}
	})

	for _, topic := range r.topics {
		r.metrics.setLag(r.group, topic, lagByTopic[topic])
	}
	return nil
}
