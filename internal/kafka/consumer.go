// Package kafka provides the poll-process-commit loop shared by every topic
// consumer. Offsets advance only after the batch's database transaction has
// committed, giving at-least-once delivery; the merge engine's idempotence
// absorbs the resulting duplicates.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"syfooversiktsrv/internal/platform/database"
)

// BatchHandler maps one topic's records to domain events and applies them
// through the merge engine. Handle runs inside the batch transaction; any
// error aborts the whole batch with no offset advance.
type BatchHandler interface {
	Topic() string
	Handle(ctx context.Context, records []*kgo.Record) error
}

// TransactionOwner is implemented by handlers that scope their own database
// transactions, typically because they interleave outbound calls that must
// not hold a transaction open. The consumer then skips the batch-level
// transaction; offsets still advance only after Handle returns nil.
type TransactionOwner interface {
	OwnsTransactions() bool
}

// Config carries connection settings shared by all consumers.
type Config struct {
	Brokers        []string
	GroupID        string
	ClientID       string
	MaxPollRecords int
}

// Consumer runs the poll-process-commit loop for one topic.
type Consumer struct {
	client  *kgo.Client
	handler BatchHandler
	db      database.TxRunner
	logger  *slog.Logger
	metrics *Metrics
	maxPoll int
}

// NewConsumer connects a consumer-group client for the handler's topic.
// Auto-commit is disabled; offsets are committed explicitly per batch.
func NewConsumer(cfg Config, handler BatchHandler, db database.TxRunner, logger *slog.Logger, m *Metrics) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if db == nil {
		return nil, fmt.Errorf("tx runner is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(handler.Topic()),
		kgo.ClientID(cfg.ClientID),
		kgo.DisableAutoCommit(),
		kgo.SessionTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client for %s: %w", handler.Topic(), err)
	}

	maxPoll := cfg.MaxPollRecords
	if maxPoll <= 0 {
		maxPoll = 500
	}
	return &Consumer{
		client:  client,
		handler: handler,
		db:      db,
		logger:  logger.With("topic", handler.Topic()),
		metrics: m,
		maxPoll: maxPoll,
	}, nil
}

// Run polls until ctx is cancelled. A processing error is returned to the
// supervisor: the process is expected to go unhealthy and restart, resuming
// from the last committed offset.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	c.logger.Info("consumer started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.pollAndProcess(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.metrics.recordFailure(c.handler.Topic())
			return fmt.Errorf("consumer %s: %w", c.handler.Topic(), err)
		}
	}
}

// pollAndProcess pulls one bounded batch and moves it through
// POLLED -> MAPPED -> MERGED (tx open) -> COMMITTED (offsets advanced).
// No partial state is observable: the transaction covers the whole batch and
// offsets advance only after commit.
func (c *Consumer) pollAndProcess(ctx context.Context) error {
	fetches := c.client.PollRecords(ctx, c.maxPoll)
	if fetches.IsClientClosed() {
		return context.Canceled
	}
	for _, fetchErr := range fetches.Errors() {
		if errors.Is(fetchErr.Err, context.Canceled) {
			return context.Canceled
		}
		return fmt.Errorf("poll partition %d: %w", fetchErr.Partition, fetchErr.Err)
	}

	records := fetches.Records()
	if len(records) == 0 {
		return nil
	}

	valid, tombstones, err := c.processBatch(ctx, records)
	if err != nil {
		return err
	}

	// A tombstone-only batch mutates nothing but still advances offsets.
	if err := c.client.CommitRecords(ctx, records...); err != nil {
		return fmt.Errorf("commit offsets: %w", err)
	}
	c.metrics.recordBatch(c.handler.Topic(), valid, tombstones)
	return nil
}

// processBatch partitions tombstones from valid records and applies the valid
// ones inside one transaction. Exposed to tests via the consumer's handler.
func (c *Consumer) processBatch(ctx context.Context, records []*kgo.Record) (valid, tombstones int, err error) {
	kept, dropped := PartitionTombstones(records)
	for _, record := range dropped {
		c.logger.Info("tombstone record skipped",
			"partition", record.Partition, "offset", record.Offset, "key", string(record.Key))
	}
	tombstones = len(dropped)

	if len(kept) == 0 {
		return 0, tombstones, nil
	}
	run := func(ctx context.Context) error { return c.handler.Handle(ctx, kept) }
	if owner, ok := c.handler.(TransactionOwner); ok && owner.OwnsTransactions() {
		err = run(ctx)
	} else {
		err = c.db.WithinTx(ctx, run)
	}
	if err != nil {
		return 0, tombstones, fmt.Errorf("process batch of %d records: %w", len(kept), err)
	}
	return len(kept), tombstones, nil
}

// PartitionTombstones splits a batch into valid records and tombstones.
// Shared with handler tests that need the same partitioning rule.
func PartitionTombstones(records []*kgo.Record) (valid []*kgo.Record, tombstones []*kgo.Record) {
	for _, record := range records {
		if record.Value == nil {
			tombstones = append(tombstones, record)
			continue
		}
		valid = append(valid, record)
	}
	return valid, tombstones
}
