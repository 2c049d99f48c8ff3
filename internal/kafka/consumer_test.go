package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"syfooversiktsrv/internal/platform/database"
)

type stubHandler struct {
	handled [][]*kgo.Record
	err     error
}

func (h *stubHandler) Topic() string { return "personstatus.test" }

func (h *stubHandler) Handle(_ context.Context, records []*kgo.Record) error {
	if h.err != nil {
		return h.err
	}
	h.handled = append(h.handled, records)
	return nil
}

type txOwningHandler struct {
	stubHandler
}

func (txOwningHandler) OwnsTransactions() bool { return true }

// countingTxRunner records how often the consumer opens a batch transaction.
type countingTxRunner struct {
	calls int
}

func (r *countingTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func newTestConsumer(h BatchHandler) *Consumer {
	return &Consumer{
		handler: h,
		db:      database.NopTxRunner{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPartitionTombstones(t *testing.T) {
	records := []*kgo.Record{
		{Key: []byte("a"), Value: []byte(`{}`)},
		{Key: []byte("b"), Value: nil},
		{Key: []byte("c"), Value: []byte(`{}`)},
		{Key: []byte("d"), Value: nil},
	}

	valid, tombstones := PartitionTombstones(records)
	require.Len(t, valid, 2)
	require.Len(t, tombstones, 2)
	assert.Equal(t, []byte("a"), valid[0].Key)
	assert.Equal(t, []byte("c"), valid[1].Key)
	assert.Equal(t, []byte("b"), tombstones[0].Key)

	// An empty but non-nil value is data, not a tombstone.
	valid, tombstones = PartitionTombstones([]*kgo.Record{{Value: []byte{}}})
	assert.Len(t, valid, 1)
	assert.Empty(t, tombstones)
}

func TestProcessBatch(t *testing.T) {
	t.Run("tombstones are dropped before the handler", func(t *testing.T) {
		h := &stubHandler{}
		c := newTestConsumer(h)

		valid, tombstones, err := c.processBatch(context.Background(), []*kgo.Record{
			{Key: []byte("a"), Value: []byte(`{}`)},
			{Key: []byte("b"), Value: nil},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, valid)
		assert.Equal(t, 1, tombstones)
		require.Len(t, h.handled, 1)
		require.Len(t, h.handled[0], 1)
		assert.Equal(t, []byte("a"), h.handled[0][0].Key)
	})

	t.Run("tombstone-only batch skips the transaction entirely", func(t *testing.T) {
		h := &stubHandler{}
		c := newTestConsumer(h)

		valid, tombstones, err := c.processBatch(context.Background(), []*kgo.Record{
			{Key: []byte("a"), Value: nil},
			{Key: []byte("b"), Value: nil},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, valid)
		assert.Equal(t, 2, tombstones)
		assert.Empty(t, h.handled, "handler must not run for a tombstone-only batch")
	})

	t.Run("transaction-owning handler bypasses the batch transaction", func(t *testing.T) {
		h := &txOwningHandler{}
		db := &countingTxRunner{}
		c := newTestConsumer(h)
		c.db = db

		valid, _, err := c.processBatch(context.Background(), []*kgo.Record{
			{Key: []byte("a"), Value: []byte(`{}`)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, valid)
		assert.Zero(t, db.calls, "the handler scopes its own transactions")
		require.Len(t, h.handled, 1)
	})

	t.Run("regular handler runs inside one batch transaction", func(t *testing.T) {
		h := &stubHandler{}
		db := &countingTxRunner{}
		c := newTestConsumer(h)
		c.db = db

		_, _, err := c.processBatch(context.Background(), []*kgo.Record{
			{Key: []byte("a"), Value: []byte(`{}`)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, db.calls)
	})

	t.Run("handler error propagates", func(t *testing.T) {
		h := &stubHandler{err: errors.New("merge failed")}
		c := newTestConsumer(h)

		_, _, err := c.processBatch(context.Background(), []*kgo.Record{
			{Key: []byte("a"), Value: []byte(`{}`)},
		})
		require.Error(t, err)
	})
}
