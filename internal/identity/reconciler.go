// Package identity handles national-ID changes: when the identity domain
// announces that a person's historical idents were superseded by a new active
// ident, the aggregate row keyed by a historical ident is re-keyed in place,
// preserving its uuid and every domain-owned column.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"syfooversiktsrv/internal/kafka"
	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/internal/platform/database"
	"syfooversiktsrv/pkg/platform/sentinel"
)

// TopicIdentityChange carries active/historical ident announcements.
const TopicIdentityChange = "personstatus.identity-change"

// Registry is the identity source of truth, consulted to re-validate a
// proposed active ident before any mutation (the announcement may race with
// the registry's own update).
type Registry interface {
	IsActive(ctx context.Context, ident string) (bool, error)
	Details(ctx context.Context, ident string) (name string, birthdate *time.Time, err error)
}

// Store is the aggregate surface reconciliation needs.
type Store interface {
	GetByIdent(ctx context.Context, ident string) (*models.PersonStatus, error)
	UpdateIdent(ctx context.Context, fromIdent, toIdent string, now time.Time) (int64, error)
	DeleteByIdent(ctx context.Context, ident string) (int64, error)
}

// StatusWriter applies field-group upserts; used for collision merges and
// person-details enrichment.
type StatusWriter interface {
	UpsertFieldGroup(ctx context.Context, ident string, values models.FieldValues) error
}

type identityChangeEvent struct {
	ActiveIdent      string   `json:"activeIdent"`
	HistoricalIdents []string `json:"historicalIdents"`
}

// Reconciler consumes identity-change events and rewrites aggregate keys.
// It owns its transaction boundaries: registry calls run outside any
// transaction, and each ident rewrite commits on its own.
type Reconciler struct {
	store    Store
	service  StatusWriter
	registry Registry
	db       database.TxRunner
	logger   *slog.Logger
	metrics  *Metrics
	consumer *kafka.Metrics
	now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func WithConsumerMetrics(m *kafka.Metrics) Option {
	return func(r *Reconciler) { r.consumer = m }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func New(store Store, service StatusWriter, registry Registry, db database.TxRunner, logger *slog.Logger, opts ...Option) (*Reconciler, error) {
	if store == nil || service == nil || registry == nil || db == nil {
		return nil, fmt.Errorf("store, service, registry and tx runner are required")
	}
	r := &Reconciler{
		store:    store,
		service:  service,
		registry: registry,
		db:       db,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Reconciler) Topic() string { return TopicIdentityChange }

// OwnsTransactions opts out of the consumer's batch transaction: registry
// validation and enrichment must not run while a transaction holds a
// connection and row locks.
func (r *Reconciler) OwnsTransactions() bool { return true }

// Handle implements the consumer batch contract for identity-change events.
func (r *Reconciler) Handle(ctx context.Context, records []*kgo.Record) error {
	for _, record := range records {
		var event identityChangeEvent
		err := json.Unmarshal(record.Value, &event)
		if err == nil && event.ActiveIdent == "" {
			err = fmt.Errorf("missing activeIdent")
		}
		if err != nil {
			r.logger.Warn("malformed identity-change record skipped",
				"partition", record.Partition, "offset", record.Offset, "error", err)
			r.consumer.RecordMalformed(r.Topic())
			continue
		}
		if _, err := r.Reconcile(ctx, event.ActiveIdent, event.HistoricalIdents); err != nil {
			return fmt.Errorf("reconcile identity change: %w", err)
		}
	}
	return nil
}

// Reconcile moves every tracked historical ident to the active ident and
// returns the number of rows updated. Zero rows is normal: most identity
// changes concern untracked persons. Each historical ident is re-validated
// against the registry first; a failed validation aborts that ident with no
// mutation. When rows exist under both idents, they are merged field group by
// field group, the side with the newer group timestamp winning, and the
// historical row is deleted.
//
// The registry call happens before the rewrite's transaction opens, and the
// enrichment after it commits, so no outbound HTTP call ever holds a
// transaction open.
func (r *Reconciler) Reconcile(ctx context.Context, activeIdent string, historicalIdents []string) (int64, error) {
	var updated int64
	for _, historical := range historicalIdents {
		if historical == "" || historical == activeIdent {
			continue
		}

		if _, err := r.store.GetByIdent(ctx, historical); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return updated, fmt.Errorf("look up historical ident: %w", err)
		}

		active, err := r.registry.IsActive(ctx, activeIdent)
		if err != nil || !active {
			r.logger.Warn("identity reconciliation aborted, active ident not confirmed",
				"activeIdent", activeIdent, "error", err)
			r.metrics.recordValidationAbort()
			continue
		}

		if err := r.db.WithinTx(ctx, func(ctx context.Context) error {
			n, err := r.rewriteIdent(ctx, historical, activeIdent)
			if err != nil {
				return err
			}
			updated += n
			r.metrics.recordReconciled(n)
			return nil
		}); err != nil {
			return updated, fmt.Errorf("rewrite ident: %w", err)
		}
	}

	if updated > 0 {
		r.enrichDetails(ctx, activeIdent)
	}
	return updated, nil
}

// rewriteIdent runs inside one transaction. The active row is checked before
// the key rewrite: a collision is detected by lookup, never by catching a
// unique violation, because a statement error would abort the transaction and
// poison every follow-up statement of the merge.
func (r *Reconciler) rewriteIdent(ctx context.Context, historical, activeIdent string) (int64, error) {
	// Re-read under the transaction; the row may have moved since the
	// pre-check outside it.
	if _, err := r.store.GetByIdent(ctx, historical); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reload historical row: %w", err)
	}

	_, err := r.store.GetByIdent(ctx, activeIdent)
	switch {
	case err == nil:
		return r.mergeCollision(ctx, historical, activeIdent)
	case !errors.Is(err, sentinel.ErrNotFound):
		return 0, fmt.Errorf("look up active ident: %w", err)
	}

	n, err := r.store.UpdateIdent(ctx, historical, activeIdent, r.now())
	if errors.Is(err, sentinel.ErrConflict) {
		// The active row appeared between the lookup and the rewrite; the
		// guarded update declined without an error, so the merge can proceed
		// in this same transaction.
		return r.mergeCollision(ctx, historical, activeIdent)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// mergeCollision resolves rows existing under both idents. For every field
// group populated on the historical row, the group is copied onto the active
// row unless the active row already holds a newer signal for it. The
// historical row is then deleted in the same transaction.
func (r *Reconciler) mergeCollision(ctx context.Context, historicalIdent, activeIdent string) (int64, error) {
	historical, err := r.store.GetByIdent(ctx, historicalIdent)
	if err != nil {
		return 0, fmt.Errorf("load historical row for merge: %w", err)
	}
	activeRow, err := r.store.GetByIdent(ctx, activeIdent)
	if err != nil {
		return 0, fmt.Errorf("load active row for merge: %w", err)
	}

	for _, group := range models.AllFieldGroups() {
		values, ok := models.ValuesFor(historical, group)
		if !ok {
			continue
		}
		if models.HasGroup(activeRow, group) &&
			!models.GroupTimestamp(historical, group).After(models.GroupTimestamp(activeRow, group)) {
			continue
		}
		if err := r.service.UpsertFieldGroup(ctx, activeIdent, values); err != nil {
			return 0, fmt.Errorf("merge %s onto active row: %w", group, err)
		}
	}

	if _, err := r.store.DeleteByIdent(ctx, historicalIdent); err != nil {
		return 0, fmt.Errorf("delete merged historical row: %w", err)
	}

	r.logger.Warn("identity collision merged field-wise",
		"activeIdent", activeIdent, "historicalIdent", historicalIdent)
	r.metrics.recordCollision()
	return 1, nil
}

// enrichDetails refreshes name and birthdate from the registry. Best effort:
// the rewrite has already happened, so a registry hiccup only delays details.
func (r *Reconciler) enrichDetails(ctx context.Context, ident string) {
	name, birthdate, err := r.registry.Details(ctx, ident)
	if err != nil {
		r.logger.Warn("person details enrichment skipped", "error", err)
		return
	}
	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	values := models.PersonDetailsValues{Name: namePtr, Birthdate: birthdate}
	if err := r.service.UpsertFieldGroup(ctx, ident, values); err != nil {
		r.logger.Warn("person details enrichment failed", "error", err)
	}
}
