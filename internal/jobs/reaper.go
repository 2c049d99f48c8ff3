// Package jobs contains the leader-gated maintenance jobs: the assignment
// reaper, the access-control cache preloader and the employer name backfill.
// Each job isolates failures per row or per chunk so one bad record never
// stops the rest of the run.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/internal/platform/database"
)

const reaperBatchSize = 2000

// ReaperStore is the slice of the status store the reaper reads from.
type ReaperStore interface {
	ListStaleAssigned(ctx context.Context, caseEndBefore, modifiedBefore time.Time, limit int) ([]*models.PersonStatus, error)
}

// AssignmentClearer clears a caseworker assignment through the merge engine
// so the clear obeys the same field ownership rules as any other write.
type AssignmentClearer interface {
	UpsertFieldGroup(ctx context.Context, ident string, values models.FieldValues) error
}

// Reaper clears caseworker assignments on rows whose follow-up case ended
// before one cutoff and which nobody has touched since another.
type Reaper struct {
	store         ReaperStore
	service       AssignmentClearer
	tx            database.TxRunner
	logger        *slog.Logger
	metrics       *Metrics
	caseEndCutoff time.Duration
	modifiedCutoff time.Duration
	now           func() time.Time
}

func NewReaper(store ReaperStore, service AssignmentClearer, tx database.TxRunner, logger *slog.Logger, metrics *Metrics, caseEndCutoff, modifiedCutoff time.Duration) (*Reaper, error) {
	if store == nil || service == nil || tx == nil {
		return nil, fmt.Errorf("store, service and tx runner are required")
	}
	return &Reaper{
		store:          store,
		service:        service,
		tx:             tx,
		logger:         logger,
		metrics:        metrics,
		caseEndCutoff:  caseEndCutoff,
		modifiedCutoff: modifiedCutoff,
		now:            time.Now,
	}, nil
}

func (r *Reaper) Name() string { return "assignment-reaper" }

func (r *Reaper) Run(ctx context.Context) error {
	now := r.now()
	candidates, err := r.store.ListStaleAssigned(ctx, now.Add(-r.caseEndCutoff), now.Add(-r.modifiedCutoff), reaperBatchSize)
	if err != nil {
		return fmt.Errorf("listing stale assignments: %w", err)
	}

	cleared := 0
	for _, p := range candidates {
		err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
			return r.service.UpsertFieldGroup(ctx, p.Ident, models.CaseworkerValues{AssignedCaseworker: nil})
		})
		if err != nil {
			r.logger.Error("failed to clear stale assignment", "error", err)
			r.metrics.recordRowFailure(r.Name())
			continue
		}
		cleared++
	}

	r.metrics.addCleared(cleared)
	r.logger.Info("assignment reaper finished", "candidates", len(candidates), "cleared", cleared)
	return nil
}
