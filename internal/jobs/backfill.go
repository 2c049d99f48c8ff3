package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"syfooversiktsrv/internal/personstatus/models"
)

const backfillBatchSize = 500

// BackfillStore is the slice of the status store the backfill reads and
// writes employer sub-rows through.
type BackfillStore interface {
	ListEmployersMissingName(ctx context.Context, limit int) ([]models.Employer, error)
	SetEmployerName(ctx context.Context, id int64, name string) error
}

// NameResolver looks up the display name for an organization number.
type NameResolver interface {
	Resolve(ctx context.Context, orgNumber string) (string, error)
}

// Backfill enriches employer sub-rows that arrived on the follow-up case
// topic with only an organization number.
type Backfill struct {
	store    BackfillStore
	resolver NameResolver
	logger   *slog.Logger
	metrics  *Metrics
}

func NewBackfill(store BackfillStore, resolver NameResolver, logger *slog.Logger, metrics *Metrics) (*Backfill, error) {
	if store == nil || resolver == nil {
		return nil, fmt.Errorf("store and resolver are required")
	}
	return &Backfill{store: store, resolver: resolver, logger: logger, metrics: metrics}, nil
}

func (b *Backfill) Name() string { return "employer-name-backfill" }

func (b *Backfill) Run(ctx context.Context) error {
	employers, err := b.store.ListEmployersMissingName(ctx, backfillBatchSize)
	if err != nil {
		return fmt.Errorf("listing employers without name: %w", err)
	}

	enriched := 0
	for _, e := range employers {
		name, err := b.resolver.Resolve(ctx, e.OrgNumber)
		if err != nil {
			b.logger.Warn("could not resolve organization name", "orgNumber", e.OrgNumber, "error", err)
			b.metrics.recordRowFailure(b.Name())
			continue
		}
		if err := b.store.SetEmployerName(ctx, e.ID, name); err != nil {
			b.logger.Error("failed to store organization name", "orgNumber", e.OrgNumber, "error", err)
			b.metrics.recordRowFailure(b.Name())
			continue
		}
		enriched++
	}

	b.metrics.addEnriched(enriched)
	b.logger.Info("employer name backfill finished", "candidates", len(employers), "enriched", enriched)
	return nil
}
