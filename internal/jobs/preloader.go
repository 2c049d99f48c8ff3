package jobs

//go:generate mockgen -source=preloader.go -destination=mocks/mocks.go -package=mocks CacheWarmer,NameResolver

import (
	"context"
	"fmt"
	"log/slog"

	"syfooversiktsrv/internal/personstatus/models"
)

const preloadChunkSize = 50

// PreloaderStore is the slice of the status store the preloader reads from.
type PreloaderStore interface {
	DistinctOrgUnits(ctx context.Context) ([]string, error)
	ListByOrgUnit(ctx context.Context, orgUnit string) ([]*models.PersonStatus, error)
}

// CacheWarmer pushes a batch of idents into the access-control cache.
type CacheWarmer interface {
	WarmCache(ctx context.Context, idents []string) error
}

// Preloader walks every known organizational unit once a day and warms the
// access-control cache for persons with an active follow-up signal, so the
// first overview load of the morning does not pay cold-cache latency.
type Preloader struct {
	store   PreloaderStore
	warmer  CacheWarmer
	logger  *slog.Logger
	metrics *Metrics
}

func NewPreloader(store PreloaderStore, warmer CacheWarmer, logger *slog.Logger, metrics *Metrics) (*Preloader, error) {
	if store == nil || warmer == nil {
		return nil, fmt.Errorf("store and warmer are required")
	}
	return &Preloader{store: store, warmer: warmer, logger: logger, metrics: metrics}, nil
}

func (p *Preloader) Name() string { return "cache-preloader" }

func (p *Preloader) Run(ctx context.Context) error {
	units, err := p.store.DistinctOrgUnits(ctx)
	if err != nil {
		return fmt.Errorf("listing org units: %w", err)
	}

	warmed, failed := 0, 0
	for _, unit := range units {
		w, f, err := p.warmUnit(ctx, unit)
		if err != nil {
			p.logger.Error("failed to preload org unit", "orgUnit", unit, "error", err)
			p.metrics.recordRowFailure(p.Name())
			continue
		}
		warmed += w
		failed += f
	}

	p.metrics.addWarmed(warmed)
	p.logger.Info("cache preloader finished", "orgUnits", len(units), "warmed", warmed, "failedChunks", failed)
	return nil
}

func (p *Preloader) warmUnit(ctx context.Context, unit string) (warmed, failedChunks int, err error) {
	persons, err := p.store.ListByOrgUnit(ctx, unit)
	if err != nil {
		return 0, 0, fmt.Errorf("listing persons: %w", err)
	}

	var idents []string
	for _, person := range persons {
		if person.HasActiveSignal() {
			idents = append(idents, person.Ident)
		}
	}

	for start := 0; start < len(idents); start += preloadChunkSize {
		end := min(start+preloadChunkSize, len(idents))
		chunk := idents[start:end]
		if err := p.warmer.WarmCache(ctx, chunk); err != nil {
			p.logger.Error("cache warm chunk failed", "orgUnit", unit, "size", len(chunk), "error", err)
			p.metrics.recordRowFailure(p.Name())
			failedChunks++
			continue
		}
		warmed += len(chunk)
	}
	return warmed, failedChunks, nil
}
