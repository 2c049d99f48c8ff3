// Package service implements the aggregate merge engine: the field-owned
// upsert that every consumer, maintenance job and API write goes through.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"syfooversiktsrv/internal/personstatus/metrics"
	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/pkg/platform/sentinel"
)

// Store is the aggregate persistence contract. Implementations must execute
// inside a caller transaction when one is present in context and must never
// commit on their own.
type Store interface {
	GetByIdent(ctx context.Context, ident string) (*models.PersonStatus, error)
	Create(ctx context.Context, ident string, values models.FieldValues, now time.Time) (*models.PersonStatus, error)
	UpdateGroup(ctx context.Context, ident string, values models.FieldValues, now time.Time) (int64, error)
	ListByOrgUnit(ctx context.Context, orgUnit string) ([]*models.PersonStatus, error)
	DistinctOrgUnits(ctx context.Context) ([]string, error)
	ListStaleAssigned(ctx context.Context, caseEndBefore, modifiedBefore time.Time, limit int) ([]*models.PersonStatus, error)
	ListEmployersMissingName(ctx context.Context, limit int) ([]models.Employer, error)
	SetEmployerName(ctx context.Context, id int64, name string) error
	UpdateIdent(ctx context.Context, fromIdent, toIdent string, now time.Time) (int64, error)
	DeleteByIdent(ctx context.Context, ident string) (int64, error)
}

// Service is the merge engine plus the read contract exposed to the API layer.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UpsertFieldGroup reconciles one domain's signal into the aggregate:
// an existing row gets a column-scoped update touching only the group's
// columns; an unseen ident gets a new row seeded with only those columns.
// A lost create race (another domain inserted the ident between lookup and
// insert) falls back to the column-scoped update. Idempotent under event
// re-application; commits nothing itself.
func (s *Service) UpsertFieldGroup(ctx context.Context, ident string, values models.FieldValues) error {
	if ident == "" {
		return fmt.Errorf("ident is required")
	}
	now := s.now()

	_, err := s.store.GetByIdent(ctx, ident)
	switch {
	case err == nil:
		if _, err := s.store.UpdateGroup(ctx, ident, values, now); err != nil {
			return fmt.Errorf("upsert %s for existing ident: %w", values.Group(), err)
		}
		s.metrics.RecordUpsert(string(values.Group()), "updated")
		return nil

	case errors.Is(err, sentinel.ErrNotFound):
		_, err := s.store.Create(ctx, ident, values, now)
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the insert race to a concurrent writer; the row exists now,
			// so the column-scoped update applies cleanly.
			if _, err := s.store.UpdateGroup(ctx, ident, values, now); err != nil {
				return fmt.Errorf("upsert %s after create conflict: %w", values.Group(), err)
			}
			s.metrics.RecordUpsert(string(values.Group()), "updated_after_conflict")
			return nil
		}
		if err != nil {
			return fmt.Errorf("create aggregate for %s: %w", values.Group(), err)
		}
		s.metrics.RecordUpsert(string(values.Group()), "created")
		return nil

	default:
		return fmt.Errorf("look up aggregate: %w", err)
	}
}

// GetByIdent returns one aggregate; sentinel.ErrNotFound when untracked.
func (s *Service) GetByIdent(ctx context.Context, ident string) (*models.PersonStatus, error) {
	return s.store.GetByIdent(ctx, ident)
}

// ListByOrgUnit returns every aggregate attached to an organizational unit.
func (s *Service) ListByOrgUnit(ctx context.Context, orgUnit string) ([]*models.PersonStatus, error) {
	return s.store.ListByOrgUnit(ctx, orgUnit)
}

// AssignCaseworker writes the caseworker assignment through the merge
// primitive. An empty caseworker clears the assignment.
func (s *Service) AssignCaseworker(ctx context.Context, ident, caseworker string) error {
	var v models.CaseworkerValues
	if caseworker != "" {
		v.AssignedCaseworker = &caseworker
	}
	return s.UpsertFieldGroup(ctx, ident, v)
}

// VarighetUker derives the follow-up case duration in weeks for a row, or nil
// when the row has no case. A clamped (negative) intermediate is a
// data-quality anomaly: logged as a warning and counted, never an error.
func (s *Service) VarighetUker(p *models.PersonStatus) *int {
	if p.FollowUpCase == nil {
		return nil
	}
	weeks, clamped := p.FollowUpCase.VarighetUker(s.now())
	if clamped {
		s.logger.Warn("follow-up case duration clamped to zero",
			"ident", p.Ident,
			"caseStart", p.FollowUpCase.Start,
			"caseEnd", p.FollowUpCase.End)
		s.metrics.RecordDurationClamp()
	}
	return &weeks
}
