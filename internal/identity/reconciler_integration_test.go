//go:build integration

package identity_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"syfooversiktsrv/internal/identity"
	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/internal/personstatus/service"
	"syfooversiktsrv/internal/personstatus/store"
	"syfooversiktsrv/internal/platform/database"
	"syfooversiktsrv/pkg/platform/sentinel"
	"syfooversiktsrv/pkg/testutil/containers"
)

// =============================================================================
// Identity Reconciliation Integration Suite
// =============================================================================
// Justification for integration tests: the collision merge issues several
// statements after detecting that a row already exists under the active
// ident. Only a real PostgreSQL transaction proves the detection does not
// abort the transaction those statements run on.

type fixedRegistry struct {
	activeIdent string
}

func (r fixedRegistry) IsActive(_ context.Context, ident string) (bool, error) {
	return ident == r.activeIdent, nil
}

func (r fixedRegistry) Details(context.Context, string) (string, *time.Time, error) {
	return "Kari Nordmann", nil, nil
}

type ReconcilerIntegrationSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	db         *database.DB
	store      *store.PostgresStore
	service    *service.Service
	reconciler *identity.Reconciler
	now        time.Time
}

func TestReconcilerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ReconcilerIntegrationSuite))
}

func (s *ReconcilerIntegrationSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.now = time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)

	var err error
	s.db, err = database.New(database.Config{DSN: s.postgres.DSN})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = s.db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service, err = service.New(s.store,
		service.WithLogger(logger),
		service.WithNow(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	s.reconciler, err = identity.New(s.store, s.service, fixedRegistry{activeIdent: "10000000001"}, s.db, logger,
		identity.WithNow(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *ReconcilerIntegrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "person_status_employer", "person_status"))
}

func (s *ReconcilerIntegrationSuite) upsert(ident string, values models.FieldValues) {
	s.Require().NoError(s.service.UpsertFieldGroup(context.Background(), ident, values))
}

func (s *ReconcilerIntegrationSuite) TestRewritePreservesRow() {
	ctx := context.Background()
	caseworker := "Z999999"
	s.upsert("10000000002", models.CaseworkerValues{AssignedCaseworker: &caseworker})

	before, err := s.store.GetByIdent(ctx, "10000000002")
	s.Require().NoError(err)

	updated, err := s.reconciler.Reconcile(ctx, "10000000001", []string{"10000000002"})
	s.Require().NoError(err)
	s.Equal(int64(1), updated)

	after, err := s.store.GetByIdent(ctx, "10000000001")
	s.Require().NoError(err)
	s.Equal(before.UUID, after.UUID)
	s.Require().NotNil(after.AssignedCaseworker)
	s.Equal("Z999999", *after.AssignedCaseworker)
}

func (s *ReconcilerIntegrationSuite) TestCollisionMergeCommits() {
	ctx := context.Background()
	older := s.now.Add(-72 * time.Hour)
	newer := s.now.Add(-1 * time.Hour)

	// Rows under both idents: the rewrite cannot proceed and the field-wise
	// merge has to run, statement after statement, on one transaction.
	caseworker := "Z999999"
	s.upsert("10000000002", models.CaseworkerValues{AssignedCaseworker: &caseworker})
	s.upsert("10000000002", models.DialogMeetingValues{Status: models.DialogMeetingResponseReceived, GeneratedAt: newer})
	s.upsert("10000000001", models.DialogMeetingValues{Status: models.DialogMeetingResponsePending, GeneratedAt: older})
	s.upsert("10000000001", models.FollowUpTaskValues{Active: true, UpdatedAt: newer})

	updated, err := s.reconciler.Reconcile(ctx, "10000000001", []string{"10000000002"})
	s.Require().NoError(err)
	s.Equal(int64(1), updated)

	merged, err := s.store.GetByIdent(ctx, "10000000001")
	s.Require().NoError(err)
	s.Require().NotNil(merged.DialogMeetingStatus)
	s.Equal(models.DialogMeetingResponseReceived, *merged.DialogMeetingStatus, "newer historical group wins")
	s.Require().NotNil(merged.ActiveFollowUpTask)
	s.True(*merged.ActiveFollowUpTask, "group present only on the active row survives")
	s.Require().NotNil(merged.AssignedCaseworker)
	s.Equal("Z999999", *merged.AssignedCaseworker, "group absent on the active row is filled in")
	s.Require().NotNil(merged.Name)
	s.Equal("Kari Nordmann", *merged.Name, "details enrichment follows the merge")

	_, err = s.store.GetByIdent(ctx, "10000000002")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ReconcilerIntegrationSuite) TestRedeliveryAfterCollisionMergeIsANoop() {
	ctx := context.Background()
	s.upsert("10000000002", models.FollowUpTaskValues{Active: false, UpdatedAt: s.now.Add(-time.Hour)})
	s.upsert("10000000001", models.FollowUpTaskValues{Active: true, UpdatedAt: s.now})

	for i := 0; i < 2; i++ {
		_, err := s.reconciler.Reconcile(ctx, "10000000001", []string{"10000000002"})
		s.Require().NoError(err, "redelivered collision event, attempt %d", i+1)
	}

	p, err := s.store.GetByIdent(ctx, "10000000001")
	s.Require().NoError(err)
	s.Require().NotNil(p.ActiveFollowUpTask)
	s.True(*p.ActiveFollowUpTask)
}
