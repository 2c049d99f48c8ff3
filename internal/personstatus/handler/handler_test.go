package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/internal/personstatus/service"
	"syfooversiktsrv/internal/personstatus/store"
	"syfooversiktsrv/internal/platform/database"
	"syfooversiktsrv/internal/platform/middleware"
	"syfooversiktsrv/pkg/testutil"
)

type allowAllValidator struct{}

func (allowAllValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{Subject: "Z999999", AuthorizedParty: "syfomodiaperson"}, nil
}

type denyAllValidator struct{}

func (denyAllValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return nil, fmt.Errorf("invalid token")
}

type HandlerSuite struct {
	suite.Suite
	store   *store.MemoryStore
	service *service.Service
	router  chi.Router
	now     time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewMemory()
	s.now = time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = service.New(s.store,
		service.WithLogger(logger),
		service.WithNow(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	h := New(s.service, database.NopTxRunner{}, logger, allowAllValidator{})
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) request(method, path, body string) *httptest.ResponseRecorder {
	req := testutil.NewRequestWithBody(s.T(), method, path, body)
	req.Header.Set("Authorization", "Bearer test-token")
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) upsert(ident string, values models.FieldValues) {
	s.Require().NoError(s.service.UpsertFieldGroup(context.Background(), ident, values))
}

func (s *HandlerSuite) TestGetPerson() {
	s.upsert("12345678901", models.FollowUpTaskValues{Active: true, UpdatedAt: s.now})
	s.upsert("12345678901", models.FollowUpCaseValues{Case: models.FollowUpCase{
		Start:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		GeneratedAt: s.now,
		Employers:   []models.Employer{{OrgNumber: "912345678"}},
	}})

	rec := s.request(http.MethodGet, "/api/v1/persons/12345678901", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	resp := testutil.DecodeResponse[personResponse](s.T(), rec)
	s.Equal("12345678901", resp.Ident)
	s.Require().NotNil(resp.ActiveFollowUpTask)
	s.True(*resp.ActiveFollowUpTask)
	s.Require().NotNil(resp.FollowUpCase)
	s.Equal("2026-04-01", resp.FollowUpCase.Start)
	s.Require().Len(resp.FollowUpCase.Employers, 1)
	s.Equal("912345678", resp.FollowUpCase.Employers[0].OrgNumber)

	// April 1st through the 15th is 15 days, two whole weeks.
	s.Require().NotNil(resp.VarighetUker)
	s.Equal(2, *resp.VarighetUker)
}

func (s *HandlerSuite) TestGetPersonNotFound() {
	rec := s.request(http.MethodGet, "/api/v1/persons/99999999999", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestListByOrgUnit() {
	unit := "0314"
	s.upsert("12345678901", models.OrgUnitValues{AssignedOrgUnit: &unit, AssignedAt: s.now})
	s.upsert("12345678902", models.OrgUnitValues{AssignedOrgUnit: &unit, AssignedAt: s.now})
	other := "0315"
	s.upsert("12345678903", models.OrgUnitValues{AssignedOrgUnit: &other, AssignedAt: s.now})

	rec := s.request(http.MethodGet, "/api/v1/enhet/0314/persons", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	resp := testutil.DecodeResponse[[]personResponse](s.T(), rec)
	s.Len(resp, 2)
}

func (s *HandlerSuite) TestListByOrgUnitEmpty() {
	rec := s.request(http.MethodGet, "/api/v1/enhet/0399/persons", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("[]", strings.TrimSpace(rec.Body.String()))
}

func (s *HandlerSuite) TestAssignCaseworker() {
	rec := s.request(http.MethodPost, "/api/v1/persons/12345678901/caseworker", `{"veilederIdent":"Z999999"}`)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	p, err := s.service.GetByIdent(context.Background(), "12345678901")
	s.Require().NoError(err)
	s.Require().NotNil(p.AssignedCaseworker)
	s.Equal("Z999999", *p.AssignedCaseworker)
}

func (s *HandlerSuite) TestClearCaseworker() {
	s.request(http.MethodPost, "/api/v1/persons/12345678901/caseworker", `{"veilederIdent":"Z999999"}`)
	rec := s.request(http.MethodPost, "/api/v1/persons/12345678901/caseworker", `{"veilederIdent":""}`)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	p, err := s.service.GetByIdent(context.Background(), "12345678901")
	s.Require().NoError(err)
	s.Nil(p.AssignedCaseworker)
}

func (s *HandlerSuite) TestAssignCaseworkerBadBody() {
	rec := s.request(http.MethodPost, "/api/v1/persons/12345678901/caseworker", `not json`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRejectsInvalidToken() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, database.NopTxRunner{}, logger, denyAllValidator{})
	router := chi.NewRouter()
	h.Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/persons/12345678901", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
