// Package handler exposes the caseworker-facing REST API over the person
// status aggregate.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"syfooversiktsrv/internal/personstatus/models"
	"syfooversiktsrv/internal/platform/database"
	"syfooversiktsrv/internal/platform/middleware"
	"syfooversiktsrv/pkg/platform/sentinel"
)

// Service defines the aggregate operations the API needs.
type Service interface {
	GetByIdent(ctx context.Context, ident string) (*models.PersonStatus, error)
	ListByOrgUnit(ctx context.Context, orgUnit string) ([]*models.PersonStatus, error)
	AssignCaseworker(ctx context.Context, ident, caseworker string) error
	VarighetUker(p *models.PersonStatus) *int
}

// Handler handles the person status endpoints.
type Handler struct {
	service      Service
	tx           database.TxRunner
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates a new person status Handler.
func New(service Service, tx database.TxRunner, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		tx:           tx,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register registers the API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	api.Get("/persons/{ident}", h.handleGetPerson)
	api.Post("/persons/{ident}/caseworker", h.handleAssignCaseworker)
	api.Get("/enhet/{enhetId}/persons", h.handleListByOrgUnit)

	r.Mount("/api/v1", api)
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident := chi.URLParam(r, "ident")

	p, err := h.service.GetByIdent(ctx, ident)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, http.StatusNotFound, "person not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to load person status",
			"error", err,
			"callId", middleware.GetCallID(ctx),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toPersonResponse(p, h.service.VarighetUker(p)))
}

func (h *Handler) handleListByOrgUnit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgUnit := chi.URLParam(r, "enhetId")

	persons, err := h.service.ListByOrgUnit(ctx, orgUnit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list persons for org unit",
			"error", err,
			"orgUnit", orgUnit,
			"callId", middleware.GetCallID(ctx),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]personResponse, 0, len(persons))
	for _, p := range persons {
		out = append(out, toPersonResponse(p, h.service.VarighetUker(p)))
	}
	writeJSON(w, http.StatusOK, out)
}

type assignRequest struct {
	Caseworker string `json:"veilederIdent"`
}

// handleAssignCaseworker assigns or, with an empty caseworker, clears the
// assignment. The write runs in its own transaction like any other merge.
func (h *Handler) handleAssignCaseworker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident := chi.URLParam(r, "ident")

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		return h.service.AssignCaseworker(ctx, ident, req.Caseworker)
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to assign caseworker",
			"error", err,
			"callId", middleware.GetCallID(ctx),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
