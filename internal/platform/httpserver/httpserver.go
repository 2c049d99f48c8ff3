// Package httpserver assembles the chi router and the HTTP server.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"syfooversiktsrv/internal/platform/metrics"
	"syfooversiktsrv/internal/platform/middleware"
)

// ReadyChecker reports whether a backing dependency can serve traffic.
type ReadyChecker interface {
	Health(ctx context.Context) error
}

// Registrable mounts a handler's routes on the router.
type Registrable interface {
	Register(r chi.Router)
}

// NewRouter builds the service router: liveness, readiness and metrics
// endpoints plus every registered API handler.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, ready ReadyChecker, handlers ...Registrable) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CallID)
	r.Use(m.Middleware)

	r.Get("/is_alive", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/is_ready", func(w http.ResponseWriter, req *http.Request) {
		if ready != nil {
			if err := ready.Health(req.Context()); err != nil {
				logger.WarnContext(req.Context(), "readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

// New builds an HTTP server with sane defaults for this project.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
