// Package http composes the server's route tree: global middleware, health and
// metrics endpoints, and the authenticated relationship API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"linkage/internal/platform/metrics"
	"linkage/internal/platform/middleware"
	"linkage/internal/relationship/handler"
	dErrors "linkage/pkg/domain-errors"
	"linkage/pkg/platform/httputil"
	"linkage/pkg/platform/middleware/auth"
	"linkage/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether one dependency is ready to serve traffic.
type HealthCheck func(ctx context.Context) error

// RouterConfig aggregates the handler and middleware dependencies of the route tree.
type RouterConfig struct {
	Relationships  *handler.Handler
	Validator      auth.JWTValidator
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cfg.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.HealthChecks, logger))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(api chi.Router) {
		api.Use(chimw.Timeout(timeout))
		api.Use(requesttime.Middleware)
		if cfg.Validator != nil {
			api.Use(auth.RequireAuth(cfg.Validator, logger))
		}
		if cfg.Relationships != nil {
			cfg.Relationships.Register(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	return r
}

func readiness(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		ready := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
