package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkage/internal/party"
	"linkage/internal/relationship/handler"
	"linkage/internal/relationship/service"
	"linkage/internal/relationship/store/edge"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/middleware/auth"
)

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*auth.JWTClaims, error) {
	if token != "analyst-token" {
		return nil, errors.New("invalid token")
	}
	return &auth.JWTClaims{ActorID: id.ActorID("analyst-1")}, nil
}

func newTestRouter(checks map[string]HealthCheck) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(edge.NewInMemory(), party.NewInMemory(), service.WithLogger(logger))
	return NewRouter(RouterConfig{
		Relationships: handler.New(svc, logger),
		Validator:     staticValidator{},
		Logger:        logger,
		HealthChecks:  checks,
	})
}

func TestRouter(t *testing.T) {
	t.Run("health is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readiness reports failing dependencies", func(t *testing.T) {
		router := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"redis":"unavailable"`)
		assert.NotContains(t, rec.Body.String(), "refused")
	})

	t.Run("api requires a bearer token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/relationships/individual", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated list succeeds and echoes the request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/relationships/individual", nil)
		req.Header.Set("Authorization", "Bearer analyst-token")
		rec := httptest.NewRecorder()
		newTestRouter(nil).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Contains(t, rec.Body.String(), `"edges":[]`)
	})

	t.Run("unknown routes use the error envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})
}
