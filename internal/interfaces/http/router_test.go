package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

type stubChecker struct {
	healthy atomic.Bool
}

func (s *stubChecker) HealthCheck(context.Context) bool {
	return s.healthy.Load()
}

func newTestRouter(t *testing.T) (*Router, *stubChecker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	checker := &stubChecker{}
	r := NewRouter(checker, time.Second, logger.NewNop())
	r.SetupRoutes()
	return r, checker
}

func serve(r *Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.GetEngine().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	r, checker := newTestRouter(t)

	rec := serve(r, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())

	checker.healthy.Store(true)
	rec = serve(r, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	metrics.SetDBUp(true)

	rec := serve(r, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "carrydesk_db_up 1")
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, serve(r, "/tickets").Code)
}
