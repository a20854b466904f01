package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxi-insights/taxi-insights/internal/observability"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(RouterParams{
		Config:  &Config{AppEnv: "test"},
		Metrics: observability.NewMetrics(),
	})
}

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Contains(t, rr.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
}

func TestRouterServesStaticAssets(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/js/live.js", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	require.Contains(t, rr.Body.String(), "WebSocket")
}

func TestRouterExposesMetrics(t *testing.T) {
	router := newTestRouter(t)

	warm := httptest.NewRecorder()
	router.ServeHTTP(warm, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), `taxi_http_requests_total{code="200",route="/healthz"} 1`), rr.Body.String())
}

func TestSkipUpgradesBypassesMiddleware(t *testing.T) {
	wrapped := 0
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped++
			next.ServeHTTP(w, r)
		})
	}
	h := skipUpgrades(mw)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	plain := httptest.NewRequest(http.MethodGet, "/ws", nil)
	h.ServeHTTP(httptest.NewRecorder(), plain)
	require.Equal(t, 1, wrapped)

	upgrade := httptest.NewRequest(http.MethodGet, "/ws", nil)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, upgrade)
	require.Equal(t, 1, wrapped)
	require.Equal(t, http.StatusNoContent, rr.Code)
}
