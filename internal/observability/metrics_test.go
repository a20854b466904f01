package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveJob("metrics:warmup", "ok")

	body := scrape(t, metrics)
	if !strings.Contains(body, "taxi_jobs_total") {
		t.Fatalf("expected body to contain taxi_jobs_total, got: %s", body)
	}
	if !strings.Contains(body, "taxi_live_clients 0") {
		t.Fatalf("expected live client gauge, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "taxi_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "taxi_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestMetricsRecordLoadsAndFetches(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveLoad("ok", 120*time.Millisecond)
	metrics.ObserveLoad("status", 40*time.Millisecond)
	metrics.ObserveFetch("summary", "ok", 10*time.Millisecond)
	metrics.ObserveFetch("daily_revenue", "decode", 12*time.Millisecond)
	metrics.ClientConnected(2)
	metrics.ClientConnected(-1)

	body := scrape(t, metrics)
	for _, want := range []string{
		`taxi_dashboard_loads_total{outcome="ok"} 1`,
		`taxi_dashboard_loads_total{outcome="status"} 1`,
		`taxi_dashboard_load_duration_seconds_count 2`,
		`taxi_metrics_api_requests_total{endpoint="daily_revenue",outcome="decode"} 1`,
		`taxi_metrics_api_request_duration_seconds_count{endpoint="summary"} 1`,
		`taxi_live_clients 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveLoad("ok", time.Second)
	metrics.ObserveFetch("summary", "ok", time.Second)
	metrics.ClientConnected(1)
	metrics.ObserveJob("metrics:warmup", "ok")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
