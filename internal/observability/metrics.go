package observability

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics exposed by the dashboard.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loadsTotal      *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	fetchesTotal    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	liveClients     prometheus.Gauge
	jobsTotal       *prometheus.CounterVec
}

// NewMetrics builds a private registry with every dashboard metric registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxi_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_dashboard_loads_total",
		Help: "Settled dashboard loads by outcome.",
	}, []string{"outcome"})
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxi_dashboard_load_duration_seconds",
		Help:    "Time from load start until the view state settled.",
		Buckets: prometheus.DefBuckets,
	})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_metrics_api_requests_total",
		Help: "Requests to the metrics API by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxi_metrics_api_request_duration_seconds",
		Help:    "Metrics API request duration by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	liveClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "taxi_live_clients",
		Help: "Connected websocket clients.",
	})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_jobs_total",
		Help: "Background jobs by task type and outcome.",
	}, []string{"task", "outcome"})
	registry.MustRegister(requests, duration, loads, loadDuration, fetches, fetchDuration, liveClients, jobs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		loadsTotal:      loads,
		loadDuration:    loadDuration,
		fetchesTotal:    fetches,
		fetchDuration:   fetchDuration,
		liveClients:     liveClients,
		jobsTotal:       jobs,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveLoad records a settled dashboard load.
func (m *Metrics) ObserveLoad(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(outcome).Inc()
	m.loadDuration.Observe(elapsed.Seconds())
}

// ObserveFetch records a single metrics API request.
func (m *Metrics) ObserveFetch(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(endpoint, outcome).Inc()
	m.fetchDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ClientConnected adjusts the live client gauge by delta.
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.liveClients.Add(float64(delta))
}

// ObserveJob records a background job run.
func (m *Metrics) ObserveJob(task, outcome string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(task, outcome).Inc()
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack passes through to the wrapped writer so websocket upgrades work
// behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("observability: response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
