package tripmetrics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// FetchObserver receives the outcome of every API request.
type FetchObserver interface {
	ObserveFetch(endpoint, outcome string, elapsed time.Duration)
}

// Client reads pre-aggregated trip metrics from the metrics API.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	observer FetchObserver
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver records request outcomes, typically into Prometheus.
func WithObserver(o FetchObserver) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient builds a Client rooted at baseURL. An empty baseURL issues
// same-origin style relative paths, which only work with a custom transport.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the request URL for an endpoint. Range values are appended
// verbatim, without re-encoding.
func (c *Client) URL(e Endpoint, r DateRange) string {
	return c.baseURL + e.Path() + "?start=" + r.Start + "&end=" + r.End
}

// Summary fetches the KPI summary.
func (c *Client) Summary(ctx context.Context, r DateRange) (Summary, error) {
	return fetchJSON[Summary](ctx, c, EndpointSummary, r)
}

// DailyRevenue fetches the per-day revenue series.
func (c *Client) DailyRevenue(ctx context.Context, r DateRange) ([]DailyRevenuePoint, error) {
	return fetchJSON[[]DailyRevenuePoint](ctx, c, EndpointDailyRevenue, r)
}

// HourlyTrips fetches the trips-by-hour series.
func (c *Client) HourlyTrips(ctx context.Context, r DateRange) ([]HourlyTripsPoint, error) {
	return fetchJSON[[]HourlyTripsPoint](ctx, c, EndpointHourlyTrips, r)
}

// TipByPayment fetches tip percentages per payment type.
func (c *Client) TipByPayment(ctx context.Context, r DateRange) ([]TipByPaymentPoint, error) {
	return fetchJSON[[]TipByPaymentPoint](ctx, c, EndpointTipByPayment, r)
}

func fetchJSON[T any](ctx context.Context, c *Client, e Endpoint, r DateRange) (T, error) {
	start := time.Now()
	value, err := doFetch[T](ctx, c, c.URL(e, r))
	if c.observer != nil {
		c.observer.ObserveFetch(string(e), Outcome(err), time.Since(start))
	}
	if err != nil && c.logger != nil {
		c.logger.Debug("metrics api request failed",
			slog.String("endpoint", string(e)),
			slog.String("start", r.Start),
			slog.String("end", r.End),
			slog.Any("error", err))
	}
	return value, err
}

func doFetch[T any](ctx context.Context, c *Client, url string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, &TransportError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return zero, &StatusError{Code: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &TransportError{URL: url, Err: err}
	}
	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		return zero, &DecodeError{URL: url, Err: err}
	}
	return value, nil
}
