package tripmetrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (o *recordingObserver) ObserveFetch(endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string]string)
	}
	o.outcomes[endpoint] = outcome
}

func TestClientDecodesAllEndpoints(t *testing.T) {
	var queries []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/metrics/summary":
			_, _ = w.Write([]byte(`{"totalTrips":1200,"totalRevenue":25000.5,"avgFare":20.83,"avgTipPct":0.18}`))
		case "/api/metrics/daily_revenue":
			_, _ = w.Write([]byte(`[{"trip_date":"2023-01-01","trips":600,"total_revenue":12000},{"trip_date":"2023-01-02","trips":600,"total_revenue":13000.5}]`))
		case "/api/metrics/hourly_trips":
			_, _ = w.Write([]byte(`[{"pickup_hour":0,"trips":40,"avg_distance":3.2},{"pickup_hour":17,"trips":90,"avg_distance":2.1}]`))
		case "/api/metrics/tip_by_payment":
			_, _ = w.Write([]byte(`[{"payment_type":"Credit card","trips":900,"tip_pct":0.21}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	ctx := context.Background()
	rng := DateRange{Start: "2023-01-01", End: "2023-01-31"}

	summary, err := client.Summary(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalTrips: 1200, TotalRevenue: 25000.5, AvgFare: 20.83, AvgTipPct: 0.18}, summary)

	daily, err := client.DailyRevenue(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, []DailyRevenuePoint{
		{TripDate: "2023-01-01", Trips: 600, TotalRevenue: 12000},
		{TripDate: "2023-01-02", Trips: 600, TotalRevenue: 13000.5},
	}, daily)

	hourly, err := client.HourlyTrips(ctx, rng)
	require.NoError(t, err)
	assert.Len(t, hourly, 2)
	assert.Equal(t, 17, hourly[1].PickupHour)

	tips, err := client.TipByPayment(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, []TipByPaymentPoint{{PaymentType: "Credit card", Trips: 900, TipPct: 0.21}}, tips)

	for _, q := range queries {
		assert.Equal(t, "start=2023-01-01&end=2023-01-31", q)
	}
}

func TestClientURLKeepsRawRange(t *testing.T) {
	client := NewClient("http://metrics.local")
	url := client.URL(EndpointDailyRevenue, DateRange{Start: "2023-01-01", End: "not-a-date"})
	assert.Equal(t, "http://metrics.local/api/metrics/daily_revenue?start=2023-01-01&end=not-a-date", url)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	observer := &recordingObserver{}
	client := NewClient(srv.URL, WithObserver(observer))
	_, err := client.DailyRevenue(context.Background(), DateRange{Start: "2023-01-01", End: "2023-01-31"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "/api/metrics/daily_revenue")
	assert.Equal(t, "status", observer.outcomes["daily_revenue"])
}

func TestClientDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Summary(context.Background(), DateRange{Start: "2023-01-01", End: "2023-01-31"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Equal(t, "decode", Outcome(err))
	assert.Contains(t, err.Error(), "malformed response body")
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := client.TipByPayment(context.Background(), DateRange{Start: "2023-01-01", End: "2023-01-31"})
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "transport", Outcome(err))
	assert.True(t, strings.Contains(err.Error(), "tip_by_payment"), "transport message should keep the url: %s", err)
}

func TestClientEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	hourly, err := NewClient(srv.URL).HourlyTrips(context.Background(), DateRange{Start: "2023-02-01", End: "2023-02-01"})
	require.NoError(t, err)
	assert.NotNil(t, hourly)
	assert.Empty(t, hourly)
}
