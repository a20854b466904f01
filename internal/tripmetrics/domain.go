package tripmetrics

// DateRange scopes every metrics query. Both bounds are inclusive calendar
// dates in YYYY-MM-DD form and are forwarded to the API untouched.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary contains the headline KPIs for a date range.
type Summary struct {
	TotalTrips   int64   `json:"totalTrips"`
	TotalRevenue float64 `json:"totalRevenue"`
	AvgFare      float64 `json:"avgFare"`
	AvgTipPct    float64 `json:"avgTipPct"`
}

// DailyRevenuePoint is one day of the revenue series, ascending by date.
type DailyRevenuePoint struct {
	TripDate     string  `json:"trip_date"`
	Trips        int64   `json:"trips"`
	TotalRevenue float64 `json:"total_revenue"`
}

// HourlyTripsPoint aggregates pickups per hour of day. Hours without trips
// may be absent from the series.
type HourlyTripsPoint struct {
	PickupHour  int     `json:"pickup_hour"`
	Trips       int64   `json:"trips"`
	AvgDistance float64 `json:"avg_distance"`
}

// TipByPaymentPoint reports the tip fraction for a payment type.
type TipByPaymentPoint struct {
	PaymentType string  `json:"payment_type"`
	Trips       int64   `json:"trips"`
	TipPct      float64 `json:"tip_pct"`
}

// Endpoint names the four resources exposed by the metrics API.
type Endpoint string

const (
	EndpointSummary      Endpoint = "summary"
	EndpointDailyRevenue Endpoint = "daily_revenue"
	EndpointHourlyTrips  Endpoint = "hourly_trips"
	EndpointTipByPayment Endpoint = "tip_by_payment"
)

// Endpoints lists every resource in display order.
var Endpoints = []Endpoint{EndpointSummary, EndpointDailyRevenue, EndpointHourlyTrips, EndpointTipByPayment}

// Path returns the API path of the endpoint.
func (e Endpoint) Path() string {
	return "/api/metrics/" + string(e)
}
