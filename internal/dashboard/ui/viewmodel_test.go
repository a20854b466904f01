package ui

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxi-insights/taxi-insights/internal/dashboard"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/svg"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

type lineAdapter func(width, height int, labels []string, series []svg.LineSeries, opts svg.LineOpts) (template.HTML, error)

func (a lineAdapter) Line(width, height int, labels []string, series []svg.LineSeries, opts svg.LineOpts) (template.HTML, error) {
	return a(width, height, labels, series, opts)
}

var january = tripmetrics.DateRange{Start: "2023-01-01", End: "2023-01-31"}

func loadedState() dashboard.ViewState {
	return dashboard.ViewState{
		Summary: &tripmetrics.Summary{TotalTrips: 1234, TotalRevenue: 61234.56, AvgFare: 12.34, AvgTipPct: 0.18},
		Daily: []tripmetrics.DailyRevenuePoint{
			{TripDate: "2023-01-01", Trips: 600, TotalRevenue: 30000},
			{TripDate: "2023-01-02", Trips: 634, TotalRevenue: 31234.56},
		},
		Hourly:    []tripmetrics.HourlyTripsPoint{{PickupHour: 7, Trips: 90, AvgDistance: 2.5}},
		Tips:      []tripmetrics.TipByPaymentPoint{{PaymentType: "Credit card", Trips: 1000, TipPct: 0.22}},
		Range:     january,
		UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildFormatsCards(t *testing.T) {
	vm, err := NewBuilder(SVGRenderer{}, SVGRenderer{}).Build(loadedState(), january)
	require.NoError(t, err)

	assert.True(t, vm.HasData)
	assert.Equal(t, []KPICard{
		{Label: "Total trips", Value: "1,234"},
		{Label: "Total revenue", Value: "$61,235"},
		{Label: "Avg fare", Value: "$12.34"},
		{Label: "Avg tip", Value: "18.0%"},
	}, vm.Cards)
	assert.Equal(t, "2024-05-01 10:00:00 UTC", vm.UpdatedAt)
	assert.Equal(t, []HourlyRow{{Hour: "7:00", Trips: "90", AvgDistance: "2.50 mi"}}, vm.Hourly)
	assert.Equal(t, "22.0%", vm.Tips[0].TipPct)
	assert.Equal(t, "$31,235", vm.Daily[1].Revenue)

	assert.Contains(t, string(vm.DailySVG), "<path")
	assert.Contains(t, string(vm.HourlySVG), ">7:00</text>")
	assert.Contains(t, string(vm.TipsSVG), "Credit card")
}

func TestBuildInitialStateRendersPlaceholders(t *testing.T) {
	state := dashboard.ViewState{Loading: true}
	vm, err := NewBuilder(SVGRenderer{}, SVGRenderer{}).Build(state, january)
	require.NoError(t, err)

	assert.False(t, vm.HasData)
	assert.Empty(t, vm.Cards)
	assert.True(t, vm.Loading)
	assert.Empty(t, vm.UpdatedAt)
	for _, chart := range []template.HTML{vm.DailySVG, vm.HourlySVG, vm.TipsSVG} {
		assert.Contains(t, string(chart), emptyChartMessage)
	}
}

func TestBuildEmptyHourlyKeepsOtherCharts(t *testing.T) {
	state := loadedState()
	state.Hourly = []tripmetrics.HourlyTripsPoint{}

	vm, err := NewBuilder(SVGRenderer{}, SVGRenderer{}).Build(state, january)
	require.NoError(t, err)
	assert.Empty(t, vm.Hourly)
	assert.Contains(t, string(vm.HourlySVG), emptyChartMessage)
	assert.NotContains(t, string(vm.DailySVG), emptyChartMessage)
}

func TestBuildUsesDualAxisForDaily(t *testing.T) {
	var captured []svg.LineSeries
	line := lineAdapter(func(width, height int, labels []string, series []svg.LineSeries, opts svg.LineOpts) (template.HTML, error) {
		captured = series
		return svg.Line(width, height, labels, series, opts)
	})
	_, err := NewBuilder(line, SVGRenderer{}).Build(loadedState(), january)
	require.NoError(t, err)
	require.Len(t, captured, 2)
	assert.Equal(t, svg.AxisLeft, captured[0].Axis)
	assert.Equal(t, svg.AxisRight, captured[1].Axis)
	assert.Equal(t, []float64{600, 634}, captured[1].Values)
}

func TestBuildRequiresRenderers(t *testing.T) {
	_, err := NewBuilder(nil, SVGRenderer{}).Build(loadedState(), january)
	require.Error(t, err)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "1,000,000", FormatCount(1_000_000))
	assert.Equal(t, "$0", FormatRevenue(0))
	assert.Equal(t, "$1,234.50", FormatFare(1234.5))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "23:00", HourLabel(23))
	assert.True(t, strings.HasSuffix(FormatDistance(1), "mi"))
}
