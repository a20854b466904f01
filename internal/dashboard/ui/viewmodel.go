package ui

import (
	"fmt"
	"html/template"

	"github.com/taxi-insights/taxi-insights/internal/dashboard"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/svg"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

const emptyChartMessage = "No data for the selected range"

// Builder turns view state snapshots into dashboard view models.
type Builder struct {
	line LineRenderer
	bar  BarRenderer
}

// NewBuilder constructs a Builder.
func NewBuilder(line LineRenderer, bar BarRenderer) *Builder {
	return &Builder{line: line, bar: bar}
}

// Build renders the KPI cards, tables and charts for state. filter is the
// editable filter shown in the form, which may differ from the range the
// data was loaded for.
func (b *Builder) Build(state dashboard.ViewState, filter tripmetrics.DateRange) (DashboardViewModel, error) {
	if b == nil || b.line == nil || b.bar == nil {
		return DashboardViewModel{}, fmt.Errorf("svg renderer missing")
	}
	vm := DashboardViewModel{
		Filter:  filter,
		Applied: state.Range,
		Loading: state.Loading,
		Error:   state.Error,
		HasData: state.HasData(),
		Cards:   Cards(state.Summary),
		Daily:   ToDailyRows(state.Daily),
		Hourly:  ToHourlyRows(state.Hourly),
		Tips:    ToTipRows(state.Tips),
	}
	if !state.UpdatedAt.IsZero() {
		vm.UpdatedAt = state.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	var err error
	if vm.DailySVG, err = b.dailyChart(state.Daily); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.HourlySVG, err = b.hourlyChart(state.Hourly); err != nil {
		return DashboardViewModel{}, err
	}
	if vm.TipsSVG, err = b.tipsChart(state.Tips); err != nil {
		return DashboardViewModel{}, err
	}
	return vm, nil
}

// Cards returns the headline KPI cards, or none when no summary was loaded.
func Cards(summary *tripmetrics.Summary) []KPICard {
	if summary == nil {
		return nil
	}
	return []KPICard{
		{Label: "Total trips", Value: FormatCount(summary.TotalTrips)},
		{Label: "Total revenue", Value: FormatRevenue(summary.TotalRevenue)},
		{Label: "Avg fare", Value: FormatFare(summary.AvgFare)},
		{Label: "Avg tip", Value: FormatPercent(summary.AvgTipPct)},
	}
}

// ToDailyRows formats the daily revenue series.
func ToDailyRows(points []tripmetrics.DailyRevenuePoint) []DailyRow {
	rows := make([]DailyRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, DailyRow{Date: p.TripDate, Trips: FormatCount(p.Trips), Revenue: FormatRevenue(p.TotalRevenue)})
	}
	return rows
}

// ToHourlyRows formats the hourly series. Missing hours stay missing.
func ToHourlyRows(points []tripmetrics.HourlyTripsPoint) []HourlyRow {
	rows := make([]HourlyRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, HourlyRow{Hour: HourLabel(p.PickupHour), Trips: FormatCount(p.Trips), AvgDistance: FormatDistance(p.AvgDistance)})
	}
	return rows
}

// ToTipRows formats the tip-by-payment series.
func ToTipRows(points []tripmetrics.TipByPaymentPoint) []TipRow {
	rows := make([]TipRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, TipRow{PaymentType: p.PaymentType, Trips: FormatCount(p.Trips), TipPct: FormatPercent(p.TipPct)})
	}
	return rows
}

func (b *Builder) dailyChart(points []tripmetrics.DailyRevenuePoint) (template.HTML, error) {
	const title = "Daily revenue & trips"
	if len(points) == 0 {
		return svg.Placeholder(svg.DefaultWidth, svg.DefaultHeight, title, emptyChartMessage), nil
	}
	labels := make([]string, 0, len(points))
	revenue := make([]float64, 0, len(points))
	trips := make([]float64, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.TripDate)
		revenue = append(revenue, p.TotalRevenue)
		trips = append(trips, float64(p.Trips))
	}
	return b.line.Line(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.LineSeries{
		{Label: "Revenue", Values: revenue, Color: "#2563eb", Axis: svg.AxisLeft},
		{Label: "Trips", Values: trips, Color: "#f97316", Axis: svg.AxisRight},
	}, svg.LineOpts{
		Title:       title,
		Description: "Total revenue (left axis) and trip count (right axis) per day",
		ShowDots:    true,
		LeftTicks:   svg.Currency,
		RightTicks:  svg.Compact,
	})
}

func (b *Builder) hourlyChart(points []tripmetrics.HourlyTripsPoint) (template.HTML, error) {
	const title = "Trips by hour"
	if len(points) == 0 {
		return svg.Placeholder(svg.DefaultWidth, svg.DefaultHeight, title, emptyChartMessage), nil
	}
	labels := make([]string, 0, len(points))
	trips := make([]float64, 0, len(points))
	for _, p := range points {
		labels = append(labels, HourLabel(p.PickupHour))
		trips = append(trips, float64(p.Trips))
	}
	return b.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.BarSeries{
		{Label: "Trips", Values: trips, Color: "#0ea5e9"},
	}, svg.BarOpts{
		Title:       title,
		Description: "Trip count per pickup hour",
		Ticks:       svg.Compact,
	})
}

func (b *Builder) tipsChart(points []tripmetrics.TipByPaymentPoint) (template.HTML, error) {
	const title = "Tip % by payment type"
	if len(points) == 0 {
		return svg.Placeholder(svg.DefaultWidth, svg.DefaultHeight, title, emptyChartMessage), nil
	}
	labels := make([]string, 0, len(points))
	pct := make([]float64, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.PaymentType)
		pct = append(pct, p.TipPct)
	}
	return b.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.BarSeries{
		{Label: "Tip %", Values: pct, Color: "#10b981"},
	}, svg.BarOpts{
		Title:       title,
		Description: "Average tip share of fare per payment type",
		Ticks:       svg.Percent,
	})
}
