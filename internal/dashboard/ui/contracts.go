package ui

import (
	"html/template"

	"github.com/taxi-insights/taxi-insights/internal/dashboard/svg"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// KPICard is one headline metric card.
type KPICard struct {
	Label string
	Value string
}

// DailyRow is a formatted daily revenue table row.
type DailyRow struct {
	Date    string
	Trips   string
	Revenue string
}

// HourlyRow is a formatted trips-by-hour table row.
type HourlyRow struct {
	Hour        string
	Trips       string
	AvgDistance string
}

// TipRow is a formatted tip-by-payment table row.
type TipRow struct {
	PaymentType string
	Trips       string
	TipPct      string
}

// DashboardViewModel combines the filter and the view state for rendering.
type DashboardViewModel struct {
	Filter    tripmetrics.DateRange
	Applied   tripmetrics.DateRange
	Loading   bool
	Error     string
	HasData   bool
	UpdatedAt string
	Cards     []KPICard
	Daily     []DailyRow
	Hourly    []HourlyRow
	Tips      []TipRow
	DailySVG  template.HTML
	HourlySVG template.HTML
	TipsSVG   template.HTML
}

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, labels []string, series []svg.LineSeries, opts svg.LineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, labels []string, series []svg.BarSeries, opts svg.BarOpts) (template.HTML, error)
}

// SVGRenderer draws charts with the built-in svg package.
type SVGRenderer struct{}

// Line implements LineRenderer.
func (SVGRenderer) Line(width, height int, labels []string, series []svg.LineSeries, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, labels, series, opts)
}

// Bars implements BarRenderer.
func (SVGRenderer) Bars(width, height int, labels []string, series []svg.BarSeries, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, labels, series, opts)
}
