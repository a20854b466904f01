package svg

// TickFormatter renders an axis or tooltip value.
type TickFormatter func(v float64) string

// Axis selects the vertical scale a line series is drawn against.
type Axis int

const (
	AxisLeft Axis = iota
	AxisRight
)

// LineSeries is one polyline of a line chart.
type LineSeries struct {
	Label  string
	Values []float64
	Color  string
	Axis   Axis
}

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	MaxLabels   int
	LeftTicks   TickFormatter
	RightTicks  TickFormatter
}

// BarSeries is one bar per label of a grouped bar chart.
type BarSeries struct {
	Label  string
	Values []float64
	Color  string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	MaxLabels   int
	Ticks       TickFormatter
}

// Defaults for the dashboard charts.
const (
	DefaultWidth     = 720
	DefaultHeight    = 260
	DefaultPadding   = 44.0
	DefaultTicks     = 5
	DefaultMaxLabels = 12
)

var palette = []string{"#2563eb", "#f97316", "#10b981", "#a855f7", "#ef4444"}
