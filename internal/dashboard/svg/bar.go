package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a grouped bar chart with one bar per series for every label.
func Bars(width, height int, labels []string, series []BarSeries, opts BarOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: at least one series required")
	}
	if len(labels) == 0 {
		return "", fmt.Errorf("svg: labels required")
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("svg: series %q length must match labels", s.Label)
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	format := formatter(opts.Ticks)
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := bounds(series[0].Values)
	for _, s := range series[1:] {
		lo, hi := bounds(s.Values)
		minVal = math.Min(minVal, lo)
		maxVal = math.Max(maxVal, hi)
	}
	minVal, maxVal = scaleBounds(minVal, maxVal)
	scale := chartHeight / (maxVal - minVal)
	zeroY := padding + chartHeight - (0-minVal)*scale
	chartBottom := padding + chartHeight

	groupWidth := chartWidth / float64(len(labels))
	barWidth := groupWidth * 0.8 / float64(len(series))

	titleID := makeID(opts.Title, "bar-title")
	descID := makeID(opts.Title, "bar-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Bar chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Grouped bar comparison"))))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		value := minVal + (maxVal-minVal)*ratio
		y := padding + chartHeight - ratio*chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(format(value))))
	}

	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Axes\">", axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, chartBottom))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, zeroY, padding+chartWidth, zeroY))
	b.WriteString("</g>")

	stride := labelStride(len(labels), opts.MaxLabels)
	for i, label := range labels {
		baseX := padding + float64(i)*groupWidth + groupWidth*0.1
		for si, s := range series {
			y, h := barPosition(s.Values[i], scale, zeroY, padding, chartBottom)
			tip := strings.TrimSpace(fmt.Sprintf("%s %s: %s", label, s.Label, format(s.Values[i])))
			b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"><title>%s</title></rect>", baseX+float64(si)*barWidth, y, barWidth, h, colorAt(s.Color, si), template.HTMLEscapeString(tip)))
		}
		if i%stride == 0 {
			center := padding + float64(i)*groupWidth + groupWidth/2
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, chartBottom+14, axisColor, template.HTMLEscapeString(label)))
		}
	}

	if len(series) > 1 {
		entries := make([]legendEntry, 0, len(series))
		for i, s := range series {
			entries = append(entries, legendEntry{label: fallback(s.Label, fmt.Sprintf("Series %d", i+1)), color: colorAt(s.Color, i)})
		}
		legend(&b, padding, axisColor, entries)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, padding, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < padding {
			height -= padding - y
			y = padding
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
