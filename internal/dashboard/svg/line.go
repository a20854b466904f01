package svg

import (
	"fmt"
	"html/template"
	"strings"
)

type axisScale struct {
	min, max float64
	used     bool
	format   TickFormatter
}

func (a axisScale) y(v, top, height float64) float64 {
	return top + height - (v-a.min)*height/(a.max-a.min)
}

// Line renders a multi-series SVG line chart. Series on AxisRight get their
// own scale with ticks drawn on the right edge.
func Line(width, height int, labels []string, series []LineSeries, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
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
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	axes := [2]axisScale{
		{format: formatter(opts.LeftTicks)},
		{format: formatter(opts.RightTicks)},
	}
	for _, s := range series {
		a := &axes[s.Axis&1]
		lo, hi := bounds(s.Values)
		if !a.used {
			a.min, a.max, a.used = lo, hi, true
			continue
		}
		if lo < a.min {
			a.min = lo
		}
		if hi > a.max {
			a.max = hi
		}
	}
	for i := range axes {
		axes[i].min, axes[i].max = scaleBounds(axes[i].min, axes[i].max)
	}

	xAt := func(i int) float64 {
		if len(labels) == 1 {
			return padding + chartWidth/2
		}
		return padding + float64(i)*chartWidth/float64(len(labels)-1)
	}

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Line chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Trend data"))))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := padding + chartHeight - ratio*chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		left := axes[AxisLeft]
		if left.used {
			value := left.min + (left.max-left.min)*ratio
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(left.format(value))))
		}
		right := axes[AxisRight]
		if right.used {
			value := right.min + (right.max-right.min)*ratio
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", padding+chartWidth+6, y+4, axisColor, template.HTMLEscapeString(right.format(value))))
		}
	}

	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Axes\">", axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+chartHeight))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+chartHeight, padding+chartWidth, padding+chartHeight))
	if axes[AxisRight].used {
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding+chartWidth, padding, padding+chartWidth, padding+chartHeight))
	}
	b.WriteString("</g>")

	for si, s := range series {
		a := axes[s.Axis&1]
		color := colorAt(s.Color, si)
		var path strings.Builder
		for i, value := range s.Values {
			cmd := " L"
			if i == 0 {
				cmd = "M"
			}
			path.WriteString(fmt.Sprintf("%s%.2f %.2f", cmd, xAt(i), a.y(value, padding, chartHeight)))
		}
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", strings.TrimSpace(path.String()), color, template.HTMLEscapeString(s.Label)))

		if opts.ShowDots {
			for i, value := range s.Values {
				tip := fmt.Sprintf("%s %s: %s", labels[i], s.Label, a.format(value))
				b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s</title></circle>", xAt(i), a.y(value, padding, chartHeight), color, template.HTMLEscapeString(strings.TrimSpace(tip))))
			}
		}
	}

	stride := labelStride(len(labels), opts.MaxLabels)
	for i := 0; i < len(labels); i += stride {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xAt(i), padding+chartHeight+14, axisColor, template.HTMLEscapeString(labels[i])))
	}

	legend(&b, padding, axisColor, seriesLegend(series))

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

type legendEntry struct {
	label string
	color string
}

func seriesLegend(series []LineSeries) []legendEntry {
	entries := make([]legendEntry, 0, len(series))
	for i, s := range series {
		if s.Label == "" {
			continue
		}
		entries = append(entries, legendEntry{label: s.Label, color: colorAt(s.Color, i)})
	}
	return entries
}

func legend(b *strings.Builder, padding float64, textColor string, entries []legendEntry) {
	legendY := padding - 14
	if legendY < 12 {
		legendY = 12
	}
	legendX := padding
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, e.color))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, textColor, template.HTMLEscapeString(e.label)))
		legendX += 24 + 6*float64(len(e.label))
	}
}
