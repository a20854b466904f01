package svg

import (
	"fmt"
	"math"
	"strings"
)

// Compact abbreviates large values: 1.2k, 3.4M, 5.6B.
func Compact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}

// Currency prefixes Compact with a dollar sign.
func Currency(v float64) string {
	if v < 0 {
		return "-$" + Compact(-v)
	}
	return "$" + Compact(v)
}

// Percent renders a fraction as a whole percentage, 0.183 as 18%.
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// PercentPrecise renders a fraction with one decimal, 0.183 as 18.3%.
func PercentPrecise(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func formatter(fn TickFormatter) TickFormatter {
	if fn == nil {
		return Compact
	}
	return fn
}

func colorAt(explicit string, i int) string {
	return fallback(explicit, palette[i%len(palette)])
}

func bounds(series []float64) (float64, float64) {
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// scaleBounds widens [min, max] to include zero and never collapses.
func scaleBounds(minVal, maxVal float64) (float64, float64) {
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

// labelStride returns the step between printed x labels so that at most
// limit labels are drawn.
func labelStride(n, limit int) int {
	if limit <= 0 {
		limit = DefaultMaxLabels
	}
	if n <= limit {
		return 1
	}
	return (n + limit - 1) / limit
}
