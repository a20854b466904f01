package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []string{"Credit card", "Cash"}, []BarSeries{
		{Label: "Tip %", Values: []float64{0.21, 0}},
	}, BarOpts{
		Title:       "Tip % by payment type",
		Description: "Average tip share",
		Ticks:       Percent,
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<rect") != 2 {
		t.Fatalf("expected one rect per label, got %s", output)
	}
	if !strings.Contains(output, "Credit card Tip %: 21%") {
		t.Fatalf("expected percent tooltip, got %s", output)
	}
	if !strings.Contains(output, ">21%</text>") {
		t.Fatalf("expected percent ticks, got %s", output)
	}
}

func TestBarsLegendForSeveralSeries(t *testing.T) {
	html, err := Bars(420, 220, []string{"0:00", "1:00"}, []BarSeries{
		{Label: "Trips", Values: []float64{10, 20}},
		{Label: "Avg distance", Values: []float64{2, 3}},
	}, BarOpts{})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.Contains(output, ">Avg distance</text>") {
		t.Fatalf("expected legend label")
	}
}

func TestBarsRejectsEmptyInput(t *testing.T) {
	if _, err := Bars(420, 220, nil, []BarSeries{{Values: nil}}, BarOpts{}); err == nil {
		t.Fatalf("expected labels error")
	}
	if _, err := Bars(420, 220, []string{"a"}, nil, BarOpts{}); err == nil {
		t.Fatalf("expected series error")
	}
}

func TestPlaceholder(t *testing.T) {
	output := string(Placeholder(0, 0, "Trips by hour", "No data for this range"))
	if !strings.HasPrefix(output, "<svg") || !strings.Contains(output, "No data for this range") {
		t.Fatalf("unexpected placeholder %s", output)
	}
	if !strings.Contains(output, "trips-by-hour-empty-title") {
		t.Fatalf("expected stable title id, got %s", output)
	}
}

func TestFormatters(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{Compact(1234), "1.2k"},
		{Compact(12), "12"},
		{Currency(2500000), "$2.5M"},
		{Currency(-12), "-$12"},
		{Percent(0.183), "18%"},
		{PercentPrecise(0.183), "18.3%"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("expected %s got %s", tc.want, tc.got)
		}
	}
}
