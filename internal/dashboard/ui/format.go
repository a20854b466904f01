package ui

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount groups thousands: 1,234.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatRevenue renders whole dollars: $1,234.
func FormatRevenue(v float64) string {
	return "$" + printer.Sprintf("%.0f", v)
}

// FormatFare renders dollars and cents: $12.34.
func FormatFare(v float64) string {
	return "$" + printer.Sprintf("%.2f", v)
}

// FormatPercent renders a fraction with one decimal: 0.183 as 18.3%.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatDistance renders miles with two decimals.
func FormatDistance(v float64) string {
	return fmt.Sprintf("%.2f mi", v)
}

// HourLabel renders a pickup hour as H:00.
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}
