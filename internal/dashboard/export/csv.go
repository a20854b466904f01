package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// WriteSummaryCSV serialises the KPI summary. A nil summary writes the
// header and the range only.
func WriteSummaryCSV(w io.Writer, summary *tripmetrics.Summary, rng tripmetrics.DateRange) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Start", rng.Start},
		{"End", rng.End},
	}
	if summary != nil {
		records = append(records,
			[]string{"Total Trips", strconv.FormatInt(summary.TotalTrips, 10)},
			[]string{"Total Revenue", formatFloat(summary.TotalRevenue)},
			[]string{"Avg Fare", formatFloat(summary.AvgFare)},
			[]string{"Avg Tip Pct", formatFraction(summary.AvgTipPct)},
		)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDailyRevenueCSV emits the daily revenue series.
func WriteDailyRevenueCSV(w io.Writer, points []tripmetrics.DailyRevenuePoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Trip Date", "Trips", "Total Revenue"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.TripDate,
			strconv.FormatInt(point.Trips, 10),
			formatFloat(point.TotalRevenue),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteHourlyTripsCSV emits the trips-by-hour series.
func WriteHourlyTripsCSV(w io.Writer, points []tripmetrics.HourlyTripsPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Pickup Hour", "Trips", "Avg Distance"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			strconv.Itoa(point.PickupHour),
			strconv.FormatInt(point.Trips, 10),
			formatFloat(point.AvgDistance),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTipByPaymentCSV emits the tip share per payment type.
func WriteTipByPaymentCSV(w io.Writer, points []tripmetrics.TipByPaymentPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Payment Type", "Trips", "Tip Pct"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.PaymentType,
			strconv.FormatInt(point.Trips, 10),
			formatFraction(point.TipPct),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatFraction(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
