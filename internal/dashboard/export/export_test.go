package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

var january = tripmetrics.DateRange{Start: "2023-01-01", End: "2023-01-31"}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	return records
}

func TestWriteSummaryCSV(t *testing.T) {
	summary := &tripmetrics.Summary{TotalTrips: 1200, TotalRevenue: 25000.5, AvgFare: 20.835, AvgTipPct: 0.183}
	buf := &bytes.Buffer{}
	if err := WriteSummaryCSV(buf, summary, january); err != nil {
		t.Fatalf("summary csv error: %v", err)
	}
	records := readCSV(t, buf.Bytes())
	if len(records) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(records))
	}
	if records[3][0] != "Total Trips" || records[3][1] != "1200" {
		t.Fatalf("unexpected trips row %v", records[3])
	}
	if records[6][1] != "0.1830" {
		t.Fatalf("unexpected tip row %v", records[6])
	}
}

func TestWriteSummaryCSVWithoutSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteSummaryCSV(buf, nil, january); err != nil {
		t.Fatalf("summary csv error: %v", err)
	}
	if records := readCSV(t, buf.Bytes()); len(records) != 3 {
		t.Fatalf("expected header and range rows, got %d", len(records))
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteDailyRevenueCSV(buf, []tripmetrics.DailyRevenuePoint{{TripDate: "2023-01-01", Trips: 10, TotalRevenue: 99.999}}); err != nil {
		t.Fatalf("daily csv error: %v", err)
	}
	if err := WriteHourlyTripsCSV(buf, []tripmetrics.HourlyTripsPoint{{PickupHour: 5, Trips: 3, AvgDistance: 1.5}}); err != nil {
		t.Fatalf("hourly csv error: %v", err)
	}
	if err := WriteTipByPaymentCSV(buf, []tripmetrics.TipByPaymentPoint{{PaymentType: "Cash, paid", Trips: 4, TipPct: 0}}); err != nil {
		t.Fatalf("tips csv error: %v", err)
	}
	records := readCSV(t, buf.Bytes())
	want := [][]string{
		{"Trip Date", "Trips", "Total Revenue"},
		{"2023-01-01", "10", "100.00"},
		{"Pickup Hour", "Trips", "Avg Distance"},
		{"5", "3", "1.50"},
		{"Payment Type", "Trips", "Tip Pct"},
		{"Cash, paid", "4", "0.0000"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(records))
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d: expected %v got %v", i, want[i], records[i])
		}
	}
}

func TestPDFExporterRender(t *testing.T) {
	var html string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("files")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		html = string(data)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL + "/"}
	payload := DashboardPayload{
		Range:  january,
		Cards:  [][2]string{{"Total trips", "1,200"}},
		Tips:   []tripmetrics.TipByPaymentPoint{{PaymentType: "<Card>", Trips: 1, TipPct: 0.2}},
		Charts: []template.HTML{"<svg id=\"chart\"></svg>"},
	}
	data, err := exporter.RenderDashboard(context.Background(), payload)
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
	for _, want := range []string{"2023-01-01 to 2023-01-31", "1,200", "&lt;Card&gt;", "20.0%", "<svg id=\"chart\">"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in html: %s", want, html)
		}
	}
}

func TestPDFExporterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := (&PDFExporter{Endpoint: srv.URL}).RenderDashboard(context.Background(), DashboardPayload{Range: january})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected gotenberg status error, got %v", err)
	}
}

func TestPDFExporterRequiresEndpoint(t *testing.T) {
	if _, err := (&PDFExporter{}).RenderDashboard(context.Background(), DashboardPayload{}); err == nil {
		t.Fatalf("expected endpoint error")
	}
}
