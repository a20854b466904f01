package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// DashboardPayload aggregates the view state destined for PDF rendering.
// Cards holds formatted label/value pairs.
type DashboardPayload struct {
	Range       tripmetrics.DateRange
	GeneratedAt time.Time
	Cards       [][2]string
	Daily       []tripmetrics.DailyRevenuePoint
	Hourly      []tripmetrics.HourlyTripsPoint
	Tips        []tripmetrics.TipByPaymentPoint
	Charts      []template.HTML
}

// PDFExporter wraps Gotenberg interactions for dashboard exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderDashboard sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, BuildHTML(payload)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500ms"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("landscape", "true"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

// BuildHTML renders the standalone document converted to PDF.
func BuildHTML(payload DashboardPayload) string {
	esc := template.HTMLEscapeString
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;}.label{text-align:left;}.chart svg{width:100%;height:auto;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>NYC Taxi Insights: %s to %s</h1>", esc(payload.Range.Start), esc(payload.Range.End)))
	if !payload.GeneratedAt.IsZero() {
		b.WriteString(fmt.Sprintf("<p>Generated %s</p>", esc(payload.GeneratedAt.UTC().Format(time.RFC1123))))
	}

	if len(payload.Cards) > 0 {
		b.WriteString("<section><h2>Summary</h2><table><tbody>")
		for _, card := range payload.Cards {
			writeRow(&b, card[0], card[1])
		}
		b.WriteString("</tbody></table></section>")
	}

	for _, chart := range payload.Charts {
		b.WriteString("<section class=\"chart\">")
		b.WriteString(string(chart))
		b.WriteString("</section>")
	}

	if len(payload.Daily) > 0 {
		b.WriteString("<section><h2>Daily revenue</h2><table><thead><tr><th>Date</th><th>Trips</th><th>Revenue</th></tr></thead><tbody>")
		for _, p := range payload.Daily {
			writeRow(&b, p.TripDate, fmt.Sprint(p.Trips), formatFloat(p.TotalRevenue))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.Hourly) > 0 {
		b.WriteString("<section><h2>Trips by hour</h2><table><thead><tr><th>Hour</th><th>Trips</th><th>Avg distance</th></tr></thead><tbody>")
		for _, p := range payload.Hourly {
			writeRow(&b, fmt.Sprintf("%d:00", p.PickupHour), fmt.Sprint(p.Trips), formatFloat(p.AvgDistance))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.Tips) > 0 {
		b.WriteString("<section><h2>Tip % by payment type</h2><table><thead><tr><th>Payment type</th><th>Trips</th><th>Tip %</th></tr></thead><tbody>")
		for _, p := range payload.Tips {
			writeRow(&b, p.PaymentType, fmt.Sprint(p.Trips), fmt.Sprintf("%.1f%%", p.TipPct*100))
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeRow(b *strings.Builder, label string, values ...string) {
	b.WriteString("<tr><td class=\"label\">")
	b.WriteString(template.HTMLEscapeString(label))
	b.WriteString("</td>")
	for _, v := range values {
		b.WriteString("<td>")
		b.WriteString(template.HTMLEscapeString(v))
		b.WriteString("</td>")
	}
	b.WriteString("</tr>")
}
