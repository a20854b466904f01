package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/taxi-insights/taxi-insights/internal/dashboard"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/export"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/ui"
	"github.com/taxi-insights/taxi-insights/internal/platform/httpx"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
	"github.com/taxi-insights/taxi-insights/internal/view"
)

const (
	pageTitle      = "NYC Taxi Insights"
	loadingRefresh = 2
	pdfTimeout     = 30 * time.Second
)

// Controller is the view controller contract used by the handler.
type Controller interface {
	Filter() tripmetrics.DateRange
	SetStart(start string)
	SetEnd(end string)
	Snapshot() dashboard.ViewState
	LoadAsync(ctx context.Context, rng tripmetrics.DateRange) <-chan struct{}
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler serves the dashboard page, its JSON state and the exports.
type Handler struct {
	logger    *slog.Logger
	ctrl      Controller
	templates *view.Engine
	builder   *ui.Builder
	pdf       PDFService
	live      http.Handler
	baseCtx   context.Context
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. Loads started by Apply
// run on baseCtx so they outlive the request that triggered them. pdf and
// live may be nil.
func NewHandler(baseCtx context.Context, logger *slog.Logger, ctrl Controller, templates *view.Engine, line ui.LineRenderer, bar ui.BarRenderer, pdf PDFService, live http.Handler) *Handler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	h := &Handler{
		logger:    logger,
		ctrl:      ctrl,
		templates: templates,
		builder:   ui.NewBuilder(line, bar),
		pdf:       pdf,
		live:      live,
		baseCtx:   baseCtx,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state := h.ctrl.Snapshot()
	vm, err := h.builder.Build(state, h.ctrl.Filter())
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	viewData := view.TemplateData{
		Title:       pageTitle,
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if state.Loading {
		viewData.Refresh = loadingRefresh
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

// handleApply copies the submitted dates into the filter and loads the
// filter as it stands at that moment. Dates are passed through unvalidated.
func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["start"]; ok {
		h.ctrl.SetStart(r.PostForm.Get("start"))
	}
	if _, ok := r.PostForm["end"]; ok {
		h.ctrl.SetEnd(r.PostForm.Get("end"))
	}
	rng := h.ctrl.Filter()
	h.ctrl.LoadAsync(h.baseCtx, rng)

	if h.logger != nil {
		h.logger.Info("apply filter", slog.String("start", rng.Start), slog.String("end", rng.End))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type stateResponse struct {
	Filter tripmetrics.DateRange `json:"filter"`
	dashboard.ViewState
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, stateResponse{
		Filter:    h.ctrl.Filter(),
		ViewState: h.ctrl.Snapshot(),
	})
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	state := h.ctrl.Snapshot()
	if !state.HasData() {
		httpx.RespondError(w, fmt.Errorf("export csv: %w", httpx.ErrNotReady))
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSummaryCSV(buf, state.Summary, state.Range); err != nil {
		h.handleServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteDailyRevenueCSV(buf, state.Daily); err != nil {
		h.handleServerError(w, "write daily csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteHourlyTripsCSV(buf, state.Hourly); err != nil {
		h.handleServerError(w, "write hourly csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteTipByPaymentCSV(buf, state.Tips); err != nil {
		h.handleServerError(w, "write tips csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName(state.Range, "csv")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.RespondError(w, fmt.Errorf("pdf exporter not configured: %w", httpx.ErrUnavailable))
		return
	}
	state := h.ctrl.Snapshot()
	if !state.HasData() {
		httpx.RespondError(w, fmt.Errorf("export pdf: %w", httpx.ErrNotReady))
		return
	}

	vm, err := h.builder.Build(state, state.Range)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	cards := make([][2]string, 0, len(vm.Cards))
	for _, c := range vm.Cards {
		cards = append(cards, [2]string{c.Label, c.Value})
	}
	payload := export.DashboardPayload{
		Range:       state.Range,
		GeneratedAt: h.now(),
		Cards:       cards,
		Daily:       state.Daily,
		Hourly:      state.Hourly,
		Tips:        state.Tips,
		Charts:      []template.HTML{vm.DailySVG, vm.HourlySVG, vm.TipsSVG},
	}

	ctx, cancel := context.WithTimeout(r.Context(), pdfTimeout)
	defer cancel()
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logError("render pdf", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName(state.Range, "pdf")))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		http.NotFound(w, r)
		return
	}
	h.live.ServeHTTP(w, r)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

// exportName builds a download file name from the loaded range, keeping
// only characters that are safe in a Content-Disposition header.
func exportName(rng tripmetrics.DateRange, ext string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' {
				return r
			}
			return -1
		}, s)
	}
	return fmt.Sprintf("taxi-insights-%s_%s.%s", clean(rng.Start), clean(rng.End), ext)
}
