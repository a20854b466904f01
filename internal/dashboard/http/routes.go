package dashboardhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/", h.handleDashboard)
	r.Post("/apply", h.handleApply)
	r.Get("/api/dashboard/state", h.handleState)
	r.Get("/ws", h.handleLive)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export.csv", h.handleCSV)
		gr.Get("/export.pdf", h.handlePDF)
	})
}
