package dashboard

import (
	"time"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// ViewState is the immutable snapshot consumed by presentation. It is only
// ever replaced whole; the slices are shared between snapshots and must not
// be modified by readers.
type ViewState struct {
	Loading bool                            `json:"loading"`
	Error   string                          `json:"error,omitempty"`
	Summary *tripmetrics.Summary            `json:"summary,omitempty"`
	Daily   []tripmetrics.DailyRevenuePoint `json:"daily"`
	Hourly  []tripmetrics.HourlyTripsPoint  `json:"hourly"`
	Tips    []tripmetrics.TipByPaymentPoint `json:"tips"`

	// Range is the filter the result slots were loaded for.
	Range     tripmetrics.DateRange `json:"range"`
	LoadID    string                `json:"load_id,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// HasData reports whether at least one load has succeeded.
func (s ViewState) HasData() bool {
	return s.Summary != nil
}

func initialState() ViewState {
	return ViewState{
		Daily:  []tripmetrics.DailyRevenuePoint{},
		Hourly: []tripmetrics.HourlyTripsPoint{},
		Tips:   []tripmetrics.TipByPaymentPoint{},
	}
}

// begin marks a load in flight. Result slots and Range are kept so the
// previous charts stay visible under the loading indicator.
func (s ViewState) begin(loadID string, now time.Time) ViewState {
	s.Loading = true
	s.Error = ""
	s.LoadID = loadID
	s.UpdatedAt = now
	return s
}

// succeeded builds the snapshot that replaces all four result slots in a
// single transition.
func succeeded(b batch, loadID string, now time.Time) ViewState {
	summary := b.summary
	return ViewState{
		Loading:   false,
		Error:     "",
		Summary:   &summary,
		Daily:     nonNil(b.daily),
		Hourly:    nonNil(b.hourly),
		Tips:      nonNil(b.tips),
		Range:     b.rng,
		LoadID:    loadID,
		UpdatedAt: now,
	}
}

// fail records the error and leaves the result slots as last known.
func (s ViewState) fail(msg, loadID string, now time.Time) ViewState {
	s.Loading = false
	s.Error = msg
	s.LoadID = loadID
	s.UpdatedAt = now
	return s
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
