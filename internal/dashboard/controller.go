// Package dashboard implements the metrics view controller: the date filter,
// the four-way metrics load and the view state shown to users.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// FallbackError is shown when a failed load carries no message of its own.
const FallbackError = "Failed to load metrics"

// Source defines the metrics reads the orchestrator fans out over.
type Source interface {
	Summary(ctx context.Context, r tripmetrics.DateRange) (tripmetrics.Summary, error)
	DailyRevenue(ctx context.Context, r tripmetrics.DateRange) ([]tripmetrics.DailyRevenuePoint, error)
	HourlyTrips(ctx context.Context, r tripmetrics.DateRange) ([]tripmetrics.HourlyTripsPoint, error)
	TipByPayment(ctx context.Context, r tripmetrics.DateRange) ([]tripmetrics.TipByPaymentPoint, error)
}

// Presenter receives every view state transition. Present is called while
// transitions are serialised and must not block.
type Presenter interface {
	Present(state ViewState)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(state ViewState)

// Present implements Presenter.
func (f PresenterFunc) Present(state ViewState) { f(state) }

// LoadObserver records the outcome of every settled load.
type LoadObserver interface {
	ObserveLoad(outcome string, elapsed time.Duration)
}

// Controller owns the filter state, the load orchestrator and the view state.
type Controller struct {
	source     Source
	logger     *slog.Logger
	observer   LoadObserver
	presenters []Presenter
	now        func() time.Time
	newID      func() string

	mu     sync.Mutex
	filter tripmetrics.DateRange
	state  ViewState

	mountOnce sync.Once
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver records load outcomes.
func WithObserver(o LoadObserver) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithPresenter subscribes p to view state transitions.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) {
		if p != nil {
			c.presenters = append(c.presenters, p)
		}
	}
}

// WithClock overrides the controller clock for testing.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewController builds a Controller whose filter starts at defaults.
func NewController(source Source, defaults tripmetrics.DateRange, opts ...Option) *Controller {
	c := &Controller{
		source: source,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
		filter: defaults,
		state:  initialState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filter returns the current, not necessarily applied, date filter.
func (c *Controller) Filter() tripmetrics.DateRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetStart edits the start date. The view state is unaffected until the
// filter is applied.
func (c *Controller) SetStart(start string) {
	c.mu.Lock()
	c.filter.Start = start
	c.mu.Unlock()
}

// SetEnd edits the end date. The view state is unaffected until the filter
// is applied.
func (c *Controller) SetEnd(end string) {
	c.mu.Lock()
	c.filter.End = end
	c.mu.Unlock()
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mount runs the initial load with the filter current at that moment. Only
// the first call loads; later calls return an already closed channel.
func (c *Controller) Mount(ctx context.Context) <-chan struct{} {
	var done <-chan struct{} = closed()
	c.mountOnce.Do(func() {
		done = c.LoadAsync(ctx, c.Filter())
	})
	return done
}

// Apply loads the filter current at the time of the call and waits for the
// load to settle.
func (c *Controller) Apply(ctx context.Context) {
	<-c.ApplyAsync(ctx)
}

// ApplyAsync captures the current filter, starts loading it and returns a
// channel closed once the load settled.
func (c *Controller) ApplyAsync(ctx context.Context) <-chan struct{} {
	return c.LoadAsync(ctx, c.Filter())
}

// LoadData fetches all four metric sets for rng and waits until the view
// state reflects either the complete batch or the failure.
func (c *Controller) LoadData(ctx context.Context, rng tripmetrics.DateRange) {
	<-c.LoadAsync(ctx, rng)
}

// LoadAsync marks the view state as loading before returning, then fetches
// in the background. Overlapping loads are not cancelled or sequenced: each
// settles on its own and the last one to settle wins.
func (c *Controller) LoadAsync(ctx context.Context, rng tripmetrics.DateRange) <-chan struct{} {
	loadID := c.newID()
	c.transition(func(s ViewState) ViewState {
		return s.begin(loadID, c.now())
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.run(ctx, rng, loadID)
	}()
	return done
}

func (c *Controller) run(ctx context.Context, rng tripmetrics.DateRange, loadID string) {
	started := time.Now()
	logger := c.logger.With(
		slog.String("load_id", loadID),
		slog.String("start", rng.Start),
		slog.String("end", rng.End),
	)

	b, err := c.fetch(ctx, rng)
	if err != nil {
		msg := errorMessage(err)
		c.transition(func(s ViewState) ViewState {
			return s.fail(msg, loadID, c.now())
		})
		logger.Error("load metrics", slog.String("outcome", tripmetrics.Outcome(err)), slog.Any("error", err))
		c.observe(tripmetrics.Outcome(err), time.Since(started))
		return
	}

	c.transition(func(ViewState) ViewState {
		return succeeded(b, loadID, c.now())
	})
	logger.Info("metrics loaded",
		slog.Int("daily", len(b.daily)),
		slog.Int("hourly", len(b.hourly)),
		slog.Int("tips", len(b.tips)),
		slog.Duration("elapsed", time.Since(started)))
	c.observe("ok", time.Since(started))
}

type batch struct {
	rng     tripmetrics.DateRange
	summary tripmetrics.Summary
	daily   []tripmetrics.DailyRevenuePoint
	hourly  []tripmetrics.HourlyTripsPoint
	tips    []tripmetrics.TipByPaymentPoint
}

// fetch issues the four requests concurrently and returns only once all of
// them settled. Any failure fails the whole batch.
func (c *Controller) fetch(ctx context.Context, rng tripmetrics.DateRange) (batch, error) {
	b := batch{rng: rng}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := c.source.Summary(ctx, rng)
		if err != nil {
			return err
		}
		b.summary = summary
		return nil
	})

	g.Go(func() error {
		points, err := c.source.DailyRevenue(ctx, rng)
		if err != nil {
			return err
		}
		b.daily = points
		return nil
	})

	g.Go(func() error {
		points, err := c.source.HourlyTrips(ctx, rng)
		if err != nil {
			return err
		}
		b.hourly = points
		return nil
	})

	g.Go(func() error {
		points, err := c.source.TipByPayment(ctx, rng)
		if err != nil {
			return err
		}
		b.tips = points
		return nil
	})

	if err := g.Wait(); err != nil {
		return batch{}, err
	}
	return b, nil
}

func (c *Controller) transition(fn func(ViewState) ViewState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	for _, p := range c.presenters {
		p.Present(c.state)
	}
}

func (c *Controller) observe(outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveLoad(outcome, elapsed)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return FallbackError
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackError
}

func closed() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
