package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMetricsWarmup fetches a date range through the metrics cache.
	TaskMetricsWarmup = "metrics:warmup"
	// TaskMetricsCacheBump invalidates every cached metrics response.
	TaskMetricsCacheBump = "metrics:cache_bump"
)

// MetricsWarmupPayload selects the range to warm. Empty fields fall back to
// the worker's default range.
type MetricsWarmupPayload struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Range resolves the payload against defaults.
func (p MetricsWarmupPayload) Range(defaults tripmetrics.DateRange) tripmetrics.DateRange {
	rng := defaults
	if p.Start != "" {
		rng.Start = p.Start
	}
	if p.End != "" {
		rng.End = p.End
	}
	return rng
}

// CacheBumpPayload records why the cache was invalidated.
type CacheBumpPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewMetricsWarmupTask constructs a warmup task for rng. A zero range warms
// the default range.
func NewMetricsWarmupTask(rng tripmetrics.DateRange) (*asynq.Task, error) {
	data, err := json.Marshal(MetricsWarmupPayload{Start: rng.Start, End: rng.End})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsWarmup, data), nil
}

// NewCacheBumpTask constructs a cache invalidation task.
func NewCacheBumpTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(CacheBumpPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsCacheBump, data), nil
}
