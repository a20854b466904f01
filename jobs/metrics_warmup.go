package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

const defaultWarmupTimeout = 2 * time.Minute

// Warmer populates the metrics cache for a range.
type Warmer interface {
	Warm(ctx context.Context, r tripmetrics.DateRange) error
}

// Bumper invalidates the metrics cache.
type Bumper interface {
	Bump(ctx context.Context) (int64, error)
}

// Observer receives one outcome per job run.
type Observer interface {
	ObserveJob(task, outcome string)
}

// MetricsWarmupJob pre-populates the metrics cache so the first dashboard
// load after a pipeline refresh is served from Redis.
type MetricsWarmupJob struct {
	Source   Warmer
	Defaults tripmetrics.DateRange
	Logger   *slog.Logger
	Observer Observer
	Timeout  time.Duration
}

// Handle processes TaskMetricsWarmup tasks.
func (j *MetricsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("metrics warmup: handler not configured")
	}
	defer track(j.Observer, TaskMetricsWarmup, &err)

	var payload MetricsWarmupPayload
	if len(t.Payload()) > 0 {
		if jsonErr := json.Unmarshal(t.Payload(), &payload); jsonErr != nil {
			return fmt.Errorf("decode warmup payload: %v: %w", jsonErr, asynq.SkipRetry)
		}
	}
	rng := payload.Range(j.Defaults)

	logger := jobLogger(j.Logger, TaskMetricsWarmup).With(slog.String("start", rng.Start), slog.String("end", rng.End))
	logger.Info("starting metrics warmup")
	started := time.Now()

	timeout := j.Timeout
	if timeout <= 0 {
		timeout = defaultWarmupTimeout
	}
	warmCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err = j.Source.Warm(warmCtx, rng); err != nil {
		logger.Error("metrics warmup", slog.String("outcome", tripmetrics.Outcome(err)), slog.Any("error", err))
		return err
	}
	logger.Info("completed metrics warmup", slog.Duration("duration", time.Since(started)))
	return nil
}

// CacheBumpJob invalidates the metrics cache, typically enqueued by the
// upstream pipeline after it reloads trip data.
type CacheBumpJob struct {
	Cache    Bumper
	Logger   *slog.Logger
	Observer Observer
}

// Handle processes TaskMetricsCacheBump tasks.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Cache == nil {
		return errors.New("metrics cache bump: handler not configured")
	}
	defer track(j.Observer, TaskMetricsCacheBump, &err)

	var payload CacheBumpPayload
	if len(t.Payload()) > 0 {
		if jsonErr := json.Unmarshal(t.Payload(), &payload); jsonErr != nil {
			return fmt.Errorf("decode cache bump payload: %v: %w", jsonErr, asynq.SkipRetry)
		}
	}

	logger := jobLogger(j.Logger, TaskMetricsCacheBump)
	version, err := j.Cache.Bump(ctx)
	if err != nil {
		logger.Error("bump metrics cache", slog.Any("error", err))
		return err
	}
	logger.Info("metrics cache bumped", slog.Int64("version", version), slog.String("reason", payload.Reason))
	return nil
}

func track(o Observer, task string, errp *error) {
	if o == nil {
		return
	}
	outcome := "ok"
	if *errp != nil {
		outcome = "error"
	}
	o.ObserveJob(task, outcome)
}

func jobLogger(logger *slog.Logger, task string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", task))
}
