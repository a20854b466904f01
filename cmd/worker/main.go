package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/taxi-insights/taxi-insights/internal/app"
	"github.com/taxi-insights/taxi-insights/internal/observability"
	"github.com/taxi-insights/taxi-insights/internal/platform/cache"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
	"github.com/taxi-insights/taxi-insights/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if !cfg.CacheEnabled() {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	apiClient := tripmetrics.NewClient(cfg.MetricsAPIURL,
		tripmetrics.WithHTTPClient(&http.Client{Timeout: cfg.MetricsAPITimeout}),
		tripmetrics.WithLogger(logger),
		tripmetrics.WithObserver(metrics),
	)
	metricsCache := tripmetrics.NewCache(redisClient, cfg.CacheTTL)
	source := tripmetrics.NewCachedSource(apiClient, metricsCache, logger)

	warmupJob := &jobs.MetricsWarmupJob{
		Source:   source,
		Defaults: cfg.DefaultRange(),
		Logger:   logger,
		Observer: metrics,
	}
	bumpJob := &jobs.CacheBumpJob{
		Cache:    metricsCache,
		Logger:   logger,
		Observer: metrics,
	}

	var cron []jobs.CronRegistration
	if cfg.WarmupCron != "" {
		warmupTask, err := jobs.NewMetricsWarmupTask(tripmetrics.DateRange{})
		if err != nil {
			logger.Error("build warmup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	queueOpts, err := cache.QueueOptions(cfg.RedisAddr)
	if err != nil {
		logger.Error("job queue options", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: queueOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskMetricsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskMetricsCacheBump, Handler: bumpJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		mux := chi.NewRouter()
		mux.Method(http.MethodGet, "/metrics", metrics.Handler())
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadTimeout: cfg.AppReadTimeout}
		go func() {
			logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = metricsServer.Close() }()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
