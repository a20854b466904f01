package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taxi-insights/taxi-insights/internal/app"
	"github.com/taxi-insights/taxi-insights/internal/dashboard"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/export"
	dashboardhttp "github.com/taxi-insights/taxi-insights/internal/dashboard/http"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/live"
	"github.com/taxi-insights/taxi-insights/internal/dashboard/ui"
	"github.com/taxi-insights/taxi-insights/internal/observability"
	"github.com/taxi-insights/taxi-insights/internal/platform/cache"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
	"github.com/taxi-insights/taxi-insights/internal/view"
	"github.com/taxi-insights/taxi-insights/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	metrics := observability.NewMetrics()

	apiClient := tripmetrics.NewClient(cfg.MetricsAPIURL,
		tripmetrics.WithHTTPClient(&http.Client{Timeout: cfg.MetricsAPITimeout}),
		tripmetrics.WithLogger(logger),
		tripmetrics.WithObserver(metrics),
	)
	var source dashboard.Source = apiClient

	jobHandler := jobs.NewHandler(nil, nil, logger)
	if cfg.CacheEnabled() {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, metrics served uncached", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			metricsCache := tripmetrics.NewCache(redisClient, cfg.CacheTTL)
			if err := metricsCache.ListenForInvalidation(ctx, logger); err != nil {
				logger.Warn("subscribe cache invalidation", slog.Any("error", err))
			}
			source = tripmetrics.NewCachedSource(apiClient, metricsCache, logger)

			queueOpts, err := cache.QueueOptions(cfg.RedisAddr)
			if err != nil {
				logger.Error("job queue options", slog.Any("error", err))
				os.Exit(1)
			}
			inspector := asynq.NewInspector(queueOpts)
			defer func() {
				if err := inspector.Close(); err != nil {
					logger.Warn("inspector close", slog.Any("error", err))
				}
			}()
			jobClient := jobs.NewClient(queueOpts)
			defer func() {
				if err := jobClient.Close(); err != nil {
					logger.Warn("job client close", slog.Any("error", err))
				}
			}()
			jobHandler = jobs.NewHandler(inspector, jobClient, logger)
		}
	}

	hub := live.NewHub(logger, nil, metrics)
	defer hub.Close()

	controller := dashboard.NewController(source, cfg.DefaultRange(),
		dashboard.WithLogger(logger),
		dashboard.WithObserver(metrics),
		dashboard.WithPresenter(hub),
	)
	hub.SetSource(controller)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	var pdf dashboardhttp.PDFService
	if cfg.GotenbergURL != "" {
		pdf = &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient}
	}
	renderer := ui.SVGRenderer{}
	dashboardHandler := dashboardhttp.NewHandler(ctx, logger, controller, templates, renderer, renderer, pdf, hub)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	controller.Mount(ctx)

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("metrics_api", cfg.MetricsAPIURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
