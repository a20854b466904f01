package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/taxi-insights/taxi-insights/internal/platform/httpx"
	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
	Cron        []CronRegistration
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, fmt.Errorf("register %s on %q: %w", entry.Task.Type(), entry.Spec, err)
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	if w.logger != nil {
		w.logger.Info("worker started", slog.String("queue", QueueDefault))
	}
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueWarmup enqueues a warmup for rng.
func (c *Client) EnqueueWarmup(ctx context.Context, rng tripmetrics.DateRange) (*asynq.TaskInfo, error) {
	task, err := NewMetricsWarmupTask(rng)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// EnqueueCacheBump enqueues a cache invalidation.
func (c *Client) EnqueueCacheBump(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	task, err := NewCacheBumpTask(reason)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// QueueInspector reports queue depth.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Enqueuer submits cache invalidations.
type Enqueuer interface {
	EnqueueCacheBump(ctx context.Context, reason string) (*asynq.TaskInfo, error)
}

// Handler exposes HTTP endpoints for job observability and for the upstream
// pipeline to request a cache invalidation.
type Handler struct {
	inspector QueueInspector
	enqueuer  Enqueuer
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints. inspector and
// enqueuer may be nil when no Redis is configured.
func NewHandler(inspector QueueInspector, enqueuer Enqueuer, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, enqueuer: enqueuer, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/cache-bump", h.cacheBump)
}

type enqueued struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) cacheBump(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.RespondError(w, fmt.Errorf("job queue not configured: %w", httpx.ErrUnavailable))
		return
	}
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "manual"
	}
	info, err := h.enqueuer.EnqueueCacheBump(r.Context(), reason)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("enqueue cache bump", slog.Any("error", err))
		}
		httpx.RespondError(w, fmt.Errorf("enqueue cache bump: %w", httpx.ErrUnavailable))
		return
	}
	resp := enqueued{Queue: QueueDefault}
	if info != nil {
		resp.TaskID = info.ID
		resp.Queue = info.Queue
	}
	httpx.JSON(w, http.StatusAccepted, resp)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Failed  int    `json:"failed"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, queueHealth{Queue: QueueDefault})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("jobs health", slog.Any("error", err))
		}
		httpx.RespondError(w, fmt.Errorf("queue info: %w", httpx.ErrUnavailable))
		return
	}
	resp := queueHealth{Queue: QueueDefault}
	if info != nil {
		resp.Queue = info.Queue
		resp.Pending = info.Pending
		resp.Failed = info.Failed
	}
	httpx.JSON(w, http.StatusOK, resp)
}
