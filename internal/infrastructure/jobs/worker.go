package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/posting"
	"trendzportal/pkg/logger"
)

// DefaultSummaryCron runs the open-month sweep nightly.
const DefaultSummaryCron = "0 2 * * *"

// Worker wraps the asynq server and scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// WorkerConfig collects what the worker needs.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Handlers    *Handlers
	Concurrency int

	// SummaryCron schedules TaskSummaryRecomputeOpen. Empty disables it.
	SummaryCron string
	Location    *time.Location
}

// NewWorker builds the server, mux and scheduler.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			logger.Error(ctx, "task failed", "task", t.Type(), "error", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.Use(traceTasks)
	if cfg.Handlers != nil {
		cfg.Handlers.Register(mux)
	}

	var scheduler *asynq.Scheduler
	if cfg.SummaryCron != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: cfg.Location})
		if _, err := scheduler.Register(cfg.SummaryCron, NewSummaryRecomputeOpenTask()); err != nil {
			return nil, fmt.Errorf("register summary cron: %w", err)
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler}, nil
}

// traceTasks gives every task a trace context keyed by its task id.
func traceTasks(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(ctx, taskID, ""))
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		logger.Debug(ctx, "task processed", "task", t.Type(), "duration", time.Since(start), "ok", err == nil)
		return err
	})
}

// Run processes tasks until ctx is cancelled.
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

// Client submits tasks.
type Client struct {
	client *asynq.Client
}

var _ posting.SummaryQueue = (*Client)(nil)

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Enqueue queues a recompute of p. A recompute already queued for the same
// month counts as success.
func (c *Client) Enqueue(ctx context.Context, tn tenant.ID, p finance.Period) error {
	task, err := NewSummaryRecomputeTask(tn, p)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", TaskSummaryRecompute, err)
	}
	return nil
}

// EnqueueAssignBarcodes queues a bulk barcode run and returns the task id.
func (c *Client) EnqueueAssignBarcodes(ctx context.Context, tn tenant.ID, limit int) (string, error) {
	task, err := NewAssignBarcodesTask(tn, limit)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TaskAssignBarcodes, err)
	}
	return info.ID, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
