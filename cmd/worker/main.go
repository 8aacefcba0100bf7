// Package main is the entry point for the trendzportal background worker.
// It relays the outbox into asynq and runs the asynq server and scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"trendzportal/internal/app"
	"trendzportal/internal/infrastructure/jobs"
	"trendzportal/internal/infrastructure/storage/postgres"
	"trendzportal/pkg/logger"
)

// housekeepingInterval spaces DLQ moves, outbox purges and idempotency cleanup.
const housekeepingInterval = time.Hour

// publishedRetention is how long relayed outbox rows are kept.
const publishedRetention = 7 * 24 * time.Hour

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.WithComponent("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to build runtime", "error", err)
	}
	defer rt.Close()

	if err := rt.RequirePostgres(); err != nil {
		log.Fatalw("worker cannot start", "error", err)
	}
	if rt.Jobs == nil {
		log.Fatalw("worker cannot start", "error", errors.New("REDIS_ADDR is required"))
	}
	loc, _ := cfg.Location()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   rt.RedisOpts(),
		Handlers:    jobs.NewHandlers(rt.Services.Aggregator, rt.Services.Catalog, rt.Sites),
		Concurrency: cfg.WorkerConcurrency,
		SummaryCron: cfg.SummaryCron,
		Location:    loc,
	})
	if err != nil {
		log.Fatalw("failed to build job worker", "error", err)
	}

	relay := postgres.NewOutboxRelay(rt.TxManager, cfg.OutboxBatchSize, outboxHandler(rt.Jobs, rt.Services.Engine))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(ctx) })
	g.Go(func() error { return runRelay(ctx, relay, cfg.OutboxPollInterval) })
	g.Go(func() error { return runHousekeeping(ctx, rt, relay) })

	log.Infow("worker started",
		"concurrency", cfg.WorkerConcurrency,
		"summary_cron", cfg.SummaryCron,
		"outbox_poll", cfg.OutboxPollInterval,
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

func runRelay(ctx context.Context, relay *postgres.OutboxRelay, every time.Duration) error {
	if every <= 0 {
		every = 2 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		n, err := relay.ProcessBatch(ctx)
		if err != nil {
			logger.Error(ctx, "outbox batch failed", "error", err)
			continue
		}
		if n > 0 {
			logger.Debug(ctx, "outbox batch relayed", "messages", n)
		}
	}
}

func runHousekeeping(ctx context.Context, rt *app.Runtime, relay *postgres.OutboxRelay) error {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if n, err := relay.MoveToDLQ(ctx); err != nil {
			logger.Error(ctx, "outbox dlq move failed", "error", err)
		} else if n > 0 {
			logger.Warn(ctx, "outbox messages moved to dlq", "messages", n)
		}
		if _, err := relay.PurgePublished(ctx, time.Now().Add(-publishedRetention)); err != nil {
			logger.Error(ctx, "outbox purge failed", "error", err)
		}
		if rt.Idempotency != nil {
			if n, err := rt.Idempotency.CleanupExpired(ctx); err != nil {
				logger.Error(ctx, "idempotency cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info(ctx, "idempotency keys expired", "keys", n)
			}
		}
	}
}
