package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/infrastructure/cache"
	"trendzportal/internal/infrastructure/jobs"
	"trendzportal/internal/infrastructure/numerator"
	"trendzportal/internal/infrastructure/storage/memory"
	"trendzportal/internal/infrastructure/storage/postgres"
	"trendzportal/internal/infrastructure/storage/postgres/auth_repo"
	"trendzportal/internal/infrastructure/storage/postgres/catalog_repo"
	"trendzportal/internal/infrastructure/storage/postgres/document_repo"
	"trendzportal/internal/infrastructure/storage/postgres/register_repo"
	"trendzportal/internal/infrastructure/storage/postgres/report_repo"
	"trendzportal/pkg/logger"
)

// PostgresStorage wires the PostgreSQL repositories over txm.
func PostgresStorage(txm *postgres.TxManager) Storage {
	return Storage{
		TxManager:  txm,
		Products:   catalog_repo.NewProductRepo(txm),
		Categories: catalog_repo.NewCategoryRepo(txm),
		Customers:  catalog_repo.NewCustomerRepo(txm),
		Suppliers:  catalog_repo.NewSupplierRepo(txm),
		Invoices:   document_repo.NewInvoiceRepo(txm),
		Orders:     document_repo.NewPurchaseOrderRepo(txm),
		Finance:    register_repo.NewFinanceRepo(txm),
		Stats:      report_repo.NewStatsRepo(txm),
		Users:      auth_repo.NewUserRepo(txm),
		// numbers come from the business transaction so a rollback returns them
		Numerator: numerator.New(numerator.QuerierFunc(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		})),
	}
}

// Runtime owns the process-wide resources built from Config.
type Runtime struct {
	Config   *Config
	Log      *logger.Logger
	Sites    tenant.Registry
	Services *Services

	// Set with postgres storage only.
	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Outbox      *postgres.OutboxPublisher
	Idempotency *postgres.IdempotencyStore

	// Set when REDIS_ADDR is configured.
	Redis *redis.Client
	Jobs  *jobs.Client

	closers []func()
}

// NewRuntime connects the configured backends and wires the services.
func NewRuntime(ctx context.Context, cfg *Config, log *logger.Logger) (*Runtime, error) {
	if log == nil {
		log = logger.Default()
	}
	rt := &Runtime{Config: cfg, Log: log}
	if err := rt.init(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) init(ctx context.Context) error {
	cfg := rt.Config
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return fmt.Errorf("posting policy: %w", err)
	}
	opts := Options{
		Clock:  clock.NewSystem(loc),
		JWT:    cfg.JWT(),
		Policy: policy,
	}

	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		rt.Redis = client
		rt.closers = append(rt.closers, func() { _ = client.Close() })

		summaries, err := cache.NewSummaryCache(client, cfg.SummaryCacheTTL)
		if err != nil {
			return err
		}
		opts.Cache = summaries

		rt.Jobs = jobs.NewClient(rt.RedisOpts())
		rt.closers = append(rt.closers, func() { _ = rt.Jobs.Close() })
	}

	var st Storage
	switch cfg.Storage {
	case StorageMemory:
		st = MemoryStorage(memory.New())
		rt.Sites = tenant.NewMemoryRegistry()
		rt.Log.Warnw("using in-memory storage; data is lost on exit")

	case StoragePostgres:
		pc := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		if cfg.DBMaxConns > 0 {
			pc.MaxConns = cfg.DBMaxConns
		}
		pool, err := postgres.NewPool(ctx, pc)
		if err != nil {
			return err
		}
		rt.Pool = pool
		rt.closers = append(rt.closers, pool.Close)

		rt.TxManager = postgres.NewTxManager(pool)
		rt.Sites = tenant.NewPostgresRegistry(pool.Pool)
		rt.Outbox = postgres.NewOutboxPublisher(rt.TxManager)
		if cfg.IdempotencyEnabled {
			rt.Idempotency = postgres.NewIdempotencyStore(rt.TxManager, cfg.IdempotencyTTL)
		}
		opts.EventLog = postgres.NewOutboxEventLog(rt.Outbox)
		if cfg.SummaryQueue == SummaryQueueOutbox {
			opts.Queue = postgres.NewOutboxSummaryQueue(rt.Outbox)
		}
		st = PostgresStorage(rt.TxManager)

	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	rt.Services = NewServices(st, opts)
	rt.Log.Infow("runtime ready",
		"storage", cfg.Storage,
		"summary_queue", cfg.SummaryQueue,
		"redis", cfg.RedisAddr != "",
		"idempotency", rt.Idempotency != nil,
	)
	return nil
}

// RedisOpts returns the asynq connection options.
func (rt *Runtime) RedisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: rt.Config.RedisAddr}
}

// RequirePostgres fails for runtimes without a database.
func (rt *Runtime) RequirePostgres() error {
	if rt.Pool == nil {
		return errors.New("this command requires STORAGE=postgres")
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
