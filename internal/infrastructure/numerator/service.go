// Package numerator is the PostgreSQL implementation of core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "trendzportal/internal/core/numerator"
	"trendzportal/internal/core/tenant"
)

// Querier is the slice of pgx the service needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource resolves the querier for ctx: the open transaction if any,
// otherwise the pool.
type QuerierSource interface {
	QueryRower(ctx context.Context) Querier
}

// QuerierFunc adapts a function to QuerierSource.
type QuerierFunc func(ctx context.Context) Querier

func (f QuerierFunc) QueryRower(ctx context.Context) Querier { return f(ctx) }

// Static always returns q.
func Static(q Querier) QuerierSource {
	return QuerierFunc(func(context.Context) Querier { return q })
}

type cachedRange struct {
	current int64
	max     int64
}

// Service hands out numbers from sys_sequences, keyed by (tenant, key).
type Service struct {
	src QuerierSource

	mu     sync.Mutex
	ranges map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(src QuerierSource) *Service {
	return &Service{src: src, ranges: make(map[string]*cachedRange)}
}

// GetNextNumber returns the next formatted number. The strict strategy runs on
// the caller's transaction, so a rolled back document gives its number back.
func (s *Service) GetNextNumber(ctx context.Context, tn tenant.ID, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}
	key := cfg.Key(period)

	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, tn, key, opts.RangeSize)
	default:
		num, err = s.nextStrict(ctx, tn, key)
	}
	if err != nil {
		return "", err
	}
	return cfg.Number(period, num)
}

func (s *Service) nextStrict(ctx context.Context, tn tenant.ID, key string) (int64, error) {
	var num int64
	err := s.src.QueryRower(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, tn, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next sequence value %s: %w", key, err)
	}
	return num, nil
}

// nextCached reserves size values at once and serves them from memory.
// Numbers of a range not used before a restart are lost.
func (s *Service) nextCached(ctx context.Context, tn tenant.ID, key string, size int64) (int64, error) {
	if size <= 0 {
		size = 50
	}
	cacheKey := string(tn) + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.ranges[cacheKey]
	if !ok {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}
	if rng.current >= rng.max {
		var top int64
		err := s.src.QueryRower(ctx).QueryRow(ctx, `
			INSERT INTO sys_sequences (tenant_id, key, current_val)
			VALUES ($1, $2, $3)
			ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = sys_sequences.current_val + $3
			RETURNING current_val
		`, tn, key, size).Scan(&top)
		if err != nil {
			return 0, fmt.Errorf("reserve sequence range %s: %w", key, err)
		}
		// the range is (top-size, top]
		rng.current = top - size
		rng.max = top
	}
	rng.current++
	return rng.current, nil
}

// SetNextNumber makes value the next number handed out for the key.
func (s *Service) SetNextNumber(ctx context.Context, tn tenant.ID, cfg corenumerator.Config, period time.Time, value int64) error {
	key := cfg.Key(period)
	var stored int64
	err := s.src.QueryRower(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = $3
		RETURNING current_val
	`, tn, key, value-1).Scan(&stored)
	if err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}

	s.mu.Lock()
	delete(s.ranges, string(tn)+":"+key)
	s.mu.Unlock()
	return nil
}
