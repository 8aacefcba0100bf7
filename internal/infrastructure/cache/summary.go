// Package cache holds the Redis-backed caches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
)

// DefaultSummaryTTL is used when the configured TTL is not positive.
const DefaultSummaryTTL = 10 * time.Minute

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	return client, nil
}

// SummaryCache implements finance.SummaryCache over Redis. Entries are
// zstd-compressed JSON keyed by a per-tenant version; Invalidate bumps the
// version so stale keys simply expire.
type SummaryCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ finance.SummaryCache = (*SummaryCache)(nil)

// NewSummaryCache creates a summary cache.
func NewSummaryCache(client redis.UniversalClient, ttl time.Duration) (*SummaryCache, error) {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &SummaryCache{client: client, ttl: ttl, encoder: encoder, decoder: decoder}, nil
}

func versionKey(tn tenant.ID) string {
	return "summary:" + string(tn) + ":version"
}

func entryKey(tn tenant.ID, p finance.Period, version int64) string {
	return fmt.Sprintf("summary:%s:%s:%d", tn, p, version)
}

// version returns the tenant's current version. A missing counter reads as 0.
func (c *SummaryCache) version(ctx context.Context, tn tenant.ID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(tn)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("summary cache version: %w", err)
	}
	return v, nil
}

// Get returns the cached summary for p, if any.
func (c *SummaryCache) Get(ctx context.Context, tn tenant.ID, p finance.Period) (*finance.Summary, bool, error) {
	v, err := c.version(ctx, tn)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, entryKey(tn, p, v)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("summary cache get: %w", err)
	}

	plain, err := c.decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, fmt.Errorf("summary cache decode: %w", err)
	}
	var s finance.Summary
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, false, fmt.Errorf("summary cache unmarshal: %w", err)
	}
	s.TenantID = tn
	return &s, true, nil
}

// Set stores s under the tenant's current version.
func (c *SummaryCache) Set(ctx context.Context, tn tenant.ID, s *finance.Summary) error {
	v, err := c.version(ctx, tn)
	if err != nil {
		return err
	}
	plain, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("summary cache marshal: %w", err)
	}
	p := finance.Period{Year: s.Year, Month: time.Month(s.Month)}
	if err := c.client.Set(ctx, entryKey(tn, p, v), c.encoder.EncodeAll(plain, nil), c.ttl).Err(); err != nil {
		return fmt.Errorf("summary cache set: %w", err)
	}
	return nil
}

// Invalidate bumps the tenant's version.
func (c *SummaryCache) Invalidate(ctx context.Context, tn tenant.ID) error {
	if err := c.client.Incr(ctx, versionKey(tn)).Err(); err != nil {
		return fmt.Errorf("summary cache invalidate: %w", err)
	}
	return nil
}
