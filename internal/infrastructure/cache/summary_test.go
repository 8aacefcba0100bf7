package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/finance"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c, err := NewSummaryCache(client, time.Minute)
	require.NoError(t, err)
	return c, mr
}

func TestSummaryCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	tn := tenant.ID("site-a")
	p := finance.Period{Year: 2026, Month: time.March}

	_, ok, err := c.Get(ctx, tn, p)
	require.NoError(t, err)
	assert.False(t, ok)

	s := &finance.Summary{Year: 2026, Month: 3, TotalSales: types.MustMoney("1500.00"), TotalInvoices: 3}
	require.NoError(t, c.Set(ctx, tn, s))

	got, ok, err := c.Get(ctx, tn, p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, s.TotalSales.Equal(got.TotalSales))
	assert.Equal(t, int64(3), got.TotalInvoices)
	assert.Equal(t, tn, got.TenantID)
}

func TestSummaryCache_InvalidateIsPerTenant(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	p := finance.Period{Year: 2026, Month: time.April}
	s := &finance.Summary{Year: 2026, Month: 4}

	require.NoError(t, c.Set(ctx, "site-a", s))
	require.NoError(t, c.Set(ctx, "site-b", s))
	require.NoError(t, c.Invalidate(ctx, "site-a"))

	_, ok, err := c.Get(ctx, "site-a", p)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, "site-b", p)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSummaryCache_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "site-a", &finance.Summary{Year: 2026, Month: 5}))

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "site-a", finance.Period{Year: 2026, Month: time.May})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummaryCache_StoresCompressed(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "site-a", &finance.Summary{Year: 2026, Month: 6}))

	raw, err := mr.Get("summary:site-a:2026-06:0")
	require.NoError(t, err)
	assert.NotEqual(t, byte('{'), raw[0])
}
