package posting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/app"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/storage/memory"
)

// lockCheckCache records whether the store was still locked by the posting
// transaction when an invalidation arrived.
type lockCheckCache struct {
	store *memory.Store

	mu            sync.Mutex
	invalidations int
	whileLocked   int
}

func (c *lockCheckCache) Get(context.Context, tenant.ID, finance.Period) (*finance.Summary, bool, error) {
	return nil, false, nil
}

func (c *lockCheckCache) Set(context.Context, tenant.ID, *finance.Summary) error { return nil }

func (c *lockCheckCache) Invalidate(context.Context, tenant.ID) error {
	done := make(chan struct{})
	go func() {
		_ = c.store.RunInTransaction(context.Background(), func(context.Context) error { return nil })
		close(done)
	}()

	locked := false
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		locked = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	if locked {
		c.whileLocked++
	}
	return nil
}

func (c *lockCheckCache) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations, c.whileLocked
}

func newCachedHarness(t *testing.T) (*harness, *lockCheckCache) {
	cache := &lockCheckCache{}
	h := newHarness(t, func(o *app.Options) { o.Cache = cache })
	cache.store = h.store
	return h, cache
}

func TestSummaryCacheInvalidatedAfterCommit(t *testing.T) {
	h, cache := newCachedHarness(t)
	p := h.product("P", "10.00", "25.00", 5)

	h.pay(h.invoice(line(p, 2)))

	invalidations, whileLocked := cache.counts()
	assert.Positive(t, invalidations)
	assert.Zero(t, whileLocked, "cache invalidated while the posting transaction was open")
}

func TestSummaryCacheUntouchedOnRollback(t *testing.T) {
	h, cache := newCachedHarness(t)
	p := h.product("P", "10.00", "25.00", 5)
	inv := h.invoice(line(p, 2))
	_, err := h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusSent)
	require.NoError(t, err)

	abort := errors.New("abort")
	err = h.store.RunInTransaction(h.ctx, func(ctx context.Context) error {
		if _, err := h.svc.Sales.SetStatus(ctx, h.tn, inv.ID, sales.StatusPaid); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)

	invalidations, _ := cache.counts()
	assert.Zero(t, invalidations)
	assert.EqualValues(t, 5, h.reload(p).Stock)
}
