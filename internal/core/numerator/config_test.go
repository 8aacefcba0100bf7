package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/apperror"
)

func TestConfig_Format(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026101801", InvoiceConfig().Format(day, 1))
	assert.Equal(t, "2026101842", InvoiceConfig().Format(day, 42))
	assert.Equal(t, "PO-2026-00007", PurchaseOrderConfig().Format(day, 7))
}

func TestConfig_NumberStopsAtMaxValue(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	n, err := InvoiceConfig().Number(day, 99)
	require.NoError(t, err)
	assert.Equal(t, "2026101899", n)

	_, err = InvoiceConfig().Number(day, 100)
	ae, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExhausted, ae.Code)

	n, err = PurchaseOrderConfig().Number(day, 123456)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-123456", n)
}

func TestMemoryGenerator_InvoiceSequenceExhausts(t *testing.T) {
	g := NewMemoryGenerator()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, g.SetNextNumber(ctx, "t1", InvoiceConfig(), day, 99))
	n, err := g.GetNextNumber(ctx, "t1", InvoiceConfig(), nil, day)
	require.NoError(t, err)
	assert.Equal(t, "2026101899", n)

	_, err = g.GetNextNumber(ctx, "t1", InvoiceConfig(), nil, day)
	require.Error(t, err)

	// the next day starts over
	n, err = g.GetNextNumber(ctx, "t1", InvoiceConfig(), nil, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "2026101901", n)
}

func TestConfig_Key(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "N20060102_2026_10_18", InvoiceConfig().Key(day))
	assert.Equal(t, "PO_2026", PurchaseOrderConfig().Key(day))
	assert.Equal(t, "X", Config{Prefix: "X", ResetPeriod: ResetNever}.Key(day))
}

func TestMemoryGenerator_ConcurrentCallsAreDistinct(t *testing.T) {
	g := NewMemoryGenerator()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := g.GetNextNumber(context.Background(), "t1", InvoiceConfig(), nil, day)
			require.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)

	// Tenants do not share sequences.
	n, err := g.GetNextNumber(context.Background(), "t2", InvoiceConfig(), nil, day)
	require.NoError(t, err)
	assert.Equal(t, "2026101801", n)
}

func TestMemoryGenerator_SetNextNumber(t *testing.T) {
	g := NewMemoryGenerator()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, g.SetNextNumber(ctx, "t1", PurchaseOrderConfig(), day, 40))
	n, err := g.GetNextNumber(ctx, "t1", PurchaseOrderConfig(), nil, day)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00040", n)
}
