package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "trendzportal/internal/core/numerator"
	"trendzportal/internal/core/tenant"
)

// fakeSequences emulates sys_sequences for the three statements the service issues.
type fakeSequences struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	fail  error
}

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.val
	return nil
}

func (f *fakeSequences) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return fakeRow{err: f.fail}
	}
	if f.vals == nil {
		f.vals = map[string]int64{}
	}
	k := string(args[0].(tenant.ID)) + "|" + args[1].(string)
	switch {
	case len(args) == 2:
		f.vals[k]++
	case strings.Contains(sql, "current_val + $3"):
		f.vals[k] += args[2].(int64)
	default:
		f.vals[k] = args[2].(int64)
	}
	return fakeRow{val: f.vals[k]}
}

var day = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func TestStrictNumbers(t *testing.T) {
	ctx := context.Background()
	db := &fakeSequences{}
	svc := New(Static(db))

	first, err := svc.GetNextNumber(ctx, "a", corenumerator.InvoiceConfig(), nil, day)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(ctx, "a", corenumerator.InvoiceConfig(), nil, day)
	require.NoError(t, err)
	other, err := svc.GetNextNumber(ctx, "b", corenumerator.InvoiceConfig(), nil, day)
	require.NoError(t, err)

	assert.Equal(t, "2026101801", first)
	assert.Equal(t, "2026101802", second)
	assert.Equal(t, "2026101801", other, "sequences are per tenant")
}

func TestCachedNumbersReserveRanges(t *testing.T) {
	ctx := context.Background()
	db := &fakeSequences{}
	svc := New(Static(db))
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 3}

	var got []string
	for range 4 {
		n, err := svc.GetNextNumber(ctx, "a", corenumerator.PurchaseOrderConfig(), opts, day)
		require.NoError(t, err)
		got = append(got, n)
	}

	assert.Equal(t, []string{"PO-2026-00001", "PO-2026-00002", "PO-2026-00003", "PO-2026-00004"}, got)
	assert.Equal(t, 2, db.calls)
}

func TestSetNextNumber(t *testing.T) {
	ctx := context.Background()
	svc := New(Static(&fakeSequences{}))
	cfg := corenumerator.PurchaseOrderConfig()

	require.NoError(t, svc.SetNextNumber(ctx, "a", cfg, day, 40))
	n, err := svc.GetNextNumber(ctx, "a", cfg, nil, day)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00040", n)
}

func TestQueryError(t *testing.T) {
	svc := New(Static(&fakeSequences{fail: errors.New("connection reset")}))
	_, err := svc.GetNextNumber(context.Background(), "a", corenumerator.InvoiceConfig(), nil, day)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
