package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/finance"
)

type fakeSummaries struct {
	recomputed []finance.Period
	current    []tenant.ID
	failFor    tenant.ID
}

func (f *fakeSummaries) Recompute(_ context.Context, tn tenant.ID, p finance.Period) (*finance.Summary, error) {
	f.recomputed = append(f.recomputed, p)
	return &finance.Summary{TenantID: tn, Year: p.Year, Month: int(p.Month)}, nil
}

func (f *fakeSummaries) RecomputeCurrent(_ context.Context, tn tenant.ID) (*finance.Summary, error) {
	f.current = append(f.current, tn)
	if tn == f.failFor {
		return nil, errors.New("boom")
	}
	return &finance.Summary{TenantID: tn}, nil
}

type fakeBarcodes struct {
	tn    tenant.ID
	limit int
}

func (f *fakeBarcodes) BulkAssignBarcodes(_ context.Context, tn tenant.ID, _ []id.ID, limit int) ([]catalog.BarcodeResult, error) {
	f.tn, f.limit = tn, limit
	return []catalog.BarcodeResult{{ProductID: id.New(), Barcode: "2000000000008"}}, nil
}

type fakeSites []*tenant.Site

func (f fakeSites) ListActive(context.Context) ([]*tenant.Site, error) { return f, nil }

func TestSummaryRecomputeTask(t *testing.T) {
	p := finance.Period{Year: 2026, Month: time.October}
	task, err := NewSummaryRecomputeTask("site-a", p)
	require.NoError(t, err)
	assert.Equal(t, TaskSummaryRecompute, task.Type())

	var payload SummaryRecomputePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, SummaryRecomputePayload{TenantID: "site-a", Year: 2026, Month: 10}, payload)

	s := &fakeSummaries{}
	h := NewHandlers(s, nil, nil)
	require.NoError(t, h.HandleSummaryRecompute(context.Background(), task))
	assert.Equal(t, []finance.Period{p}, s.recomputed)
}

func TestSummaryRecomputeRejectsBadPayload(t *testing.T) {
	h := NewHandlers(&fakeSummaries{}, nil, nil)

	err := h.HandleSummaryRecompute(context.Background(), asynq.NewTask(TaskSummaryRecompute, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	body, _ := json.Marshal(SummaryRecomputePayload{TenantID: "site-a", Year: 2026, Month: 13})
	err = h.HandleSummaryRecompute(context.Background(), asynq.NewTask(TaskSummaryRecompute, body))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSummaryRecomputeOpenVisitsEverySite(t *testing.T) {
	s := &fakeSummaries{failFor: "site-b"}
	h := NewHandlers(s, nil, fakeSites{{ID: "site-a"}, {ID: "site-b"}, {ID: "site-c"}})

	err := h.HandleSummaryRecomputeOpen(context.Background(), NewSummaryRecomputeOpenTask())
	require.Error(t, err)
	assert.Equal(t, []tenant.ID{"site-a", "site-b", "site-c"}, s.current)
}

func TestAssignBarcodesTask(t *testing.T) {
	task, err := NewAssignBarcodesTask("site-a", 50)
	require.NoError(t, err)
	assert.Equal(t, TaskAssignBarcodes, task.Type())

	b := &fakeBarcodes{}
	h := NewHandlers(nil, b, nil)
	require.NoError(t, h.HandleAssignBarcodes(context.Background(), task))
	assert.Equal(t, tenant.ID("site-a"), b.tn)
	assert.Equal(t, 50, b.limit)
}

func TestTraceTasksAttachesTraceContext(t *testing.T) {
	var got *appctx.TraceContext
	h := traceTasks(asynq.HandlerFunc(func(ctx context.Context, _ *asynq.Task) error {
		got = appctx.GetTrace(ctx)
		return nil
	}))

	require.NoError(t, h.ProcessTask(context.Background(), NewSummaryRecomputeOpenTask()))
	require.NotNil(t, got)
	assert.NotEmpty(t, got.RequestID)
	assert.NotEmpty(t, got.TraceID)
}
