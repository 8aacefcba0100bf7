package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/finance"
	"trendzportal/pkg/logger"
)

// SummaryRecomputer is the part of finance.Aggregator the tasks use.
type SummaryRecomputer interface {
	Recompute(ctx context.Context, tn tenant.ID, p finance.Period) (*finance.Summary, error)
	RecomputeCurrent(ctx context.Context, tn tenant.ID) (*finance.Summary, error)
}

// BarcodeAssigner is the part of catalog.Service the tasks use.
type BarcodeAssigner interface {
	BulkAssignBarcodes(ctx context.Context, tn tenant.ID, productIDs []id.ID, limit int) ([]catalog.BarcodeResult, error)
}

// SiteLister lists the sites the sweep visits.
type SiteLister interface {
	ListActive(ctx context.Context) ([]*tenant.Site, error)
}

// Handlers executes the portal's tasks.
type Handlers struct {
	summaries SummaryRecomputer
	barcodes  BarcodeAssigner
	sites     SiteLister
}

// NewHandlers wires task handlers to the domain services.
func NewHandlers(summaries SummaryRecomputer, barcodes BarcodeAssigner, sites SiteLister) *Handlers {
	return &Handlers{summaries: summaries, barcodes: barcodes, sites: sites}
}

// Register attaches every handler to mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskSummaryRecompute, h.HandleSummaryRecompute)
	mux.HandleFunc(TaskSummaryRecomputeOpen, h.HandleSummaryRecomputeOpen)
	mux.HandleFunc(TaskAssignBarcodes, h.HandleAssignBarcodes)
}

// HandleSummaryRecompute processes TaskSummaryRecompute.
func (h *Handlers) HandleSummaryRecompute(ctx context.Context, t *asynq.Task) error {
	var p SummaryRecomputePayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	period, err := finance.NewPeriod(p.Year, p.Month)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	s, err := h.summaries.Recompute(ctx, p.TenantID, period)
	if err != nil {
		return fmt.Errorf("recompute %s for %s: %w", period, p.TenantID, err)
	}
	logger.Info(ctx, "summary recomputed",
		"tenant_id", p.TenantID, "period", period.String(), "total_sales", s.TotalSales.String())
	return nil
}

// HandleSummaryRecomputeOpen recomputes the current month of every active
// site. One failing site does not stop the sweep.
func (h *Handlers) HandleSummaryRecomputeOpen(ctx context.Context, _ *asynq.Task) error {
	sites, err := h.sites.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list sites: %w", err)
	}
	var failed int
	for _, s := range sites {
		if _, err := h.summaries.RecomputeCurrent(ctx, s.ID); err != nil {
			failed++
			logger.Error(ctx, "open summary recompute failed", "tenant_id", s.ID, "error", err)
		}
	}
	logger.Info(ctx, "open summaries recomputed", "sites", len(sites), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("recompute open summaries: %d of %d sites failed", failed, len(sites))
	}
	return nil
}

// HandleAssignBarcodes processes TaskAssignBarcodes.
func (h *Handlers) HandleAssignBarcodes(ctx context.Context, t *asynq.Task) error {
	var p AssignBarcodesPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	results, err := h.barcodes.BulkAssignBarcodes(ctx, p.TenantID, nil, p.Limit)
	if err != nil {
		return fmt.Errorf("assign barcodes for %s: %w", p.TenantID, err)
	}
	var failed int
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info(ctx, "barcodes assigned", "tenant_id", p.TenantID, "products", len(results), "failed", failed)
	return nil
}
