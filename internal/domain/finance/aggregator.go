package finance

import (
	"context"

	"github.com/shopspring/decimal"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/core/types"
	"trendzportal/pkg/logger"
)

// SummaryCache is a read-through cache for monthly summaries.
type SummaryCache interface {
	Get(ctx context.Context, tn tenant.ID, p Period) (*Summary, bool, error)
	Set(ctx context.Context, tn tenant.ID, s *Summary) error
	// Invalidate drops every cached summary of the tenant.
	Invalidate(ctx context.Context, tn tenant.ID) error
}

type nopCache struct{}

func (nopCache) Get(context.Context, tenant.ID, Period) (*Summary, bool, error) { return nil, false, nil }
func (nopCache) Set(context.Context, tenant.ID, *Summary) error                 { return nil }
func (nopCache) Invalidate(context.Context, tenant.ID) error                    { return nil }

// NopCache disables caching.
var NopCache SummaryCache = nopCache{}

// Aggregator recomputes monthly summaries from the ledgers.
type Aggregator struct {
	stats LedgerStats
	store SummaryStore
	cache SummaryCache
	txm   tx.Manager
	clock clock.Clock
}

// NewAggregator creates an Aggregator. A nil cache disables caching.
func NewAggregator(stats LedgerStats, store SummaryStore, cache SummaryCache, txm tx.Manager, c clock.Clock) *Aggregator {
	if cache == nil {
		cache = NopCache
	}
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Aggregator{stats: stats, store: store, cache: cache, txm: txm, clock: c}
}

// Compute derives a summary from raw ledger totals.
func Compute(tn tenant.ID, p Period, t LedgerTotals) *Summary {
	s := &Summary{
		TenantID:              tn,
		Year:                  p.Year,
		Month:                 int(p.Month),
		TotalSales:            types.RoundMoney(t.PaidInvoiceSum),
		TotalInvoices:         t.PaidInvoiceCount,
		AverageSaleValue:      decimal.Zero,
		TotalPurchases:        types.RoundMoney(t.ReceivedOrderSum),
		TotalPurchaseOrders:   t.ReceivedOrderCount,
		TotalPurchasePayments: types.RoundMoney(t.PaymentSum),
	}
	if s.TotalInvoices > 0 {
		s.AverageSaleValue = types.RoundMoney(s.TotalSales.Div(decimal.NewFromInt(s.TotalInvoices)))
	}

	revenue := types.RoundMoney(t.SaleRevenue)
	cost := types.RoundMoney(t.SaleCost)
	s.GrossProfit = revenue.Sub(cost)
	s.ProfitMargin = types.Percent(s.GrossProfit, revenue)

	s.CashInflow = s.TotalSales
	s.CashOutflow = s.TotalPurchasePayments
	s.NetCashFlow = s.CashInflow.Sub(s.CashOutflow)
	return s
}

// Recompute rebuilds the summary of p. Running it twice yields the same row.
func (a *Aggregator) Recompute(ctx context.Context, tn tenant.ID, p Period) (*Summary, error) {
	var out *Summary
	err := a.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		totals, err := a.stats.MonthTotals(ctx, tn, p.Start(), p.End())
		if err != nil {
			return err
		}
		out = Compute(tn, p, totals)
		out.UpdatedAt = a.clock.Now()
		return a.store.UpsertSummary(ctx, tn, out)
	})
	if err != nil {
		return nil, err
	}

	// a reader racing an open transaction would re-cache the old row
	tx.AfterCommit(ctx, func(ctx context.Context) {
		if err := a.cache.Invalidate(ctx, tn); err != nil {
			logger.Warn(ctx, "summary cache invalidation failed", "tenant_id", tn, "error", err)
		}
	})
	logger.Info(ctx, "summary recomputed", "tenant_id", tn, "period", p.String(),
		"total_sales", out.TotalSales.StringFixed(2), "net_cash_flow", out.NetCashFlow.StringFixed(2))
	return out, nil
}

// Get returns the stored summary of p, NotFound if it was never computed.
func (a *Aggregator) Get(ctx context.Context, tn tenant.ID, p Period) (*Summary, error) {
	if s, ok, err := a.cache.Get(ctx, tn, p); err != nil {
		logger.Warn(ctx, "summary cache read failed", "tenant_id", tn, "error", err)
	} else if ok {
		return s, nil
	}

	s, err := a.store.GetSummary(ctx, tn, p)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("financial summary", p.String())
		}
		return nil, err
	}
	if err := a.cache.Set(ctx, tn, s); err != nil {
		logger.Warn(ctx, "summary cache write failed", "tenant_id", tn, "error", err)
	}
	return s, nil
}

// List returns the stored summaries of a year in month order.
func (a *Aggregator) List(ctx context.Context, tn tenant.ID, year int) ([]Summary, error) {
	return a.store.ListSummaries(ctx, tn, year)
}

// RecomputeCurrent rebuilds the month containing today.
func (a *Aggregator) RecomputeCurrent(ctx context.Context, tn tenant.ID) (*Summary, error) {
	return a.Recompute(ctx, tn, PeriodOf(clock.Today(a.clock)))
}

// InlineQueue recomputes at the end of the caller's transaction, once per
// month, so the summary sees the transaction's final state.
type InlineQueue struct {
	Aggregator *Aggregator
}

func (q InlineQueue) Enqueue(ctx context.Context, tn tenant.ID, p Period) error {
	return tx.BeforeCommit(ctx, "summary:"+tn.String()+":"+p.String(), func(ctx context.Context) error {
		_, err := q.Aggregator.Recompute(ctx, tn, p)
		return err
	})
}
