package memory

import (
	"context"
	"time"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
)

// StatsRepo implements finance.LedgerStats over the stored ledgers.
type StatsRepo struct{ s *Store }

var _ finance.LedgerStats = (*StatsRepo)(nil)

func within(d, from, to time.Time) bool {
	return !d.Before(from) && d.Before(to)
}

func (r *StatsRepo) MonthTotals(ctx context.Context, tn tenant.ID, from, to time.Time) (finance.LedgerTotals, error) {
	var t finance.LedgerTotals
	err := r.s.do(ctx, func() error {
		for k, inv := range r.s.st.invoices {
			if k.tn == tn && inv.Status == sales.StatusPaid && within(inv.Date, from, to) {
				t.PaidInvoiceSum = t.PaidInvoiceSum.Add(inv.GrandTotal)
				t.PaidInvoiceCount++
			}
		}
		for k, po := range r.s.st.orders {
			if k.tn == tn && po.Status == procurement.StatusReceived && within(po.OrderDate, from, to) {
				t.ReceivedOrderSum = t.ReceivedOrderSum.Add(po.Total)
				t.ReceivedOrderCount++
			}
		}
		for k, p := range r.s.st.payments {
			if k.tn == tn && within(p.PaymentDate, from, to) {
				t.PaymentSum = t.PaymentSum.Add(p.Amount)
			}
		}
		for k, it := range r.s.st.inventory {
			if k.tn == tn && it.Kind == finance.InventorySale && within(it.Date, from, to) {
				t.SaleRevenue = t.SaleRevenue.Add(it.TotalRevenue)
				t.SaleCost = t.SaleCost.Add(it.TotalCost)
			}
		}
		return nil
	})
	return t, err
}
