package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
)

func TestCompute(t *testing.T) {
	p := Period{Year: 2026, Month: time.October}
	s := Compute(tenant.ID("t1"), p, LedgerTotals{
		PaidInvoiceSum:     types.MustMoney("150.00"),
		PaidInvoiceCount:   2,
		ReceivedOrderSum:   types.MustMoney("500.00"),
		ReceivedOrderCount: 1,
		PaymentSum:         types.MustMoney("200.00"),
		SaleRevenue:        types.MustMoney("150.00"),
		SaleCost:           types.MustMoney("60.00"),
	})

	assert.Equal(t, 2026, s.Year)
	assert.Equal(t, 10, s.Month)
	assert.Equal(t, "150.00", s.TotalSales.StringFixed(2))
	assert.Equal(t, "75.00", s.AverageSaleValue.StringFixed(2))
	assert.Equal(t, "500.00", s.TotalPurchases.StringFixed(2))
	assert.Equal(t, "90.00", s.GrossProfit.StringFixed(2))
	assert.Equal(t, "60.00", s.ProfitMargin.StringFixed(2))
	assert.Equal(t, "150.00", s.CashInflow.StringFixed(2))
	assert.Equal(t, "200.00", s.CashOutflow.StringFixed(2))
	assert.Equal(t, "-50.00", s.NetCashFlow.StringFixed(2))
}

func TestComputeEmptyMonth(t *testing.T) {
	s := Compute(tenant.ID("t1"), Period{Year: 2026, Month: time.January}, LedgerTotals{})
	assert.True(t, s.TotalSales.IsZero())
	assert.True(t, s.AverageSaleValue.IsZero())
	assert.True(t, s.ProfitMargin.IsZero())
	assert.True(t, s.NetCashFlow.IsZero())
}

func TestPeriod(t *testing.T) {
	p := PeriodOf(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2026-12", p.String())
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), p.End())
	assert.True(t, p.Contains(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(p.End()))

	_, err := NewPeriod(2026, 13)
	require.Error(t, err)
}

func TestInventoryTotals(t *testing.T) {
	row := InventoryTransaction{Quantity: -3, UnitCost: types.MustMoney("2.50"), UnitPrice: types.MustMoney("4.00")}
	row.ComputeTotals()
	assert.Equal(t, "7.50", row.TotalCost.StringFixed(2))
	assert.Equal(t, "12.00", row.TotalRevenue.StringFixed(2))
}

func TestDailyRevenueRecompute(t *testing.T) {
	d := DailyRevenue{
		CashSales:      types.MustMoney("100"),
		POSSales:       types.MustMoney("50"),
		ServiceRevenue: types.MustMoney("20"),
		PurchaseTotal:  types.MustMoney("200"),
	}
	d.Recompute()
	assert.Equal(t, "-30.00", d.DailyRevenue.StringFixed(2))
}
