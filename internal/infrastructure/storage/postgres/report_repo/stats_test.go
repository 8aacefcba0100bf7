package report_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
)

func TestMonthTotalsQuery(t *testing.T) {
	tn := tenant.ID("6a3b0c55-2f1e-4e0b-8f77-3d6c2b1a9e40")
	p := finance.Period{Year: 2026, Month: time.February}

	sql, args, err := NewStatsRepo(nil).monthTotalsQuery(tn, p.Start(), p.End()).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "?")
	assert.True(t, strings.HasPrefix(sql, "SELECT inv.*, po.*, pay.*, sale.* FROM (SELECT COALESCE(SUM(grand_total), 0)"), sql)
	assert.Contains(t, sql, "CROSS JOIN (SELECT COALESCE(SUM(total), 0) AS received_order_sum")
	assert.Contains(t, sql, "FROM purchase_payments WHERE")
	assert.Contains(t, sql, "invoice_date < $3")
	assert.Contains(t, sql, "$15")
	assert.NotContains(t, sql, "$16")

	require.Len(t, args, 15)
	assert.Equal(t, tn, args[0])
	assert.Equal(t, p.Start(), args[1])
	assert.Equal(t, p.End(), args[2])
	assert.Equal(t, sales.StatusPaid, args[3])
	assert.Equal(t, procurement.StatusReceived, args[7])
	assert.Equal(t, finance.InventorySale, args[14])
}
