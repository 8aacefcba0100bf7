package document_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
)

const testTenant = tenant.ID("0b0e7c3a-4a0f-4f53-9d0c-5c2e4c9a1f01")

func TestInvoiceListQuery(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	customer := id.New()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	lq := invoiceListQuery(sales.ListFilter{
		ListFilter: domain.ListFilter{Search: "202610"},
		Status:     sales.StatusPaid,
		CustomerID: &customer,
		Period:     domain.DateRange{From: from},
	})
	sql, args, err := repo.baseSelect(testTenant).Where(lq.where).OrderBy(lq.orderBy...).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql,
		"FROM invoices WHERE tenant_id = $1 AND (invoice_date >= $2 AND invoice_number LIKE $3 AND status = $4 AND customer_id = $5) ORDER BY invoice_date DESC, invoice_number DESC"), sql)
	assert.Equal(t, []any{testTenant, from, "202610%", sales.StatusPaid, customer.String()}, args)
}

func TestPrefixWhereEscapesWildcards(t *testing.T) {
	sql, args, err := prefixWhere("reference", "PO_2026%").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "reference LIKE ?", sql)
	assert.Equal(t, []any{`PO\_2026\%%`}, args)
}

func TestOrderListQueryWithoutFilters(t *testing.T) {
	lq := orderListQuery(procurement.ListFilter{})
	assert.Empty(t, lq.where)
	assert.Equal(t, []string{"order_date DESC", "reference DESC"}, lq.orderBy)
}

func TestUpdateQueryKeepsIdentity(t *testing.T) {
	repo := NewPurchaseOrderRepo(nil)
	po := &procurement.PurchaseOrder{Reference: "PO-2026-00001", Status: procurement.StatusOrdered, Tax: types.MustMoney("5")}
	po.ID = id.New()

	sql, _, err := repo.updateQuery(testTenant, po).ToSql()
	require.NoError(t, err)

	set := sql[:strings.Index(sql, " WHERE ")]
	assert.Contains(t, set, "reference = $")
	assert.Contains(t, set, "version = version + 1")
	for _, col := range []string{"created_by =", "created_at =", "tenant_id =", " id ="} {
		assert.NotContains(t, set, col)
	}
	assert.True(t, strings.HasSuffix(sql, "RETURNING version"))
}

func TestLineSelect(t *testing.T) {
	repo := NewInvoiceRepo(nil)
	inv := id.New()
	sql, args, err := repo.items.selectQuery(testTenant, inv).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, invoice_id, line_no, product_id, quantity, unit_price, line_total FROM invoice_items WHERE invoice_id = $1 AND tenant_id = $2 ORDER BY line_no",
		sql)
	assert.Equal(t, []any{inv.String(), testTenant}, args)
}
