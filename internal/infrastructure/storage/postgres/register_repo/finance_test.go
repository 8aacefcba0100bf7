package register_repo

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
	"trendzportal/internal/domain/finance"
)

const testTenant = tenant.ID("5f0c6d1e-8a44-4a53-9a55-8f5a3c1c9b10")

func TestTransactionListQuery(t *testing.T) {
	r := NewFinanceRepo(nil)
	cat := id.New()
	f := finance.TransactionFilter{
		ListFilter: domain.ListFilter{Search: "rent"},
		Kind:       finance.KindExpense,
		CategoryID: &cat,
		Period: domain.DateRange{
			From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	sql, args, err := r.transactionListQuery(testTenant, f).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM fin_transactions WHERE tenant_id = $1")
	assert.Contains(t, sql, "(description ILIKE $2 OR reference ILIKE $3)")
	assert.Contains(t, sql, "kind = $4")
	assert.Contains(t, sql, "category_id = $5")
	assert.Contains(t, sql, "(tx_date >= $6 AND tx_date <= $7)")
	assert.NotContains(t, sql, "source_kind =")
	require.Len(t, args, 7)
	assert.Equal(t, "%rent%", args[1])
	assert.Equal(t, cat.String(), args[4])
}

func TestTransactionListQueryOpenRange(t *testing.T) {
	r := NewFinanceRepo(nil)
	sql, args, err := r.transactionListQuery(testTenant, finance.TransactionFilter{
		SourceKind: finance.SourceInvoice,
	}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "tx_date >=")
	assert.NotContains(t, sql, "tx_date <")
	assert.Contains(t, sql, "source_kind = $2")
	assert.Len(t, args, 2)
}

func TestCreateTransactionSkipsTakenSource(t *testing.T) {
	r := NewFinanceRepo(nil)
	src := id.New()
	tx := &finance.Transaction{
		ID:         id.New(),
		Amount:     types.MustMoney("12.50"),
		SourceKind: finance.SourceInvoice,
		SourceID:   &src,
	}
	sql, _, err := createTransactionQuery(r.insertMap(transactionsTable, testTenant, tx, transactionCols)).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO fin_transactions")
	assert.True(t, strings.HasSuffix(sql, "DO NOTHING"))
	assert.Contains(t, sql, "ON CONFLICT (tenant_id, source_kind, source_id) WHERE source_kind <> 'manual'")
}

func TestInsertMapForcesTenant(t *testing.T) {
	r := NewFinanceRepo(nil)
	c := &finance.Category{ID: id.New(), TenantID: "other", Name: "Sales", Kind: finance.CategorySale}
	_, args, err := r.insertMap(categoriesTable, testTenant, c, categoryCols).ToSql()
	require.NoError(t, err)
	assert.Contains(t, args, testTenant)
	assert.NotContains(t, args, tenant.ID("other"))
}

func TestUpsertSummaryQuery(t *testing.T) {
	r := NewFinanceRepo(nil)
	s := &finance.Summary{Year: 2026, Month: 3, UpdatedAt: time.Now()}
	sql, _, err := r.upsertSummaryQuery(testTenant, s).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ON CONFLICT (tenant_id, year, month) DO UPDATE SET")
	assert.Contains(t, sql, "total_sales = EXCLUDED.total_sales")
	assert.Contains(t, sql, "updated_at = EXCLUDED.updated_at")
	assert.NotContains(t, sql, "year = EXCLUDED.year")
	assert.NotContains(t, sql, "tenant_id = EXCLUDED")
}

func TestUpdateDailyQueryKeepsCreation(t *testing.T) {
	r := NewFinanceRepo(nil)
	d := &finance.DailyRevenue{ID: id.New(), Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}
	sql, _, err := r.updateDailyQuery(testTenant, d).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "UPDATE daily_revenue SET")
	assert.Contains(t, sql, "entry_date = $")
	assert.NotContains(t, sql, "created_at = $")
	assert.NotContains(t, sql, "SET id = $")
}

func TestInventoryQueryOrder(t *testing.T) {
	r := NewFinanceRepo(nil)
	sql, args, err := r.inventoryQuery(testTenant, id.New(), domain.DateRange{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "tx_date >= $3")
	assert.Contains(t, sql, "ORDER BY tx_date, created_at, id")
	assert.Len(t, args, 3)
}
