// Package report_repo reads aggregates over the ledgers for the monthly
// summary.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// StatsRepo implements finance.LedgerStats.
type StatsRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ finance.LedgerStats = (*StatsRepo)(nil)

// NewStatsRepo creates a new ledger statistics repository.
func NewStatsRepo(txm *postgres.TxManager) *StatsRepo {
	return &StatsRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// MonthTotals reads every figure in one round trip. from is inclusive, to exclusive.
func (r *StatsRepo) MonthTotals(ctx context.Context, tn tenant.ID, from, to time.Time) (finance.LedgerTotals, error) {
	sql, args, err := r.monthTotalsQuery(tn, from, to).ToSql()
	if err != nil {
		return finance.LedgerTotals{}, fmt.Errorf("build month totals: %w", err)
	}

	// scany maps LedgerTotals fields to the snake_case aliases below.
	var t finance.LedgerTotals
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		return finance.LedgerTotals{}, fmt.Errorf("month totals: %w", err)
	}
	return t, nil
}

// monthTotalsQuery cross joins one single-row aggregate per ledger.
// Subqueries keep '?' placeholders; the outer builder numbers them.
func (r *StatsRepo) monthTotalsQuery(tn tenant.ID, from, to time.Time) squirrel.SelectBuilder {
	window := func(col string) squirrel.And {
		return squirrel.And{
			squirrel.Eq{"tenant_id": tn},
			squirrel.GtOrEq{col: from},
			squirrel.Lt{col: to},
		}
	}

	invoices := squirrel.Select(
		"COALESCE(SUM(grand_total), 0) AS paid_invoice_sum",
		"COUNT(*) AS paid_invoice_count",
	).From("invoices").Where(window("invoice_date")).Where(squirrel.Eq{"status": sales.StatusPaid})

	orders := squirrel.Select(
		"COALESCE(SUM(total), 0) AS received_order_sum",
		"COUNT(*) AS received_order_count",
	).From("purchase_orders").Where(window("order_date")).Where(squirrel.Eq{"status": procurement.StatusReceived})

	payments := squirrel.Select(
		"COALESCE(SUM(amount), 0) AS payment_sum",
	).From("purchase_payments").Where(window("payment_date"))

	saleRows := squirrel.Select(
		"COALESCE(SUM(total_revenue), 0) AS sale_revenue",
		"COALESCE(SUM(total_cost), 0) AS sale_cost",
	).From("inventory_transactions").Where(window("tx_date")).Where(squirrel.Eq{"kind": finance.InventorySale})

	return r.builder.
		Select("inv.*", "po.*", "pay.*", "sale.*").
		FromSelect(invoices, "inv").
		JoinClause(squirrel.Expr("CROSS JOIN (?) po", orders)).
		JoinClause(squirrel.Expr("CROSS JOIN (?) pay", payments)).
		JoinClause(squirrel.Expr("CROSS JOIN (?) sale", saleRows))
}
