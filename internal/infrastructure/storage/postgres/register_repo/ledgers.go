package register_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// copyRows writes rows with COPY under a savepoint so a unique violation
// surfaces as a duplicate and the caller's transaction stays usable.
func copyRows[T any](ctx context.Context, r *FinanceRepo, table, entity string, tn tenant.ID, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	opts := postgres.DefaultTxOptions()
	opts.UseSavepoint = true
	return r.txm.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		if _, err := postgres.CopyStructs(ctx, r.inserter, table, tn, rows); err != nil {
			return postgres.MapError(err, entity, "copy")
		}
		return nil
	})
}

// --- inventory ---

func (r *FinanceRepo) InsertInventory(ctx context.Context, tn tenant.ID, rows []finance.InventoryTransaction) error {
	for i := range rows {
		rows[i].TenantID = tn
	}
	return copyRows(ctx, r, inventoryTable, "inventory transaction", tn, rows)
}

func (r *FinanceRepo) HasInventoryForSource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (bool, error) {
	return r.exists(ctx, inventoryTable, squirrel.Eq{"tenant_id": tn, "source_kind": kind, "source_id": sourceID})
}

func (r *FinanceRepo) DeleteInventoryBySource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (int64, error) {
	return r.exec(ctx, r.builder.Delete(inventoryTable).
		Where(squirrel.Eq{"tenant_id": tn, "source_kind": kind, "source_id": sourceID}),
		"inventory transaction", "delete")
}

func (r *FinanceRepo) ListInventory(ctx context.Context, tn tenant.ID, productID id.ID, rng domain.DateRange) ([]finance.InventoryTransaction, error) {
	var rows []finance.InventoryTransaction
	if err := r.selectAll(ctx, &rows, r.inventoryQuery(tn, productID, rng), "inventory transaction"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FinanceRepo) inventoryQuery(tn tenant.ID, productID id.ID, rng domain.DateRange) squirrel.SelectBuilder {
	q := r.builder.Select(inventoryCols...).From(inventoryTable).
		Where(squirrel.Eq{"tenant_id": tn, "product_id": productID}).
		OrderBy("tx_date", "created_at", "id")
	if w := dateWhere("tx_date", rng); len(w) > 0 {
		q = q.Where(w)
	}
	return q
}

// --- sold items ---

func (r *FinanceRepo) InsertSoldItems(ctx context.Context, tn tenant.ID, rows []finance.SoldItem) error {
	for i := range rows {
		rows[i].TenantID = tn
	}
	return copyRows(ctx, r, soldItemsTable, "sold item", tn, rows)
}

func (r *FinanceRepo) HasSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) (bool, error) {
	return r.exists(ctx, soldItemsTable, squirrel.Eq{"tenant_id": tn, "invoice_id": invoiceID})
}

func (r *FinanceRepo) DeleteSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) (int64, error) {
	return r.exec(ctx, r.builder.Delete(soldItemsTable).
		Where(squirrel.Eq{"tenant_id": tn, "invoice_id": invoiceID}), "sold item", "delete")
}

func (r *FinanceRepo) ListSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) ([]finance.SoldItem, error) {
	q := r.builder.Select(soldItemCols...).From(soldItemsTable).
		Where(squirrel.Eq{"tenant_id": tn, "invoice_id": invoiceID}).
		OrderBy("product_name", "id")
	var rows []finance.SoldItem
	if err := r.selectAll(ctx, &rows, q, "sold item"); err != nil {
		return nil, err
	}
	return rows, nil
}

// --- summaries ---

// UpsertSummary replaces every figure of the (tenant, year, month) row.
func (r *FinanceRepo) UpsertSummary(ctx context.Context, tn tenant.ID, s *finance.Summary) error {
	s.TenantID = tn
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	_, err := r.exec(ctx, r.upsertSummaryQuery(tn, s), "financial summary", "upsert")
	return err
}

func (r *FinanceRepo) upsertSummaryQuery(tn tenant.ID, s *finance.Summary) squirrel.InsertBuilder {
	sets := make([]string, 0, len(summaryCols))
	for _, c := range summaryCols {
		switch c {
		case "tenant_id", "year", "month":
			continue
		}
		sets = append(sets, c+" = EXCLUDED."+c)
	}
	return r.insertMap(summariesTable, tn, s, summaryCols).
		Suffix("ON CONFLICT (tenant_id, year, month) DO UPDATE SET " + strings.Join(sets, ", "))
}

func (r *FinanceRepo) GetSummary(ctx context.Context, tn tenant.ID, p finance.Period) (*finance.Summary, error) {
	out := &finance.Summary{}
	q := r.builder.Select(summaryCols...).From(summariesTable).
		Where(squirrel.Eq{"tenant_id": tn, "year": p.Year, "month": int(p.Month)})
	if err := r.get(ctx, out, q, "financial summary", p.String()); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FinanceRepo) ListSummaries(ctx context.Context, tn tenant.ID, year int) ([]finance.Summary, error) {
	q := r.builder.Select(summaryCols...).From(summariesTable).
		Where(squirrel.Eq{"tenant_id": tn, "year": year}).
		OrderBy("month")
	var rows []finance.Summary
	if err := r.selectAll(ctx, &rows, q, "financial summary"); err != nil {
		return nil, err
	}
	return rows, nil
}

// --- daily revenue ---

func (r *FinanceRepo) CreateDailyRevenue(ctx context.Context, tn tenant.ID, d *finance.DailyRevenue) error {
	d.TenantID = tn
	_, err := r.exec(ctx, r.insertMap(dailyRevenueTable, tn, d, dailyCols), "daily revenue", "insert")
	return err
}

func (r *FinanceRepo) UpdateDailyRevenue(ctx context.Context, tn tenant.ID, d *finance.DailyRevenue) error {
	d.TenantID = tn
	n, err := r.exec(ctx, r.updateDailyQuery(tn, d), "daily revenue", "update")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("daily revenue", d.ID)
	}
	return nil
}

func (r *FinanceRepo) updateDailyQuery(tn tenant.ID, d *finance.DailyRevenue) squirrel.UpdateBuilder {
	data := postgres.StructToMap(d)
	set := make(map[string]any, len(dailyCols))
	for _, c := range dailyCols {
		switch c {
		case "id", "tenant_id", "created_at":
			continue
		}
		set[c] = data[c]
	}
	return r.builder.Update(dailyRevenueTable).
		SetMap(set).
		Where(squirrel.Eq{"tenant_id": tn, "id": d.ID})
}

func (r *FinanceRepo) GetDailyRevenue(ctx context.Context, tn tenant.ID, entryID id.ID) (*finance.DailyRevenue, error) {
	out := &finance.DailyRevenue{}
	q := r.builder.Select(dailyCols...).From(dailyRevenueTable).
		Where(squirrel.Eq{"tenant_id": tn, "id": entryID})
	if err := r.get(ctx, out, q, "daily revenue", entryID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FinanceRepo) DeleteDailyRevenue(ctx context.Context, tn tenant.ID, entryID id.ID) error {
	n, err := r.exec(ctx, r.builder.Delete(dailyRevenueTable).
		Where(squirrel.Eq{"tenant_id": tn, "id": entryID}), "daily revenue", "delete")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("daily revenue", entryID)
	}
	return nil
}

func (r *FinanceRepo) ListDailyRevenue(ctx context.Context, tn tenant.ID, rng domain.DateRange) ([]finance.DailyRevenue, error) {
	q := r.builder.Select(dailyCols...).From(dailyRevenueTable).
		Where(squirrel.Eq{"tenant_id": tn}).
		OrderBy("entry_date DESC")
	if w := dateWhere("entry_date", rng); len(w) > 0 {
		q = q.Where(w)
	}
	var rows []finance.DailyRevenue
	if err := r.selectAll(ctx, &rows, q, "daily revenue"); err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	return rows, nil
}
