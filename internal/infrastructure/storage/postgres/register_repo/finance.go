// Package register_repo stores the derived ledgers: finance categories and
// transactions, inventory movements, sold items, monthly summaries and the
// daily revenue register.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/infrastructure/storage/postgres"
)

const (
	categoriesTable   = "fin_categories"
	transactionsTable = "fin_transactions"
	inventoryTable    = "inventory_transactions"
	soldItemsTable    = "sold_items"
	summariesTable    = "financial_summaries"
	dailyRevenueTable = "daily_revenue"
)

var (
	categoryCols    = postgres.ExtractDBColumns[finance.Category]()
	transactionCols = postgres.ExtractDBColumns[finance.Transaction]()
	inventoryCols   = postgres.ExtractDBColumns[finance.InventoryTransaction]()
	soldItemCols    = postgres.ExtractDBColumns[finance.SoldItem]()
	summaryCols     = postgres.ExtractDBColumns[finance.Summary]()
	dailyCols       = postgres.ExtractDBColumns[finance.DailyRevenue]()
)

// FinanceRepo implements finance.Repository.
type FinanceRepo struct {
	txm      *postgres.TxManager
	inserter *postgres.BatchInserter
	builder  squirrel.StatementBuilderType
}

var _ finance.Repository = (*FinanceRepo)(nil)

// NewFinanceRepo creates a new finance repository.
func NewFinanceRepo(txm *postgres.TxManager) *FinanceRepo {
	return &FinanceRepo{
		txm:      txm,
		inserter: postgres.NewBatchInserter(txm),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *FinanceRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// exec runs a built statement and returns the affected row count.
func (r *FinanceRepo) exec(ctx context.Context, q squirrel.Sqlizer, entity, op string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	res, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, entity, op)
	}
	return res.RowsAffected(), nil
}

func (r *FinanceRepo) get(ctx context.Context, dst any, q squirrel.SelectBuilder, entity string, key any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entity, key)
		}
		return postgres.MapError(err, entity, "get")
	}
	return nil
}

func (r *FinanceRepo) selectAll(ctx context.Context, dst any, q squirrel.SelectBuilder, entity string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), dst, sql, args...); err != nil {
		return postgres.MapError(err, entity, "list")
	}
	return nil
}

func (r *FinanceRepo) exists(ctx context.Context, table string, where squirrel.Eq) (bool, error) {
	sub := r.builder.Select("1").From(table).Where(where)
	sql, args, err := r.builder.Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	var found bool
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return found, nil
}

// insertMap builds an INSERT for v with tenant_id forced to tn.
func (r *FinanceRepo) insertMap(table string, tn tenant.ID, v any, cols []string) squirrel.InsertBuilder {
	data := postgres.StructToMap(v)
	set := make(map[string]any, len(cols))
	for _, c := range cols {
		if val, ok := data[c]; ok {
			set[c] = val
		}
	}
	set["tenant_id"] = tn
	return r.builder.Insert(table).SetMap(set)
}

// --- categories ---

func (r *FinanceRepo) EnsureCategory(ctx context.Context, tn tenant.ID, name string, kind finance.CategoryKind, description string) (*finance.Category, error) {
	c := &finance.Category{
		ID:          id.New(),
		TenantID:    tn,
		Name:        name,
		Kind:        kind,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	ins := r.insertMap(categoriesTable, tn, c, categoryCols).
		Suffix("ON CONFLICT ON CONSTRAINT uq_fin_categories_name DO NOTHING")
	if _, err := r.exec(ctx, ins, "finance category", "insert"); err != nil {
		return nil, err
	}

	out := &finance.Category{}
	q := r.builder.Select(categoryCols...).From(categoriesTable).
		Where(squirrel.Eq{"tenant_id": tn, "name": name, "kind": kind})
	if err := r.get(ctx, out, q, "finance category", name); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FinanceRepo) GetCategory(ctx context.Context, tn tenant.ID, categoryID id.ID) (*finance.Category, error) {
	out := &finance.Category{}
	q := r.builder.Select(categoryCols...).From(categoriesTable).
		Where(squirrel.Eq{"tenant_id": tn, "id": categoryID})
	if err := r.get(ctx, out, q, "finance category", categoryID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FinanceRepo) ListCategories(ctx context.Context, tn tenant.ID, kind finance.CategoryKind) ([]finance.Category, error) {
	q := r.builder.Select(categoryCols...).From(categoriesTable).
		Where(squirrel.Eq{"tenant_id": tn}).
		OrderBy("kind", "name")
	if kind != "" {
		q = q.Where(squirrel.Eq{"kind": kind})
	}
	var rows []finance.Category
	if err := r.selectAll(ctx, &rows, q, "finance category"); err != nil {
		return nil, err
	}
	return rows, nil
}

// --- transactions ---

func (r *FinanceRepo) FindTransactionBySource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (*finance.Transaction, error) {
	out := &finance.Transaction{}
	q := r.builder.Select(transactionCols...).From(transactionsTable).
		Where(squirrel.Eq{"tenant_id": tn, "source_kind": kind, "source_id": sourceID}).
		Limit(1)
	if err := r.get(ctx, out, q, "finance transaction", sourceID); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTransaction inserts t. A taken provenance yields a duplicate error
// without aborting the surrounding transaction.
func (r *FinanceRepo) CreateTransaction(ctx context.Context, tn tenant.ID, t *finance.Transaction) error {
	t.TenantID = tn
	n, err := r.exec(ctx, createTransactionQuery(r.insertMap(transactionsTable, tn, t, transactionCols)),
		"finance transaction", "insert")
	if err != nil {
		return err
	}
	if n == 0 {
		source := ""
		if t.SourceID != nil {
			source = t.SourceID.String()
		}
		return apperror.NewDuplicate("finance transaction", "source", source)
	}
	return nil
}

func createTransactionQuery(ins squirrel.InsertBuilder) squirrel.InsertBuilder {
	return ins.Suffix("ON CONFLICT (tenant_id, source_kind, source_id) WHERE source_kind <> 'manual' DO NOTHING")
}

func (r *FinanceRepo) GetTransaction(ctx context.Context, tn tenant.ID, txID id.ID) (*finance.Transaction, error) {
	out := &finance.Transaction{}
	q := r.builder.Select(transactionCols...).From(transactionsTable).
		Where(squirrel.Eq{"tenant_id": tn, "id": txID})
	if err := r.get(ctx, out, q, "finance transaction", txID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FinanceRepo) DeleteTransaction(ctx context.Context, tn tenant.ID, txID id.ID) error {
	n, err := r.exec(ctx, r.builder.Delete(transactionsTable).
		Where(squirrel.Eq{"tenant_id": tn, "id": txID}), "finance transaction", "delete")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("finance transaction", txID)
	}
	return nil
}

func (r *FinanceRepo) DeleteTransactionsBySource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (int64, error) {
	return r.exec(ctx, r.builder.Delete(transactionsTable).
		Where(squirrel.Eq{"tenant_id": tn, "source_kind": kind, "source_id": sourceID}),
		"finance transaction", "delete")
}

func (r *FinanceRepo) ListTransactions(ctx context.Context, tn tenant.ID, f finance.TransactionFilter) (domain.ListResult[*finance.Transaction], error) {
	f.Normalize()
	result := domain.ListResult[*finance.Transaction]{Limit: f.Limit, Offset: f.Offset}

	q := r.transactionListQuery(tn, f)
	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", transactionsTable, err)
	}

	q = q.OrderBy("tx_date DESC", "created_at DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
	if err := r.selectAll(ctx, &result.Items, q, "finance transaction"); err != nil {
		return result, err
	}
	return result, nil
}

func (r *FinanceRepo) transactionListQuery(tn tenant.ID, f finance.TransactionFilter) squirrel.SelectBuilder {
	q := r.builder.Select(transactionCols...).From(transactionsTable).
		Where(squirrel.Eq{"tenant_id": tn})
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"description": pattern},
			squirrel.ILike{"reference": pattern},
		})
	}
	if f.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": f.Kind})
	}
	if f.CategoryID != nil {
		q = q.Where(squirrel.Eq{"category_id": *f.CategoryID})
	}
	if f.SourceKind != "" {
		q = q.Where(squirrel.Eq{"source_kind": f.SourceKind})
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	if w := dateWhere("tx_date", f.Period); len(w) > 0 {
		q = q.Where(w)
	}
	return q
}

// dateWhere narrows col to rng. Zero bounds are open.
func dateWhere(col string, rng domain.DateRange) squirrel.And {
	var and squirrel.And
	if !rng.From.IsZero() {
		and = append(and, squirrel.GtOrEq{col: rng.From})
	}
	if !rng.To.IsZero() {
		and = append(and, squirrel.LtOrEq{col: rng.To})
	}
	return and
}
