// Package document_repo provides PostgreSQL implementations of the invoice
// and purchase order repositories. Headers and lines live in separate tables;
// lines are rewritten wholesale with COPY.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides header operations shared by document tables.
type BaseDocumentRepo[T entity.Record] struct {
	txm        *postgres.TxManager
	inserter   *postgres.BatchInserter
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T entity.Record](
	txm *postgres.TxManager,
	tableName, entityName string,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		inserter:   postgres.NewBatchInserter(txm),
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) baseSelect(tn tenant.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"tenant_id": tn})
}

// insertHeader inserts the header row of doc.
func (r *BaseDocumentRepo[T]) insertHeader(ctx context.Context, tn tenant.ID, doc T) error {
	data := postgres.StructToMap(doc)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	filtered["tenant_id"] = tn

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(filtered).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.entityName, "insert")
	}
	return nil
}

// updateQuery builds the header UPDATE for doc. Identity and creation
// columns are never rewritten.
func (r *BaseDocumentRepo[T]) updateQuery(tn tenant.ID, doc T) squirrel.UpdateBuilder {
	data := postgres.StructToMap(doc)
	set := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "tenant_id", "version", "created_at", "created_by":
			continue
		}
		if val, ok := data[col]; ok {
			set[col] = val
		}
	}
	return r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"tenant_id": tn, "id": doc.GetID()}).
		Suffix("RETURNING version")
}

// updateHeader writes doc and returns the new version.
func (r *BaseDocumentRepo[T]) updateHeader(ctx context.Context, tn tenant.ID, doc T) (int, error) {
	sql, args, err := r.updateQuery(tn, doc).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	var version int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&version); err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound(r.entityName, doc.GetID())
		}
		return 0, postgres.MapError(err, r.entityName, "update")
	}
	return version, nil
}

// getHeader loads a header row, optionally locking it.
func (r *BaseDocumentRepo[T]) getHeader(ctx context.Context, tn tenant.ID, docID id.ID, lock bool) (T, error) {
	q := r.baseSelect(tn).Where(squirrel.Eq{"id": docID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build query: %w", err)
	}

	doc := r.newFn()
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		var zero T
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(r.entityName, docID)
		}
		return zero, postgres.MapError(err, r.entityName, "get")
	}
	return doc, nil
}

// deleteHeader removes the header; line tables cascade.
func (r *BaseDocumentRepo[T]) deleteHeader(ctx context.Context, tn tenant.ID, docID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"tenant_id": tn, "id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entityName, "delete")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, docID)
	}
	return nil
}

// exists reports whether a header of the tenant has col = val.
func (r *BaseDocumentRepo[T]) exists(ctx context.Context, tn tenant.ID, col string, val any) (bool, error) {
	var found bool
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE tenant_id = $1 AND %s = $2)", r.tableName, col)
	if err := r.querier(ctx).QueryRow(ctx, sql, tn, val).Scan(&found); err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return found, nil
}

// listQuery is what List feeds to count and page.
type listQuery struct {
	where   squirrel.And
	orderBy []string
}

// list pages header rows matching lq.
func (r *BaseDocumentRepo[T]) list(ctx context.Context, tn tenant.ID, f domain.ListFilter, lq listQuery) (domain.ListResult[T], error) {
	f.Normalize()
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset}

	q := r.baseSelect(tn)
	if len(lq.where) > 0 {
		q = q.Where(lq.where)
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	sql, args, err := q.OrderBy(lq.orderBy...).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// periodWhere narrows col to rng. Zero bounds are open.
func periodWhere(col string, rng domain.DateRange) squirrel.And {
	var and squirrel.And
	if !rng.From.IsZero() {
		and = append(and, squirrel.GtOrEq{col: rng.From})
	}
	if !rng.To.IsZero() {
		and = append(and, squirrel.LtOrEq{col: rng.To})
	}
	return and
}

// prefixWhere matches col against a literal prefix.
func prefixWhere(col, prefix string) squirrel.Sqlizer {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return squirrel.Like{col: escaped + "%"}
}

// lineTable stores the lines of one document type.
type lineTable[L any] struct {
	table     string
	parentCol string
	cols      []string
}

func newLineTable[L any](table, parentCol string) lineTable[L] {
	return lineTable[L]{table: table, parentCol: parentCol, cols: postgres.ExtractDBColumns[L]()}
}

func (t lineTable[L]) selectQuery(tn tenant.ID, parentID id.ID) squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(t.cols...).
		From(t.table).
		Where(squirrel.Eq{"tenant_id": tn, t.parentCol: parentID}).
		OrderBy("line_no")
}

func (t lineTable[L]) load(ctx context.Context, q postgres.Querier, tn tenant.ID, parentID id.ID) ([]L, error) {
	sql, args, err := t.selectQuery(tn, parentID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var lines []L
	if err := pgxscan.Select(ctx, q, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("load %s: %w", t.table, err)
	}
	return lines, nil
}

// replace deletes the stored lines of parentID and copies lines in.
func (t lineTable[L]) replace(ctx context.Context, q postgres.Querier, ins *postgres.BatchInserter, tn tenant.ID, parentID id.ID, lines []L) error {
	del := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1 AND %s = $2", t.table, t.parentCol)
	if _, err := q.Exec(ctx, del, tn, parentID); err != nil {
		return fmt.Errorf("delete %s: %w", t.table, err)
	}
	if _, err := postgres.CopyStructs(ctx, ins, t.table, tn, lines); err != nil {
		return postgres.MapError(err, t.table, "copy")
	}
	return nil
}
