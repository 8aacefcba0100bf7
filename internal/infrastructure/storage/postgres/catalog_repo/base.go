// Package catalog_repo provides PostgreSQL implementations of the catalogue
// repositories. All sites share one database; every statement is scoped by
// tenant_id.
package catalog_repo

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

// BaseCatalogRepo provides common CRUD operations for catalogue rows.
// Embed it in specific repositories.
type BaseCatalogRepo[T entity.Record] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string

	// searchCols are matched with ILIKE by List.
	searchCols []string

	// immutableCols are never written by Update.
	immutableCols map[string]struct{}

	defaultOrder string
	newFn        func() T
}

// BaseOptions configures a BaseCatalogRepo.
type BaseOptions struct {
	Table         string
	Entity        string
	SearchCols    []string
	ImmutableCols []string
	DefaultOrder  string
}

// NewBaseCatalogRepo creates a new base catalogue repository.
func NewBaseCatalogRepo[T entity.Record](txm *postgres.TxManager, selectCols []string, opts BaseOptions, newFn func() T) *BaseCatalogRepo[T] {
	immutable := map[string]struct{}{"id": {}, "tenant_id": {}, "version": {}, "created_at": {}}
	for _, c := range opts.ImmutableCols {
		immutable[c] = struct{}{}
	}
	order := opts.DefaultOrder
	if order == "" {
		order = "name"
	}
	return &BaseCatalogRepo[T]{
		txm:           txm,
		tableName:     opts.Table,
		entityName:    opts.Entity,
		selectCols:    selectCols,
		searchCols:    opts.SearchCols,
		immutableCols: immutable,
		defaultOrder:  order,
		newFn:         newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// baseSelect selects the entity columns of one tenant.
func (r *BaseCatalogRepo[T]) baseSelect(tn tenant.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"tenant_id": tn})
}

// columns returns the entity's column values, restricted to selectCols.
func (r *BaseCatalogRepo[T]) columns(e T) map[string]any {
	data := postgres.StructToMap(e)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts e using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, tn tenant.ID, e T) error {
	data := r.columns(e)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}
	data["tenant_id"] = tn

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, r.entityName, "insert")
	}
	return nil
}

// updateQuery builds the optimistic-lock UPDATE for e.
func (r *BaseCatalogRepo[T]) updateQuery(tn tenant.ID, e T) (squirrel.UpdateBuilder, error) {
	data := r.columns(e)
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no int version column", r.entityName)
	}

	set := make(map[string]any, len(data))
	for col, val := range data {
		if _, skip := r.immutableCols[col]; skip {
			continue
		}
		set[col] = val
	}

	return r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"tenant_id": tn, "id": e.GetID(), "version": version}).
		Suffix("RETURNING " + strings.Join(r.selectCols, ", ")), nil
}

// Update writes e when its version matches the stored row and reloads it,
// so the bumped version and columns Update never writes are visible to the caller.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, tn tenant.ID, e T) error {
	q, err := r.updateQuery(tn, e)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if !pgxscan.NotFound(err) {
			return postgres.MapError(err, r.entityName, "update")
		}
		exists, exErr := r.Exists(ctx, tn, e.GetID())
		if exErr != nil {
			return exErr
		}
		if !exists {
			return apperror.NewNotFound(r.entityName, e.GetID())
		}
		return apperror.NewConflict(r.entityName+" was modified concurrently").
			WithDetail("id", e.GetID().String())
	}
	return nil
}

// GetByID retrieves a row by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, tn tenant.ID, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect(tn).Where(squirrel.Eq{"id": entityID}).Limit(1), entityID)
}

// GetForUpdate retrieves a row by ID and locks it.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, tn tenant.ID, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect(tn).Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID)
}

// FindOne executes q and returns a single row. key names the lookup in NotFound errors.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key any) (T, error) {
	e := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			var zero T
			return zero, apperror.NewNotFound(r.entityName, key)
		}
		return e, postgres.MapError(err, r.entityName, "get")
	}
	return e, nil
}

// List retrieves rows with search and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, tn tenant.ID, filter domain.ListFilter) (domain.ListResult[T], error) {
	filter.Normalize()
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.applyFilter(r.baseSelect(tn), filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id").Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

func (r *BaseCatalogRepo[T]) applyFilter(q squirrel.SelectBuilder, filter domain.ListFilter) squirrel.SelectBuilder {
	if search := strings.TrimSpace(filter.Search); search != "" && len(r.searchCols) > 0 {
		pattern := "%" + search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	return q
}

// Exists checks whether a row exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, tn tenant.ID, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"tenant_id": tn, "id": entityID})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sub := r.Builder().Select("1").From(r.tableName).Where(where)
	sql, args, err := r.Builder().Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	var found bool
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return found, nil
}

// Delete removes a row. Rows still referenced fail with a conflict.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, tn tenant.ID, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"tenant_id": tn, "id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entityName, "delete")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		orderBy = r.defaultOrder
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	for _, col := range r.selectCols {
		if col == field && col != "tenant_id" {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
}
