package catalog_repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/storage/postgres"
)

const productTable = "products"

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct {
	*BaseCatalogRepo[*catalog.Product]
}

var _ catalog.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm,
			postgres.ExtractDBColumns[catalog.Product](),
			BaseOptions{
				Table:         productTable,
				Entity:        "product",
				SearchCols:    []string{"name", "sku", "barcode"},
				ImmutableCols: []string{"stock", "barcode"},
			},
			func() *catalog.Product { return &catalog.Product{} },
		),
	}
}

// LockForUpdate locks the products in ascending id order so concurrent
// postings over overlapping products cannot deadlock.
func (r *ProductRepo) LockForUpdate(ctx context.Context, tn tenant.ID, productIDs []id.ID) (map[id.ID]*catalog.Product, error) {
	out := make(map[id.ID]*catalog.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	sql, args, err := r.lockQuery(tn, productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock: %w", err)
	}
	var rows []*catalog.Product
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "product", "lock")
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	for _, pid := range productIDs {
		if _, ok := out[pid]; !ok {
			return nil, apperror.NewNotFound("product", pid)
		}
	}
	return out, nil
}

func (r *ProductRepo) lockQuery(tn tenant.ID, productIDs []id.ID) squirrel.SelectBuilder {
	ids := slices.Clone(productIDs)
	slices.SortFunc(ids, func(a, b id.ID) int {
		switch {
		case id.Less(a, b):
			return -1
		case id.Less(b, a):
			return 1
		}
		return 0
	})
	ids = slices.Compact(ids)
	return r.baseSelect(tn).
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id").
		Suffix("FOR UPDATE")
}

// SaveStock writes stock and cost_price of a locked product.
func (r *ProductRepo) SaveStock(ctx context.Context, tn tenant.ID, p *catalog.Product) error {
	sql, args, err := r.Builder().
		Update(productTable).
		Set("stock", p.Stock).
		Set("cost_price", p.CostPrice).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"tenant_id": tn, "id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save stock: %w", err)
	}
	res, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "product", "save stock")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

// SetBarcode runs under a savepoint so a unique violation leaves the
// caller's transaction usable for the next candidate.
func (r *ProductRepo) SetBarcode(ctx context.Context, tn tenant.ID, productID id.ID, code string) error {
	sql, args, err := r.Builder().
		Update(productTable).
		Set("barcode", code).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"tenant_id": tn, "id": productID, "barcode": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set barcode: %w", err)
	}

	opts := postgres.DefaultTxOptions()
	opts.UseSavepoint = true
	return r.txm.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		res, err := r.querier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return postgres.MapError(err, "product", "set barcode")
		}
		if res.RowsAffected() > 0 {
			return nil
		}
		p, err := r.GetByID(ctx, tn, productID)
		if err != nil {
			return err
		}
		return apperror.NewAlreadyAssigned(productID.String(), *p.Barcode)
	})
}

// BarcodeExists reports whether any product of the tenant carries code.
func (r *ProductRepo) BarcodeExists(ctx context.Context, tn tenant.ID, code string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"tenant_id": tn, "barcode": code})
}

// GetByBarcode finds a product by its barcode.
func (r *ProductRepo) GetByBarcode(ctx context.Context, tn tenant.ID, code string) (*catalog.Product, error) {
	return r.FindOne(ctx, r.baseSelect(tn).Where(squirrel.Eq{"barcode": code}).Limit(1), code)
}

// ListWithoutBarcode returns up to limit product ids lacking a barcode, oldest first.
func (r *ProductRepo) ListWithoutBarcode(ctx context.Context, tn tenant.ID, limit int) ([]id.ID, error) {
	q := r.Builder().
		Select("id").
		From(productTable).
		Where(squirrel.Eq{"tenant_id": tn, "barcode": nil}).
		OrderBy("created_at", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list products without barcode: %w", err)
	}
	return ids, nil
}
