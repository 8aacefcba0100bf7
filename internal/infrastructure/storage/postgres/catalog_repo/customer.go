package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// CustomerRepo implements catalog.CustomerRepository.
type CustomerRepo struct {
	*BaseCatalogRepo[*catalog.Customer]
}

var _ catalog.CustomerRepository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm,
			postgres.ExtractDBColumns[catalog.Customer](),
			BaseOptions{
				Table:         "customers",
				Entity:        "customer",
				SearchCols:    []string{"full_name", "code", "phone", "email"},
				ImmutableCols: []string{"code", "is_walk_in"},
				DefaultOrder:  "full_name",
			},
			func() *catalog.Customer { return &catalog.Customer{} },
		),
	}
}

// CodeExists reports whether code is taken within the tenant.
func (r *CustomerRepo) CodeExists(ctx context.Context, tn tenant.ID, code string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"tenant_id": tn, "code": code})
}

// EnsureWalkIn inserts candidate unless the tenant already has a walk-in
// customer, then returns the stored one. The partial unique index on
// is_walk_in makes concurrent callers converge on a single row.
func (r *CustomerRepo) EnsureWalkIn(ctx context.Context, tn tenant.ID, candidate *catalog.Customer) (*catalog.Customer, error) {
	candidate.IsWalkIn = true
	data := r.columns(candidate)
	data["tenant_id"] = tn

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		Suffix("ON CONFLICT (tenant_id) WHERE is_walk_in DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build walk-in insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError(err, "customer", "insert")
	}

	return r.FindOne(ctx, r.baseSelect(tn).Where(squirrel.Eq{"is_walk_in": true}).Limit(1), catalog.WalkInCustomerName)
}
