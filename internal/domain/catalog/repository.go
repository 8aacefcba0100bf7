package catalog

import (
	"context"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
)

// ProductRepository persists products. Update never touches stock or barcode;
// those change only through the lock-based methods below.
type ProductRepository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate reads the product and holds a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, tn tenant.ID, productID id.ID) (*Product, error)

	// LockForUpdate locks every listed product in ascending id order.
	// A missing product fails with NotFound.
	LockForUpdate(ctx context.Context, tn tenant.ID, productIDs []id.ID) (map[id.ID]*Product, error)

	// SaveStock writes stock and cost_price of a locked product.
	SaveStock(ctx context.Context, tn tenant.ID, p *Product) error

	// SetBarcode stores code on a product without one. A code already used by
	// another product fails with a conflict.
	SetBarcode(ctx context.Context, tn tenant.ID, productID id.ID, code string) error

	BarcodeExists(ctx context.Context, tn tenant.ID, code string) (bool, error)
	GetByBarcode(ctx context.Context, tn tenant.ID, code string) (*Product, error)

	// ListWithoutBarcode returns up to limit product ids lacking a barcode, oldest first.
	ListWithoutBarcode(ctx context.Context, tn tenant.ID, limit int) ([]id.ID, error)
}

// CategoryRepository persists product categories.
type CategoryRepository interface {
	domain.CatalogRepository[*ProductCategory]
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	domain.CatalogRepository[*Customer]

	CodeExists(ctx context.Context, tn tenant.ID, code string) (bool, error)

	// EnsureWalkIn returns the tenant's walk-in customer, inserting candidate
	// when none exists yet.
	EnsureWalkIn(ctx context.Context, tn tenant.ID, candidate *Customer) (*Customer, error)
}

// SupplierRepository persists suppliers.
type SupplierRepository interface {
	domain.CatalogRepository[*Supplier]
}
