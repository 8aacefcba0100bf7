package procurement

import (
	"context"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
)

// Repository persists orders, lines and payments.
type Repository interface {
	Create(ctx context.Context, tn tenant.ID, po *PurchaseOrder) error
	GetByID(ctx context.Context, tn tenant.ID, orderID id.ID) (*PurchaseOrder, error)

	// GetForUpdate loads the order with items and locks its row.
	GetForUpdate(ctx context.Context, tn tenant.ID, orderID id.ID) (*PurchaseOrder, error)

	Update(ctx context.Context, tn tenant.ID, po *PurchaseOrder) error
	ReplaceItems(ctx context.Context, tn tenant.ID, po *PurchaseOrder) error

	// Delete removes the order with its items and payments.
	Delete(ctx context.Context, tn tenant.ID, orderID id.ID) error

	List(ctx context.Context, tn tenant.ID, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
	ReferenceExists(ctx context.Context, tn tenant.ID, reference string) (bool, error)

	CreatePayment(ctx context.Context, tn tenant.ID, p *Payment) error
	GetPayment(ctx context.Context, tn tenant.ID, paymentID id.ID) (*Payment, error)
	ListPayments(ctx context.Context, tn tenant.ID, orderID id.ID) ([]Payment, error)
	DeletePayment(ctx context.Context, tn tenant.ID, paymentID id.ID) error
}

// ProductStore is the slice of the catalogue the ledger needs.
type ProductStore interface {
	GetByID(ctx context.Context, tn tenant.ID, productID id.ID) (*catalog.Product, error)
	LockForUpdate(ctx context.Context, tn tenant.ID, productIDs []id.ID) (map[id.ID]*catalog.Product, error)
	SaveStock(ctx context.Context, tn tenant.ID, p *catalog.Product) error
}

// SupplierDirectory resolves order suppliers.
type SupplierDirectory interface {
	GetSupplier(ctx context.Context, tn tenant.ID, supplierID id.ID) (*catalog.Supplier, error)
}
