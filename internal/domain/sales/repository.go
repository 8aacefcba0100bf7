package sales

import (
	"context"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
)

// Repository persists invoices and their lines.
type Repository interface {
	// Create inserts the header and all items.
	Create(ctx context.Context, tn tenant.ID, inv *Invoice) error

	// GetByID loads the invoice with its items.
	GetByID(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate is GetByID plus a row lock on the header.
	GetForUpdate(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*Invoice, error)

	// Update writes header fields and totals.
	Update(ctx context.Context, tn tenant.ID, inv *Invoice) error

	// ReplaceItems swaps the stored lines for inv.Items.
	ReplaceItems(ctx context.Context, tn tenant.ID, inv *Invoice) error

	// Delete removes the invoice and its items.
	Delete(ctx context.Context, tn tenant.ID, invoiceID id.ID) error

	// List returns headers only.
	List(ctx context.Context, tn tenant.ID, filter ListFilter) (domain.ListResult[*Invoice], error)

	NumberExists(ctx context.Context, tn tenant.ID, number string) (bool, error)
}

// ProductStore is the slice of the catalogue the ledger needs.
type ProductStore interface {
	GetByID(ctx context.Context, tn tenant.ID, productID id.ID) (*catalog.Product, error)
	LockForUpdate(ctx context.Context, tn tenant.ID, productIDs []id.ID) (map[id.ID]*catalog.Product, error)
	SaveStock(ctx context.Context, tn tenant.ID, p *catalog.Product) error
}

// CustomerDirectory resolves invoice customers.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, tn tenant.ID, customerID id.ID) (*catalog.Customer, error)
	WalkInCustomer(ctx context.Context, tn tenant.ID) (*catalog.Customer, error)
}
