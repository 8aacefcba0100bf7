package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// InvoiceRepo implements sales.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*sales.Invoice]
	items lineTable[sales.InvoiceItem]
}

var _ sales.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, "invoices", "invoice",
			postgres.ExtractDBColumns[sales.Invoice](),
			func() *sales.Invoice { return &sales.Invoice{} },
		),
		items: newLineTable[sales.InvoiceItem]("invoice_items", "invoice_id"),
	}
}

// Create inserts the header and all items.
func (r *InvoiceRepo) Create(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.insertHeader(ctx, tn, inv); err != nil {
			return err
		}
		inv.TenantID = tn
		return r.writeItems(ctx, tn, inv)
	})
}

func (r *InvoiceRepo) writeItems(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		if id.IsNil(inv.Items[i].ID) {
			inv.Items[i].ID = id.New()
		}
	}
	return r.items.replace(ctx, r.querier(ctx), r.inserter, tn, inv.ID, inv.Items)
}

// GetByID loads the invoice with its items.
func (r *InvoiceRepo) GetByID(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*sales.Invoice, error) {
	return r.load(ctx, tn, invoiceID, false)
}

// GetForUpdate is GetByID plus a row lock on the header.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*sales.Invoice, error) {
	return r.load(ctx, tn, invoiceID, true)
}

func (r *InvoiceRepo) load(ctx context.Context, tn tenant.ID, invoiceID id.ID, lock bool) (*sales.Invoice, error) {
	inv, err := r.getHeader(ctx, tn, invoiceID, lock)
	if err != nil {
		return nil, err
	}
	if inv.Items, err = r.items.load(ctx, r.querier(ctx), tn, invoiceID); err != nil {
		return nil, err
	}
	return inv, nil
}

// Update writes header fields and totals.
func (r *InvoiceRepo) Update(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	version, err := r.updateHeader(ctx, tn, inv)
	if err != nil {
		return err
	}
	inv.Version = version
	return nil
}

// ReplaceItems swaps the stored lines for inv.Items.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return r.writeItems(ctx, tn, inv)
	})
}

// Delete removes the invoice; its items cascade.
func (r *InvoiceRepo) Delete(ctx context.Context, tn tenant.ID, invoiceID id.ID) error {
	return r.deleteHeader(ctx, tn, invoiceID)
}

// List returns headers only, newest first.
func (r *InvoiceRepo) List(ctx context.Context, tn tenant.ID, f sales.ListFilter) (domain.ListResult[*sales.Invoice], error) {
	return r.list(ctx, tn, f.ListFilter, invoiceListQuery(f))
}

func invoiceListQuery(f sales.ListFilter) listQuery {
	where := periodWhere("invoice_date", f.Period)
	if f.Search != "" {
		where = append(where, prefixWhere("invoice_number", f.Search))
	}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"status": f.Status})
	}
	if f.CustomerID != nil {
		where = append(where, squirrel.Eq{"customer_id": *f.CustomerID})
	}
	return listQuery{where: where, orderBy: []string{"invoice_date DESC", "invoice_number DESC"}}
}

// NumberExists reports whether number is taken within the tenant.
func (r *InvoiceRepo) NumberExists(ctx context.Context, tn tenant.ID, number string) (bool, error) {
	return r.exists(ctx, tn, "invoice_number", number)
}
