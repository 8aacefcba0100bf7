package memory

import (
	"context"
	"slices"
	"strings"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
)

// InvoiceRepo implements sales.Repository.
type InvoiceRepo struct{ s *Store }

var _ sales.Repository = (*InvoiceRepo)(nil)

func cloneInvoice(inv sales.Invoice) *sales.Invoice {
	inv.Items = slices.Clone(inv.Items)
	return &inv
}

func (r *InvoiceRepo) Create(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	return r.s.do(ctx, func() error {
		for k, other := range r.s.st.invoices {
			if k.tn == tn && other.Number == inv.Number {
				return apperror.NewDuplicate("invoice", "invoice_number", inv.Number)
			}
		}
		inv.TenantID = tn
		for i := range inv.Items {
			inv.Items[i].InvoiceID = inv.ID
		}
		r.s.st.invoices[key{tn, inv.ID}] = *cloneInvoice(*inv)
		return nil
	})
}

func (r *InvoiceRepo) GetByID(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*sales.Invoice, error) {
	var out *sales.Invoice
	err := r.s.do(ctx, func() error {
		inv, ok := r.s.st.invoices[key{tn, invoiceID}]
		if !ok {
			return apperror.NewNotFound("invoice", invoiceID)
		}
		out = cloneInvoice(inv)
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*sales.Invoice, error) {
	return r.GetByID(ctx, tn, invoiceID)
}

func (r *InvoiceRepo) Update(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	return r.s.do(ctx, func() error {
		k := key{tn, inv.ID}
		cur, ok := r.s.st.invoices[k]
		if !ok {
			return apperror.NewNotFound("invoice", inv.ID)
		}
		next := *cloneInvoice(*inv)
		next.TenantID = tn
		next.Items = cur.Items
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		r.s.st.invoices[k] = next
		inv.Version = next.Version
		return nil
	})
}

func (r *InvoiceRepo) ReplaceItems(ctx context.Context, tn tenant.ID, inv *sales.Invoice) error {
	return r.s.do(ctx, func() error {
		k := key{tn, inv.ID}
		cur, ok := r.s.st.invoices[k]
		if !ok {
			return apperror.NewNotFound("invoice", inv.ID)
		}
		items := slices.Clone(inv.Items)
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		cur.Items = items
		r.s.st.invoices[k] = cur
		return nil
	})
}

func (r *InvoiceRepo) Delete(ctx context.Context, tn tenant.ID, invoiceID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, invoiceID}
		if _, ok := r.s.st.invoices[k]; !ok {
			return apperror.NewNotFound("invoice", invoiceID)
		}
		delete(r.s.st.invoices, k)
		return nil
	})
}

func (r *InvoiceRepo) List(ctx context.Context, tn tenant.ID, f sales.ListFilter) (domain.ListResult[*sales.Invoice], error) {
	var rows []*sales.Invoice
	_ = r.s.do(ctx, func() error {
		for k, inv := range r.s.st.invoices {
			if k.tn != tn || !strings.HasPrefix(inv.Number, f.Search) {
				continue
			}
			if f.Status != "" && inv.Status != f.Status {
				continue
			}
			if f.CustomerID != nil && inv.CustomerID != *f.CustomerID {
				continue
			}
			if !f.Period.Contains(inv.Date) {
				continue
			}
			header := inv
			header.Items = nil
			rows = append(rows, &header)
		}
		return nil
	})
	// newest first
	slices.SortFunc(rows, func(a, b *sales.Invoice) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(b.Number, a.Number)
	})
	return page(rows, f.ListFilter, func(inv *sales.Invoice) id.ID { return inv.ID }), nil
}

func (r *InvoiceRepo) NumberExists(ctx context.Context, tn tenant.ID, number string) (bool, error) {
	var found bool
	err := r.s.do(ctx, func() error {
		for k, inv := range r.s.st.invoices {
			if k.tn == tn && inv.Number == number {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

// OrderRepo implements procurement.Repository.
type OrderRepo struct{ s *Store }

var _ procurement.Repository = (*OrderRepo)(nil)

func cloneOrder(po procurement.PurchaseOrder) *procurement.PurchaseOrder {
	po.Items = slices.Clone(po.Items)
	return &po
}

func (r *OrderRepo) Create(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	return r.s.do(ctx, func() error {
		for k, other := range r.s.st.orders {
			if k.tn == tn && other.Reference == po.Reference {
				return apperror.NewDuplicate("purchase order", "reference", po.Reference)
			}
		}
		po.TenantID = tn
		for i := range po.Items {
			po.Items[i].OrderID = po.ID
		}
		r.s.st.orders[key{tn, po.ID}] = *cloneOrder(*po)
		return nil
	})
}

func (r *OrderRepo) GetByID(ctx context.Context, tn tenant.ID, orderID id.ID) (*procurement.PurchaseOrder, error) {
	var out *procurement.PurchaseOrder
	err := r.s.do(ctx, func() error {
		po, ok := r.s.st.orders[key{tn, orderID}]
		if !ok {
			return apperror.NewNotFound("purchase order", orderID)
		}
		out = cloneOrder(po)
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, tn tenant.ID, orderID id.ID) (*procurement.PurchaseOrder, error) {
	return r.GetByID(ctx, tn, orderID)
}

func (r *OrderRepo) Update(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	return r.s.do(ctx, func() error {
		k := key{tn, po.ID}
		cur, ok := r.s.st.orders[k]
		if !ok {
			return apperror.NewNotFound("purchase order", po.ID)
		}
		next := *cloneOrder(*po)
		next.TenantID = tn
		next.Items = cur.Items
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		r.s.st.orders[k] = next
		po.Version = next.Version
		return nil
	})
}

func (r *OrderRepo) ReplaceItems(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	return r.s.do(ctx, func() error {
		k := key{tn, po.ID}
		cur, ok := r.s.st.orders[k]
		if !ok {
			return apperror.NewNotFound("purchase order", po.ID)
		}
		items := slices.Clone(po.Items)
		for i := range items {
			items[i].OrderID = po.ID
		}
		cur.Items = items
		r.s.st.orders[k] = cur
		return nil
	})
}

func (r *OrderRepo) Delete(ctx context.Context, tn tenant.ID, orderID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, orderID}
		if _, ok := r.s.st.orders[k]; !ok {
			return apperror.NewNotFound("purchase order", orderID)
		}
		for pk, p := range r.s.st.payments {
			if pk.tn == tn && p.OrderID == orderID {
				delete(r.s.st.payments, pk)
			}
		}
		delete(r.s.st.orders, k)
		return nil
	})
}

func (r *OrderRepo) List(ctx context.Context, tn tenant.ID, f procurement.ListFilter) (domain.ListResult[*procurement.PurchaseOrder], error) {
	var rows []*procurement.PurchaseOrder
	_ = r.s.do(ctx, func() error {
		for k, po := range r.s.st.orders {
			if k.tn != tn || !strings.HasPrefix(po.Reference, f.Search) {
				continue
			}
			if f.Status != "" && po.Status != f.Status {
				continue
			}
			if f.SupplierID != nil && po.SupplierID != *f.SupplierID {
				continue
			}
			if !f.Period.Contains(po.OrderDate) {
				continue
			}
			header := po
			header.Items = nil
			rows = append(rows, &header)
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b *procurement.PurchaseOrder) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return strings.Compare(b.Reference, a.Reference)
	})
	return page(rows, f.ListFilter, func(po *procurement.PurchaseOrder) id.ID { return po.ID }), nil
}

func (r *OrderRepo) ReferenceExists(ctx context.Context, tn tenant.ID, reference string) (bool, error) {
	var found bool
	err := r.s.do(ctx, func() error {
		for k, po := range r.s.st.orders {
			if k.tn == tn && po.Reference == reference {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *OrderRepo) CreatePayment(ctx context.Context, tn tenant.ID, p *procurement.Payment) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.st.orders[key{tn, p.OrderID}]; !ok {
			return apperror.NewNotFound("purchase order", p.OrderID)
		}
		p.TenantID = tn
		r.s.st.payments[key{tn, p.ID}] = *p
		return nil
	})
}

func (r *OrderRepo) GetPayment(ctx context.Context, tn tenant.ID, paymentID id.ID) (*procurement.Payment, error) {
	var out *procurement.Payment
	err := r.s.do(ctx, func() error {
		p, ok := r.s.st.payments[key{tn, paymentID}]
		if !ok {
			return apperror.NewNotFound("payment", paymentID)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *OrderRepo) ListPayments(ctx context.Context, tn tenant.ID, orderID id.ID) ([]procurement.Payment, error) {
	var rows []procurement.Payment
	err := r.s.do(ctx, func() error {
		for k, p := range r.s.st.payments {
			if k.tn == tn && p.OrderID == orderID {
				rows = append(rows, p)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b procurement.Payment) int {
		if c := a.PaymentDate.Compare(b.PaymentDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return rows, err
}

func (r *OrderRepo) DeletePayment(ctx context.Context, tn tenant.ID, paymentID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, paymentID}
		if _, ok := r.s.st.payments[k]; !ok {
			return apperror.NewNotFound("payment", paymentID)
		}
		delete(r.s.st.payments, k)
		return nil
	})
}
