package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/infrastructure/storage/postgres"
)

const paymentsTable = "purchase_payments"

// PurchaseOrderRepo implements procurement.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*procurement.PurchaseOrder]
	items       lineTable[procurement.PurchaseItem]
	paymentCols []string
}

var _ procurement.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, "purchase_orders", "purchase order",
			postgres.ExtractDBColumns[procurement.PurchaseOrder](),
			func() *procurement.PurchaseOrder { return &procurement.PurchaseOrder{} },
		),
		items:       newLineTable[procurement.PurchaseItem]("purchase_items", "order_id"),
		paymentCols: postgres.ExtractDBColumns[procurement.Payment](),
	}
}

// Create inserts the header and all items.
func (r *PurchaseOrderRepo) Create(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.insertHeader(ctx, tn, po); err != nil {
			return err
		}
		po.TenantID = tn
		return r.writeItems(ctx, tn, po)
	})
}

func (r *PurchaseOrderRepo) writeItems(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	for i := range po.Items {
		po.Items[i].OrderID = po.ID
		if id.IsNil(po.Items[i].ID) {
			po.Items[i].ID = id.New()
		}
	}
	return r.items.replace(ctx, r.querier(ctx), r.inserter, tn, po.ID, po.Items)
}

// GetByID loads the order with its items.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, tn tenant.ID, orderID id.ID) (*procurement.PurchaseOrder, error) {
	return r.load(ctx, tn, orderID, false)
}

// GetForUpdate loads the order with items and locks its row.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, tn tenant.ID, orderID id.ID) (*procurement.PurchaseOrder, error) {
	return r.load(ctx, tn, orderID, true)
}

func (r *PurchaseOrderRepo) load(ctx context.Context, tn tenant.ID, orderID id.ID, lock bool) (*procurement.PurchaseOrder, error) {
	po, err := r.getHeader(ctx, tn, orderID, lock)
	if err != nil {
		return nil, err
	}
	if po.Items, err = r.items.load(ctx, r.querier(ctx), tn, orderID); err != nil {
		return nil, err
	}
	return po, nil
}

// Update writes header fields and totals.
func (r *PurchaseOrderRepo) Update(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	version, err := r.updateHeader(ctx, tn, po)
	if err != nil {
		return err
	}
	po.Version = version
	return nil
}

// ReplaceItems swaps the stored lines for po.Items.
func (r *PurchaseOrderRepo) ReplaceItems(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return r.writeItems(ctx, tn, po)
	})
}

// Delete removes the order; items and payments cascade.
func (r *PurchaseOrderRepo) Delete(ctx context.Context, tn tenant.ID, orderID id.ID) error {
	return r.deleteHeader(ctx, tn, orderID)
}

// List returns headers only, newest first.
func (r *PurchaseOrderRepo) List(ctx context.Context, tn tenant.ID, f procurement.ListFilter) (domain.ListResult[*procurement.PurchaseOrder], error) {
	return r.list(ctx, tn, f.ListFilter, orderListQuery(f))
}

func orderListQuery(f procurement.ListFilter) listQuery {
	where := periodWhere("order_date", f.Period)
	if f.Search != "" {
		where = append(where, prefixWhere("reference", f.Search))
	}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"status": f.Status})
	}
	if f.SupplierID != nil {
		where = append(where, squirrel.Eq{"supplier_id": *f.SupplierID})
	}
	return listQuery{where: where, orderBy: []string{"order_date DESC", "reference DESC"}}
}

// ReferenceExists reports whether reference is taken within the tenant.
func (r *PurchaseOrderRepo) ReferenceExists(ctx context.Context, tn tenant.ID, reference string) (bool, error) {
	return r.exists(ctx, tn, "reference", reference)
}

// CreatePayment inserts p. A missing order fails with NotFound.
func (r *PurchaseOrderRepo) CreatePayment(ctx context.Context, tn tenant.ID, p *procurement.Payment) error {
	data := postgres.StructToMap(p)
	data["tenant_id"] = tn

	sql, args, err := r.Builder().Insert(paymentsTable).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		mapped := postgres.MapError(err, "payment", "insert")
		if apperror.HasCode(mapped, apperror.CodeConflict) {
			return apperror.NewNotFound("purchase order", p.OrderID)
		}
		return mapped
	}
	p.TenantID = tn
	return nil
}

func (r *PurchaseOrderRepo) paymentSelect(tn tenant.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.paymentCols...).
		From(paymentsTable).
		Where(squirrel.Eq{"tenant_id": tn})
}

// GetPayment loads one payment.
func (r *PurchaseOrderRepo) GetPayment(ctx context.Context, tn tenant.ID, paymentID id.ID) (*procurement.Payment, error) {
	sql, args, err := r.paymentSelect(tn).Where(squirrel.Eq{"id": paymentID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var p procurement.Payment
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment", paymentID)
		}
		return nil, postgres.MapError(err, "payment", "get")
	}
	return &p, nil
}

// ListPayments returns the payments of an order by payment date.
func (r *PurchaseOrderRepo) ListPayments(ctx context.Context, tn tenant.ID, orderID id.ID) ([]procurement.Payment, error) {
	sql, args, err := r.paymentSelect(tn).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("payment_date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []procurement.Payment
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return rows, nil
}

// DeletePayment removes one payment.
func (r *PurchaseOrderRepo) DeletePayment(ctx context.Context, tn tenant.ID, paymentID id.ID) error {
	res, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+paymentsTable+" WHERE tenant_id = $1 AND id = $2", tn, paymentID)
	if err != nil {
		return postgres.MapError(err, "payment", "delete")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound("payment", paymentID)
	}
	return nil
}
