package posting

import (
	"context"
	"time"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/events"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
	"trendzportal/pkg/logger"
)

func (e *Engine) onInvoicePaid(ctx context.Context, tn tenant.ID, ev events.InvoicePaid) error {
	inv, err := e.invoices.GetByID(ctx, tn, ev.InvoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "invoice gone, skipping", "tenant_id", tn, "invoice_id", ev.InvoiceID)
			return nil
		}
		return err
	}
	if inv.Status != sales.StatusPaid {
		logger.Info(ctx, "invoice not paid, skipping", "tenant_id", tn, "invoice", inv.Number, "status", inv.Status)
		return nil
	}

	posted, err := e.postTransaction(ctx, tn, sourceTx{
		kind:       finance.KindSaleReceipt,
		category:   CategorySalesRevenue,
		catKind:    finance.CategorySale,
		amount:     inv.GrandTotal,
		date:       inv.Date,
		desc:       "Sales invoice " + inv.Number,
		method:     string(inv.PaymentMode),
		reference:  inv.Number,
		sourceKind: finance.SourceInvoice,
		sourceID:   inv.ID,
	})
	if err != nil {
		return err
	}
	stocked, err := e.postInvoiceMovements(ctx, tn, inv)
	if err != nil {
		return err
	}
	snapped, err := e.snapshotSoldItems(ctx, tn, inv)
	if err != nil {
		return err
	}

	if !posted && !stocked && !snapped {
		logger.Debug(ctx, "invoice already posted", "tenant_id", tn, "invoice", inv.Number)
		return nil
	}
	logger.Info(ctx, "invoice posted", "tenant_id", tn, "invoice", inv.Number,
		"amount", inv.GrandTotal.StringFixed(2), "lines", len(inv.Items))
	return e.enqueue(ctx, tn, inv.Date)
}

func (e *Engine) postInvoiceMovements(ctx context.Context, tn tenant.ID, inv *sales.Invoice) (bool, error) {
	done, err := e.finance.HasInventoryForSource(ctx, tn, finance.SourceInvoice, inv.ID)
	if err != nil || done || len(inv.Items) == 0 {
		return false, err
	}

	now := e.clock.Now()
	rows := make([]finance.InventoryTransaction, 0, len(inv.Items))
	for _, it := range inv.Items {
		p, err := e.products.GetByID(ctx, tn, it.ProductID)
		if err != nil {
			return false, err
		}
		row := finance.InventoryTransaction{
			ID:           id.New(),
			TenantID:     tn,
			ProductID:    it.ProductID,
			Kind:         finance.InventorySale,
			Quantity:     -it.Quantity,
			UnitCost:     p.CostPrice,
			UnitPrice:    it.UnitPrice,
			SourceKind:   finance.SourceInvoice,
			SourceID:     ptr(inv.ID),
			SourceLineID: ptr(it.ID),
			Date:         inv.Date,
			Notes:        "Invoice " + inv.Number,
			CreatedAt:    now,
		}
		row.ComputeTotals()
		rows = append(rows, row)
	}
	return true, e.finance.InsertInventory(ctx, tn, rows)
}

func (e *Engine) snapshotSoldItems(ctx context.Context, tn tenant.ID, inv *sales.Invoice) (bool, error) {
	done, err := e.finance.HasSoldItems(ctx, tn, inv.ID)
	if err != nil || done || len(inv.Items) == 0 {
		return false, err
	}

	sold := e.clock.Now()
	if inv.PaidAt != nil {
		sold = *inv.PaidAt
	}
	categoryNames := make(map[id.ID]string)
	rows := make([]finance.SoldItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		p, err := e.products.GetByID(ctx, tn, it.ProductID)
		if err != nil {
			return false, err
		}
		row := finance.SoldItem{
			ID:            id.New(),
			TenantID:      tn,
			InvoiceID:     inv.ID,
			InvoiceItemID: it.ID,
			ProductID:     p.ID,
			ProductName:   p.Name,
			ProductSKU:    p.SKU,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			DateSold:      sold,
		}
		if p.CategoryID != nil && e.categories != nil {
			name, ok := categoryNames[*p.CategoryID]
			if !ok {
				c, err := e.categories.GetByID(ctx, tn, *p.CategoryID)
				switch {
				case err == nil:
					name = c.Name
				case !apperror.IsNotFound(err):
					return false, err
				}
				categoryNames[*p.CategoryID] = name
			}
			row.CategoryName = name
		}
		rows = append(rows, row)
	}
	return true, e.finance.InsertSoldItems(ctx, tn, rows)
}

func (e *Engine) onInvoiceDeleted(ctx context.Context, tn tenant.ID, ev events.InvoiceDeleted) error {
	removed, err := e.unpost(ctx, tn, finance.SourceInvoice, ev.InvoiceID, ev.Date, true)
	if err != nil || !removed {
		return err
	}
	logger.Info(ctx, "invoice postings removed", "tenant_id", tn, "invoice", ev.Number)
	return e.enqueue(ctx, tn, ev.Date)
}

func (e *Engine) onOrderReceived(ctx context.Context, tn tenant.ID, ev events.PurchaseOrderReceived) error {
	po, err := e.orders.GetByID(ctx, tn, ev.OrderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "purchase order gone, skipping", "tenant_id", tn, "order_id", ev.OrderID)
			return nil
		}
		return err
	}
	if po.Status != procurement.StatusReceived {
		logger.Info(ctx, "purchase order not received, skipping", "tenant_id", tn,
			"reference", po.Reference, "status", po.Status)
		return nil
	}

	posted, err := e.postTransaction(ctx, tn, sourceTx{
		kind:       finance.KindPurchase,
		category:   CategoryInventoryPurchase,
		catKind:    finance.CategoryPurchase,
		amount:     po.Total,
		date:       po.OrderDate,
		desc:       "Purchase order " + po.Reference,
		method:     string(po.PaymentMode),
		reference:  po.Reference,
		sourceKind: finance.SourcePurchaseOrder,
		sourceID:   po.ID,
	})
	if err != nil {
		return err
	}
	stocked, err := e.postOrderMovements(ctx, tn, po)
	if err != nil {
		return err
	}

	if !posted && !stocked {
		logger.Debug(ctx, "purchase order already posted", "tenant_id", tn, "reference", po.Reference)
		return nil
	}
	logger.Info(ctx, "purchase order posted", "tenant_id", tn, "reference", po.Reference,
		"amount", po.Total.StringFixed(2))
	return e.enqueue(ctx, tn, po.OrderDate)
}

func (e *Engine) postOrderMovements(ctx context.Context, tn tenant.ID, po *procurement.PurchaseOrder) (bool, error) {
	done, err := e.finance.HasInventoryForSource(ctx, tn, finance.SourcePurchaseOrder, po.ID)
	if err != nil || done || len(po.Items) == 0 {
		return false, err
	}

	now := e.clock.Now()
	rows := make([]finance.InventoryTransaction, 0, len(po.Items))
	for _, it := range po.Items {
		row := finance.InventoryTransaction{
			ID:           id.New(),
			TenantID:     tn,
			ProductID:    it.ProductID,
			Kind:         finance.InventoryPurchase,
			Quantity:     it.Quantity,
			UnitCost:     it.UnitCost,
			UnitPrice:    types.Zero(),
			SourceKind:   finance.SourcePurchaseOrder,
			SourceID:     ptr(po.ID),
			SourceLineID: ptr(it.ID),
			Date:         po.OrderDate,
			Notes:        "Purchase order " + po.Reference,
			CreatedAt:    now,
		}
		row.ComputeTotals()
		rows = append(rows, row)
	}
	return true, e.finance.InsertInventory(ctx, tn, rows)
}

func (e *Engine) onOrderDeleted(ctx context.Context, tn tenant.ID, ev events.PurchaseOrderDeleted) error {
	removed, err := e.unpost(ctx, tn, finance.SourcePurchaseOrder, ev.OrderID, ev.OrderDate, false)
	if err != nil || !removed {
		return err
	}
	logger.Info(ctx, "purchase order postings removed", "tenant_id", tn, "reference", ev.Reference)
	return e.enqueue(ctx, tn, ev.OrderDate)
}

func (e *Engine) onPaymentRecorded(ctx context.Context, tn tenant.ID, ev events.PaymentRecorded) error {
	pay, err := e.orders.GetPayment(ctx, tn, ev.PaymentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "payment gone, skipping", "tenant_id", tn, "payment_id", ev.PaymentID)
			return nil
		}
		return err
	}
	if !pay.Amount.IsPositive() {
		return nil
	}

	ref := pay.Reference
	if ref == "" {
		po, err := e.orders.GetByID(ctx, tn, pay.OrderID)
		if err != nil {
			return err
		}
		ref = "PAY-" + po.Reference
	}

	posted, err := e.postTransaction(ctx, tn, sourceTx{
		kind:       finance.KindPurchasePayment,
		category:   CategoryPurchasePayments,
		catKind:    finance.CategoryExpense,
		amount:     pay.Amount,
		date:       pay.PaymentDate,
		desc:       "Supplier payment " + ref,
		method:     string(pay.Method),
		reference:  ref,
		sourceKind: finance.SourcePurchasePayment,
		sourceID:   pay.ID,
	})
	if err != nil || !posted {
		return err
	}
	logger.Info(ctx, "payment posted", "tenant_id", tn, "reference", ref, "amount", pay.Amount.StringFixed(2))
	return e.enqueue(ctx, tn, pay.PaymentDate)
}

func (e *Engine) onPaymentDeleted(ctx context.Context, tn tenant.ID, ev events.PaymentDeleted) error {
	removed, err := e.unpost(ctx, tn, finance.SourcePurchasePayment, ev.PaymentID, ev.PaymentDate, false)
	if err != nil || !removed {
		return err
	}
	return e.enqueue(ctx, tn, ev.PaymentDate)
}

type sourceTx struct {
	kind       finance.TransactionKind
	category   string
	catKind    finance.CategoryKind
	amount     types.Money
	date       time.Time
	desc       string
	method     string
	reference  string
	sourceKind finance.SourceKind
	sourceID   id.ID
}

// postTransaction creates the finance transaction of a source unless one exists.
func (e *Engine) postTransaction(ctx context.Context, tn tenant.ID, in sourceTx) (bool, error) {
	_, err := e.finance.FindTransactionBySource(ctx, tn, in.sourceKind, in.sourceID)
	if err == nil {
		return false, nil
	}
	if !apperror.IsNotFound(err) {
		return false, err
	}

	if err := e.policy.Check(ctx, security.Subject{
		Action: security.ActionPost,
		Kind:   string(in.kind),
		Amount: in.amount,
		Date:   in.date,
	}); err != nil {
		return false, err
	}

	cat, err := e.finance.EnsureCategory(ctx, tn, in.category, in.catKind, "Auto-generated "+in.category+" category")
	if err != nil {
		return false, err
	}
	user, err := e.users.SystemUser(ctx, tn)
	if err != nil {
		return false, err
	}

	t := &finance.Transaction{
		ID:            id.New(),
		TenantID:      tn,
		Kind:          in.kind,
		CategoryID:    cat.ID,
		Amount:        types.RoundMoney(in.amount),
		Date:          in.date,
		Description:   in.desc,
		PaymentMethod: in.method,
		Reference:     in.reference,
		SourceKind:    in.sourceKind,
		SourceID:      ptr(in.sourceID),
		AutoGenerated: true,
		CreatedBy:     user.ID.String(),
		CreatedAt:     e.clock.Now(),
	}
	if err := e.finance.CreateTransaction(ctx, tn, t); err != nil {
		if apperror.IsConflict(err) {
			// a concurrent delivery won the unique key
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// unpost removes every row derived from a source. Nothing is checked against
// the policy when nothing was posted.
func (e *Engine) unpost(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID,
	date time.Time, soldItems bool) (bool, error) {
	existing, err := e.finance.FindTransactionBySource(ctx, tn, kind, sourceID)
	if err != nil && !apperror.IsNotFound(err) {
		return false, err
	}
	hasStock, err := e.finance.HasInventoryForSource(ctx, tn, kind, sourceID)
	if err != nil {
		return false, err
	}
	hasSold := false
	if soldItems {
		if hasSold, err = e.finance.HasSoldItems(ctx, tn, sourceID); err != nil {
			return false, err
		}
	}
	if existing == nil && !hasStock && !hasSold {
		return false, nil
	}

	subject := security.Subject{Action: security.ActionUnpost, Date: date, Amount: types.Zero()}
	if existing != nil {
		subject.Kind = string(existing.Kind)
		subject.Amount = existing.Amount
	}
	if err := e.policy.Check(ctx, subject); err != nil {
		return false, err
	}

	if _, err := e.finance.DeleteTransactionsBySource(ctx, tn, kind, sourceID); err != nil {
		return false, err
	}
	if _, err := e.finance.DeleteInventoryBySource(ctx, tn, kind, sourceID); err != nil {
		return false, err
	}
	if soldItems {
		if _, err := e.finance.DeleteSoldItems(ctx, tn, sourceID); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (e *Engine) enqueue(ctx context.Context, tn tenant.ID, date time.Time) error {
	if e.queue == nil {
		return nil
	}
	return e.queue.Enqueue(ctx, tn, finance.PeriodOf(date))
}

func ptr[T any](v T) *T { return &v }
