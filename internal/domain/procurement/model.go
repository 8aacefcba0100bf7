// Package procurement is the purchase order ledger: orders, their lines and
// the payments made against them.
package procurement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusOrdered   Status = "ordered"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// Editable reports whether lines and header may still change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusOrdered
}

var transitions = map[Status][]Status{
	StatusDraft:   {StatusOrdered, StatusCancelled},
	StatusOrdered: {StatusReceived, StatusCancelled},
}

// CanTransition reports whether from → to is an allowed edge.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PaymentMode is the agreed settlement for the order.
type PaymentMode string

const (
	ModeCash   PaymentMode = "cash"
	ModeCredit PaymentMode = "credit"
	ModeBank   PaymentMode = "bank"
	ModeSplit  PaymentMode = "split"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeCredit, ModeBank, ModeSplit:
		return true
	}
	return false
}

// PaymentMethod is how a single payment was made.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCheque   PaymentMethod = "cheque"
	MethodTransfer PaymentMethod = "transfer"
	MethodCard     PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCheque, MethodTransfer, MethodCard:
		return true
	}
	return false
}

// PurchaseOrder is a supplier order. Subtotal and Total are derived.
type PurchaseOrder struct {
	entity.Base

	Reference    string      `db:"reference" json:"reference"`
	SupplierID   id.ID       `db:"supplier_id" json:"supplierId"`
	OrderDate    time.Time   `db:"order_date" json:"orderDate"`
	DeliveryDate time.Time   `db:"delivery_date" json:"deliveryDate"`
	Status       Status      `db:"status" json:"status"`
	PaymentMode  PaymentMode `db:"payment_mode" json:"paymentMode"`
	PaymentDue   *time.Time  `db:"payment_due" json:"paymentDue,omitempty"`

	Tax      types.Money `db:"tax" json:"tax"`
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Total    types.Money `db:"total" json:"total"`

	Notes      string     `db:"notes" json:"notes,omitempty"`
	CreatedBy  *string    `db:"created_by" json:"createdBy,omitempty"`
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`

	Items []PurchaseItem `db:"-" json:"items"`
}

// PurchaseItem is one order line.
type PurchaseItem struct {
	ID        id.ID       `db:"id" json:"id"`
	OrderID   id.ID       `db:"order_id" json:"orderId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
	LineTotal types.Money `db:"line_total" json:"lineTotal"`
}

// RecomputeTotals derives line totals, subtotal and total (subtotal + tax).
func (po *PurchaseOrder) RecomputeTotals() {
	subtotal := decimal.Zero
	for i := range po.Items {
		it := &po.Items[i]
		it.LineNo = i + 1
		it.LineTotal = types.RoundMoney(types.MulQty(it.UnitCost, it.Quantity))
		subtotal = subtotal.Add(it.LineTotal)
	}
	po.Subtotal = subtotal
	po.Total = subtotal.Add(po.Tax)
}

func (po *PurchaseOrder) Validate(_ context.Context) error {
	if id.IsNil(po.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if po.OrderDate.IsZero() {
		return apperror.NewValidation("order date is required").WithDetail("field", "orderDate")
	}
	if !po.DeliveryDate.IsZero() && po.DeliveryDate.Before(po.OrderDate) {
		return apperror.NewValidation("delivery date is before order date").WithDetail("field", "deliveryDate")
	}
	if !po.Status.Valid() {
		return apperror.NewValidation("unknown status").WithDetail("field", "status")
	}
	if !po.PaymentMode.Valid() {
		return apperror.NewValidation("unknown payment mode").WithDetail("field", "paymentMode")
	}
	if po.Tax.IsNegative() {
		return apperror.NewValidation("tax cannot be negative").WithDetail("field", "tax")
	}
	for i, it := range po.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("line product is required").WithDetail("line", i+1)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", i+1)
		}
		if it.UnitCost.IsNegative() {
			return apperror.NewValidation("line unit cost cannot be negative").WithDetail("line", i+1)
		}
	}
	return nil
}

// Payment is money paid to the supplier against an order.
type Payment struct {
	ID          id.ID         `db:"id" json:"id"`
	TenantID    tenant.ID     `db:"tenant_id" json:"-"`
	OrderID     id.ID         `db:"order_id" json:"orderId"`
	Amount      types.Money   `db:"amount" json:"amount"`
	PaymentDate time.Time     `db:"payment_date" json:"paymentDate"`
	Method      PaymentMethod `db:"method" json:"method"`
	Reference   string        `db:"reference" json:"reference,omitempty"`
	Notes       string        `db:"notes" json:"notes,omitempty"`
	CreatedBy   *string       `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// PaymentStatus is derived from the payments made so far.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// PaymentSummary reports how much of an order is settled.
type PaymentSummary struct {
	Total   types.Money   `json:"total"`
	Paid    types.Money   `json:"paid"`
	Balance types.Money   `json:"balance"`
	Status  PaymentStatus `json:"status"`
}

// Summarize derives the payment status of po as of today.
func Summarize(po *PurchaseOrder, payments []Payment, today time.Time) PaymentSummary {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	s := PaymentSummary{Total: po.Total, Paid: paid, Balance: po.Total.Sub(paid)}
	switch {
	case paid.GreaterThanOrEqual(po.Total) && paid.IsPositive():
		s.Status = PaymentPaid
	case paid.IsZero():
		s.Status = PaymentPending
	default:
		s.Status = PaymentPartial
	}
	if s.Status != PaymentPaid && po.PaymentDue != nil && po.PaymentDue.Before(today) {
		s.Status = PaymentOverdue
	}
	if s.Balance.IsNegative() {
		s.Balance = decimal.Zero
	}
	return s
}

// ListFilter narrows order listings. Search matches the reference prefix.
type ListFilter struct {
	domain.ListFilter

	Status     Status
	SupplierID *id.ID
	Period     domain.DateRange
}
