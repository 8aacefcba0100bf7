// Package sales is the invoice ledger.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusCancelled},
	StatusSent:  {StatusPaid, StatusCancelled},
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

// Editable reports whether header and lines may still change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusSent
}

// PaymentMode is how the customer settles the invoice.
type PaymentMode string

const (
	PaymentCash  PaymentMode = "cash"
	PaymentPOS   PaymentMode = "pos"
	PaymentSplit PaymentMode = "split"
	PaymentOther PaymentMode = "other"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentPOS, PaymentSplit, PaymentOther:
		return true
	}
	return false
}

// DiscountType selects how DiscountValue is interpreted.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// Invoice is a sales document. Totals are derived by RecomputeTotals.
type Invoice struct {
	entity.Base

	Number     string    `db:"invoice_number" json:"invoiceNumber"`
	CustomerID id.ID     `db:"customer_id" json:"customerId"`
	Date       time.Time `db:"invoice_date" json:"date"`
	DueDate    time.Time `db:"due_date" json:"dueDate"`
	Status     Status    `db:"status" json:"status"`

	PaymentMode PaymentMode `db:"payment_mode" json:"paymentMode"`
	CashAmount  types.Money `db:"cash_amount" json:"cashAmount"`
	POSAmount   types.Money `db:"pos_amount" json:"posAmount"`
	OtherAmount types.Money `db:"other_amount" json:"otherAmount"`
	OtherMethod string      `db:"other_method" json:"otherMethod,omitempty"`

	DiscountType   DiscountType `db:"discount_type" json:"discountType"`
	DiscountValue  types.Money  `db:"discount_value" json:"discountValue"`
	DiscountAmount types.Money  `db:"discount_amount" json:"discountAmount"`

	Tax        types.Money `db:"tax" json:"tax"`
	Subtotal   types.Money `db:"subtotal" json:"subtotal"`
	Total      types.Money `db:"total" json:"total"`
	GrandTotal types.Money `db:"grand_total" json:"grandTotal"`

	Notes     string     `db:"notes" json:"notes,omitempty"`
	CreatedBy *string    `db:"created_by" json:"createdBy,omitempty"`
	PaidAt    *time.Time `db:"paid_at" json:"paidAt,omitempty"`

	Items []InvoiceItem `db:"-" json:"items"`
}

// InvoiceItem is one line. UnitPrice is a snapshot taken when the line is added.
type InvoiceItem struct {
	ID        id.ID       `db:"id" json:"id"`
	InvoiceID id.ID       `db:"invoice_id" json:"invoiceId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	LineTotal types.Money `db:"line_total" json:"lineTotal"`
}

// RecomputeTotals derives line totals, subtotal, discount and grand total.
// A percent discount is capped at subtotal+tax so the grand total never goes negative.
func (inv *Invoice) RecomputeTotals() {
	subtotal := decimal.Zero
	for i := range inv.Items {
		it := &inv.Items[i]
		it.LineNo = i + 1
		it.LineTotal = types.RoundMoney(types.MulQty(it.UnitPrice, it.Quantity))
		subtotal = subtotal.Add(it.LineTotal)
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Add(inv.Tax)

	var discount types.Money
	switch inv.DiscountType {
	case DiscountPercent:
		discount = inv.Total.Mul(inv.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountAmount:
		discount = inv.DiscountValue
	default:
		discount = decimal.Zero
	}
	discount = types.MinMoney(types.RoundMoney(discount), inv.Total)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	inv.DiscountAmount = discount
	inv.GrandTotal = inv.Total.Sub(discount)
}

// SplitSum is cash + pos + other.
func (inv *Invoice) SplitSum() types.Money {
	return types.SumMoney(inv.CashAmount, inv.POSAmount, inv.OtherAmount)
}

// Warnings lists soft problems that do not block saving.
func (inv *Invoice) Warnings() []string {
	var out []string
	if inv.PaymentMode == PaymentSplit && !inv.SplitSum().Equal(inv.GrandTotal) {
		out = append(out, fmt.Sprintf("split payment sum %s does not match grand total %s",
			inv.SplitSum().StringFixed(2), inv.GrandTotal.StringFixed(2)))
	}
	return out
}

// Validate checks header and line invariants.
func (inv *Invoice) Validate(_ context.Context) error {
	if id.IsNil(inv.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if inv.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if !inv.DueDate.IsZero() && inv.DueDate.Before(inv.Date) {
		return apperror.NewValidation("due date is before invoice date").WithDetail("field", "dueDate")
	}
	if !inv.Status.Valid() {
		return apperror.NewValidation("unknown status").WithDetail("field", "status")
	}
	if !inv.PaymentMode.Valid() {
		return apperror.NewValidation("unknown payment mode").WithDetail("field", "paymentMode")
	}
	if inv.DiscountType != DiscountPercent && inv.DiscountType != DiscountAmount {
		return apperror.NewValidation("unknown discount type").WithDetail("field", "discountType")
	}
	for _, m := range []struct {
		field string
		v     types.Money
	}{
		{"tax", inv.Tax},
		{"discountValue", inv.DiscountValue},
		{"cashAmount", inv.CashAmount},
		{"posAmount", inv.POSAmount},
		{"otherAmount", inv.OtherAmount},
	} {
		if m.v.IsNegative() {
			return apperror.NewValidation(m.field + " cannot be negative").WithDetail("field", m.field)
		}
	}
	for i, it := range inv.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("line product is required").WithDetail("line", i+1)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return apperror.NewValidation("line unit price cannot be negative").WithDetail("line", i+1)
		}
	}
	return nil
}

// ListFilter narrows invoice listings. Search matches the invoice number prefix.
type ListFilter struct {
	domain.ListFilter

	Status     Status
	CustomerID *id.ID
	Period     domain.DateRange
}
