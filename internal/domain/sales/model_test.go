package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
)

func sampleInvoice(lines ...InvoiceItem) *Invoice {
	return &Invoice{
		CustomerID:   id.New(),
		Date:         time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		Status:       StatusDraft,
		PaymentMode:  PaymentCash,
		DiscountType: DiscountPercent,
		Items:        lines,
	}
}

func item(qty int64, price string) InvoiceItem {
	return InvoiceItem{ID: id.New(), ProductID: id.New(), Quantity: qty, UnitPrice: types.MustMoney(price)}
}

func TestRecomputeTotals(t *testing.T) {
	tests := []struct {
		name          string
		discountType  DiscountType
		discountValue string
		tax           string
		wantDiscount  string
		wantGrand     string
	}{
		{"no discount", DiscountPercent, "0", "0", "0.00", "60.00"},
		{"percent of subtotal plus tax", DiscountPercent, "10", "40", "10.00", "90.00"},
		{"amount", DiscountAmount, "15", "0", "15.00", "45.00"},
		{"amount clamped", DiscountAmount, "500", "0", "60.00", "0.00"},
		{"percent clamped", DiscountPercent, "150", "0", "60.00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := sampleInvoice(item(2, "25.00"), item(1, "10.00"))
			inv.DiscountType = tt.discountType
			inv.DiscountValue = types.MustMoney(tt.discountValue)
			inv.Tax = types.MustMoney(tt.tax)

			inv.RecomputeTotals()

			assert.Equal(t, "60.00", inv.Subtotal.StringFixed(2))
			assert.Equal(t, tt.wantDiscount, inv.DiscountAmount.StringFixed(2))
			assert.Equal(t, tt.wantGrand, inv.GrandTotal.StringFixed(2))
			assert.False(t, inv.GrandTotal.IsNegative())
			assert.Equal(t, 1, inv.Items[0].LineNo)
			assert.Equal(t, 2, inv.Items[1].LineNo)
			assert.Equal(t, "50.00", inv.Items[0].LineTotal.StringFixed(2))
		})
	}
}

func TestWarnings(t *testing.T) {
	inv := sampleInvoice(item(1, "100.00"))
	inv.PaymentMode = PaymentSplit
	inv.CashAmount = types.MustMoney("60")
	inv.POSAmount = types.MustMoney("30")
	inv.RecomputeTotals()

	require.Len(t, inv.Warnings(), 1)

	inv.OtherAmount = types.MustMoney("10")
	assert.Empty(t, inv.Warnings())
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	inv := sampleInvoice(item(1, "1.00"))
	require.NoError(t, inv.Validate(ctx))

	bad := sampleInvoice(item(0, "1.00"))
	assert.True(t, apperror.HasCode(bad.Validate(ctx), apperror.CodeValidation))

	bad = sampleInvoice(item(1, "1.00"))
	bad.DueDate = bad.Date.AddDate(0, 0, -1)
	assert.True(t, apperror.HasCode(bad.Validate(ctx), apperror.CodeValidation))

	bad = sampleInvoice(item(1, "1.00"))
	bad.Tax = types.MustMoney("-1")
	err := bad.Validate(ctx)
	ae, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "tax", ae.Details["field"])
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusSent))
	assert.True(t, CanTransition(StatusSent, StatusPaid))
	assert.True(t, CanTransition(StatusDraft, StatusCancelled))
	assert.False(t, CanTransition(StatusDraft, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusDraft))
	assert.False(t, StatusPaid.Editable())
}
