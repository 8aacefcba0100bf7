package procurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
)

func TestRecomputeTotals(t *testing.T) {
	po := &PurchaseOrder{
		Tax: types.MustMoney("12.50"),
		Items: []PurchaseItem{
			{ProductID: id.New(), Quantity: 100, UnitCost: types.MustMoney("5.00")},
			{ProductID: id.New(), Quantity: 3, UnitCost: types.MustMoney("0.333")},
		},
	}
	po.RecomputeTotals()

	assert.Equal(t, "500.00", po.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "1.00", po.Items[1].LineTotal.StringFixed(2))
	assert.Equal(t, "501.00", po.Subtotal.StringFixed(2))
	assert.Equal(t, "513.50", po.Total.StringFixed(2))
	assert.Equal(t, 2, po.Items[1].LineNo)
}

func TestSummarize(t *testing.T) {
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	pay := func(amounts ...string) []Payment {
		var out []Payment
		for _, a := range amounts {
			out = append(out, Payment{Amount: types.MustMoney(a)})
		}
		return out
	}

	tests := []struct {
		name        string
		due         *time.Time
		payments    []Payment
		wantStatus  PaymentStatus
		wantBalance string
	}{
		{"nothing paid", nil, nil, PaymentPending, "500.00"},
		{"partial", nil, pay("200"), PaymentPartial, "300.00"},
		{"paid in two", nil, pay("200", "300"), PaymentPaid, "0.00"},
		{"overpaid", nil, pay("600"), PaymentPaid, "0.00"},
		{"overdue", &yesterday, pay("100"), PaymentOverdue, "400.00"},
		{"paid is never overdue", &yesterday, pay("500"), PaymentPaid, "0.00"},
		{"due today is not overdue", &today, nil, PaymentPending, "500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := &PurchaseOrder{Total: types.MustMoney("500.00"), PaymentDue: tt.due}
			s := Summarize(po, tt.payments, today)
			assert.Equal(t, tt.wantStatus, s.Status)
			assert.Equal(t, tt.wantBalance, s.Balance.StringFixed(2))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusOrdered))
	assert.True(t, CanTransition(StatusOrdered, StatusReceived))
	assert.False(t, CanTransition(StatusDraft, StatusReceived))
	assert.False(t, CanTransition(StatusReceived, StatusCancelled))
}
