package dto

import (
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/finance"
)

// ManualTransactionRequest records a user-entered transaction.
type ManualTransactionRequest struct {
	Kind          finance.TransactionKind `json:"kind" binding:"required"`
	CategoryID    id.ID                   `json:"categoryId" binding:"required"`
	Amount        types.Money             `json:"amount"`
	Date          Date                    `json:"date"`
	Description   string                  `json:"description" binding:"required"`
	PaymentMethod string                  `json:"paymentMethod"`
	Reference     string                  `json:"reference"`
}

func (r ManualTransactionRequest) ToInput() finance.ManualInput {
	return finance.ManualInput{
		Kind:          r.Kind,
		CategoryID:    r.CategoryID,
		Amount:        r.Amount,
		Date:          r.Date.Time,
		Description:   r.Description,
		PaymentMethod: r.PaymentMethod,
		Reference:     r.Reference,
	}
}

// FinanceCategoryRequest creates a finance category.
type FinanceCategoryRequest struct {
	Name        string               `json:"name" binding:"required"`
	Kind        finance.CategoryKind `json:"kind" binding:"required"`
	Description string               `json:"description"`
}

// StockAdjustmentRequest corrects a product's stock outside the ledgers.
type StockAdjustmentRequest struct {
	ProductID id.ID                 `json:"productId" binding:"required"`
	Delta     int64                 `json:"delta" binding:"required"`
	Kind      finance.InventoryKind `json:"kind"`
	Note      string                `json:"note"`
}

// DailyRevenueRequest creates or replaces a daily register entry.
type DailyRevenueRequest struct {
	Date           Date        `json:"date"`
	CashSales      types.Money `json:"cashSales"`
	POSSales       types.Money `json:"posSales"`
	ServiceRevenue types.Money `json:"serviceRevenue"`
	PurchaseTotal  types.Money `json:"purchaseTotal"`
	Notes          string      `json:"notes"`
}

func (r DailyRevenueRequest) ToInput() finance.DailyRevenueInput {
	return finance.DailyRevenueInput{
		Date:           r.Date.Time,
		CashSales:      r.CashSales,
		POSSales:       r.POSSales,
		ServiceRevenue: r.ServiceRevenue,
		PurchaseTotal:  r.PurchaseTotal,
		Notes:          r.Notes,
	}
}

// DailyRevenueListResponse lists entries with their totals.
type DailyRevenueListResponse struct {
	Items  []finance.DailyRevenue `json:"items"`
	Totals finance.DailyTotals    `json:"totals"`
}
