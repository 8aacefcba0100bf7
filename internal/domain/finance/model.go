// Package finance holds the records derived by the posting engine (finance
// and inventory transactions, sold items, monthly summaries), the summary
// aggregator, manual transactions and the daily revenue register.
package finance

import (
	"time"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
)

// CategoryKind groups finance categories.
type CategoryKind string

const (
	CategorySale     CategoryKind = "sale"
	CategoryPurchase CategoryKind = "purchase"
	CategoryExpense  CategoryKind = "expense"
)

func (k CategoryKind) Valid() bool {
	return k == CategorySale || k == CategoryPurchase || k == CategoryExpense
}

// Category classifies finance transactions. Unique per (tenant, name, kind).
type Category struct {
	ID          id.ID        `db:"id" json:"id"`
	TenantID    tenant.ID    `db:"tenant_id" json:"-"`
	Name        string       `db:"name" json:"name"`
	Kind        CategoryKind `db:"kind" json:"kind"`
	Description string       `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// TransactionKind classifies money movements.
type TransactionKind string

const (
	KindSaleReceipt     TransactionKind = "sale_receipt"
	KindPurchase        TransactionKind = "purchase"
	KindPurchasePayment TransactionKind = "purchase_payment"
	KindSale            TransactionKind = "sale"
	KindExpense         TransactionKind = "expense"
)

// SourceKind names the artifact a derived row came from.
type SourceKind string

const (
	SourceInvoice         SourceKind = "invoice"
	SourcePurchaseOrder   SourceKind = "purchase_order"
	SourcePurchasePayment SourceKind = "purchase_payment"
	SourceManual          SourceKind = "manual"
)

// Transaction is a categorised money movement. For non-manual sources at most
// one row exists per (source kind, source id).
type Transaction struct {
	ID            id.ID           `db:"id" json:"id"`
	TenantID      tenant.ID       `db:"tenant_id" json:"-"`
	Kind          TransactionKind `db:"kind" json:"kind"`
	CategoryID    id.ID           `db:"category_id" json:"categoryId"`
	Amount        types.Money     `db:"amount" json:"amount"`
	Date          time.Time       `db:"tx_date" json:"date"`
	Description   string          `db:"description" json:"description"`
	PaymentMethod string          `db:"payment_method" json:"paymentMethod,omitempty"`
	Reference     string          `db:"reference" json:"reference,omitempty"`
	SourceKind    SourceKind      `db:"source_kind" json:"sourceKind"`
	SourceID      *id.ID          `db:"source_id" json:"sourceId,omitempty"`
	AutoGenerated bool            `db:"auto_generated" json:"autoGenerated"`
	CreatedBy     string          `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// InventoryKind classifies stock movements.
type InventoryKind string

const (
	InventorySale       InventoryKind = "sale"
	InventoryPurchase   InventoryKind = "purchase"
	InventoryAdjustment InventoryKind = "adjustment"
	InventoryReturn     InventoryKind = "return"
)

// InventoryTransaction is a signed stock movement with cost and price snapshots.
// Sales carry negative quantities.
type InventoryTransaction struct {
	ID           id.ID         `db:"id" json:"id"`
	TenantID     tenant.ID     `db:"tenant_id" json:"-"`
	ProductID    id.ID         `db:"product_id" json:"productId"`
	Kind         InventoryKind `db:"kind" json:"kind"`
	Quantity     int64         `db:"quantity" json:"quantity"`
	UnitCost     types.Money   `db:"unit_cost" json:"unitCost"`
	UnitPrice    types.Money   `db:"unit_price" json:"unitPrice"`
	TotalCost    types.Money   `db:"total_cost" json:"totalCost"`
	TotalRevenue types.Money   `db:"total_revenue" json:"totalRevenue"`
	SourceKind   SourceKind    `db:"source_kind" json:"sourceKind"`
	SourceID     *id.ID        `db:"source_id" json:"sourceId,omitempty"`
	SourceLineID *id.ID        `db:"source_line_id" json:"sourceLineId,omitempty"`
	Date         time.Time     `db:"tx_date" json:"date"`
	Notes        string        `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
}

// ComputeTotals fills TotalCost and TotalRevenue from the absolute quantity.
func (t *InventoryTransaction) ComputeTotals() {
	qty := t.Quantity
	if qty < 0 {
		qty = -qty
	}
	t.TotalCost = types.RoundMoney(types.MulQty(t.UnitCost, qty))
	t.TotalRevenue = types.RoundMoney(types.MulQty(t.UnitPrice, qty))
}

// SoldItem is an immutable snapshot of a line on a paid invoice.
type SoldItem struct {
	ID            id.ID       `db:"id" json:"id"`
	TenantID      tenant.ID   `db:"tenant_id" json:"-"`
	InvoiceID     id.ID       `db:"invoice_id" json:"invoiceId"`
	InvoiceItemID id.ID       `db:"invoice_item_id" json:"invoiceItemId"`
	ProductID     id.ID       `db:"product_id" json:"productId"`
	ProductName   string      `db:"product_name" json:"productName"`
	ProductSKU    string      `db:"product_sku" json:"productSku"`
	CategoryName  string      `db:"category_name" json:"categoryName,omitempty"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	DateSold      time.Time   `db:"date_sold" json:"dateSold"`
}

// Summary is the monthly rollup. Exactly one row per (tenant, year, month).
type Summary struct {
	TenantID              tenant.ID   `db:"tenant_id" json:"-"`
	Year                  int         `db:"year" json:"year"`
	Month                 int         `db:"month" json:"month"`
	TotalSales            types.Money `db:"total_sales" json:"totalSales"`
	TotalInvoices         int64       `db:"total_invoices" json:"totalInvoices"`
	AverageSaleValue      types.Money `db:"average_sale_value" json:"averageSaleValue"`
	TotalPurchases        types.Money `db:"total_purchases" json:"totalPurchases"`
	TotalPurchaseOrders   int64       `db:"total_purchase_orders" json:"totalPurchaseOrders"`
	TotalPurchasePayments types.Money `db:"total_purchase_payments" json:"totalPurchasePayments"`
	GrossProfit           types.Money `db:"gross_profit" json:"grossProfit"`
	ProfitMargin          types.Money `db:"profit_margin" json:"profitMargin"`
	CashInflow            types.Money `db:"cash_inflow" json:"cashInflow"`
	CashOutflow           types.Money `db:"cash_outflow" json:"cashOutflow"`
	NetCashFlow           types.Money `db:"net_cash_flow" json:"netCashFlow"`
	UpdatedAt             time.Time   `db:"updated_at" json:"updatedAt"`
}

// Period returns the summary's month.
func (s *Summary) Period() Period {
	return Period{Year: s.Year, Month: time.Month(s.Month)}
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	domain.ListFilter

	Kind       TransactionKind
	CategoryID *id.ID
	SourceKind SourceKind
	Period     domain.DateRange
}
