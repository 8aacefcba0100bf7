package finance

import (
	"context"
	"time"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
)

// CategoryStore persists finance categories.
type CategoryStore interface {
	// EnsureCategory returns the (name, kind) category, creating it if missing.
	EnsureCategory(ctx context.Context, tn tenant.ID, name string, kind CategoryKind, description string) (*Category, error)
	GetCategory(ctx context.Context, tn tenant.ID, categoryID id.ID) (*Category, error)
	ListCategories(ctx context.Context, tn tenant.ID, kind CategoryKind) ([]Category, error)
}

// TransactionStore persists finance transactions.
type TransactionStore interface {
	// FindTransactionBySource returns NotFound when nothing was posted for the source.
	FindTransactionBySource(ctx context.Context, tn tenant.ID, kind SourceKind, sourceID id.ID) (*Transaction, error)

	// CreateTransaction fails with a conflict when the provenance is already taken.
	CreateTransaction(ctx context.Context, tn tenant.ID, t *Transaction) error

	GetTransaction(ctx context.Context, tn tenant.ID, txID id.ID) (*Transaction, error)
	DeleteTransaction(ctx context.Context, tn tenant.ID, txID id.ID) error
	DeleteTransactionsBySource(ctx context.Context, tn tenant.ID, kind SourceKind, sourceID id.ID) (int64, error)
	ListTransactions(ctx context.Context, tn tenant.ID, filter TransactionFilter) (domain.ListResult[*Transaction], error)
}

// InventoryStore persists inventory transactions.
type InventoryStore interface {
	InsertInventory(ctx context.Context, tn tenant.ID, rows []InventoryTransaction) error
	HasInventoryForSource(ctx context.Context, tn tenant.ID, kind SourceKind, sourceID id.ID) (bool, error)
	DeleteInventoryBySource(ctx context.Context, tn tenant.ID, kind SourceKind, sourceID id.ID) (int64, error)

	// ListInventory returns a product's movements in the date range, oldest first.
	ListInventory(ctx context.Context, tn tenant.ID, productID id.ID, r domain.DateRange) ([]InventoryTransaction, error)
}

// SoldItemStore persists sold item snapshots.
type SoldItemStore interface {
	InsertSoldItems(ctx context.Context, tn tenant.ID, rows []SoldItem) error
	HasSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) (bool, error)
	DeleteSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) (int64, error)
	ListSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) ([]SoldItem, error)
}

// SummaryStore persists monthly summaries.
type SummaryStore interface {
	// UpsertSummary inserts or replaces the row for (tenant, year, month).
	UpsertSummary(ctx context.Context, tn tenant.ID, s *Summary) error
	GetSummary(ctx context.Context, tn tenant.ID, p Period) (*Summary, error)
	ListSummaries(ctx context.Context, tn tenant.ID, year int) ([]Summary, error)
}

// DailyRevenueStore persists the daily register. One entry per (tenant, date).
type DailyRevenueStore interface {
	CreateDailyRevenue(ctx context.Context, tn tenant.ID, d *DailyRevenue) error
	UpdateDailyRevenue(ctx context.Context, tn tenant.ID, d *DailyRevenue) error
	GetDailyRevenue(ctx context.Context, tn tenant.ID, entryID id.ID) (*DailyRevenue, error)
	DeleteDailyRevenue(ctx context.Context, tn tenant.ID, entryID id.ID) error
	ListDailyRevenue(ctx context.Context, tn tenant.ID, r domain.DateRange) ([]DailyRevenue, error)
}

// Repository is everything the finance package stores.
type Repository interface {
	CategoryStore
	TransactionStore
	InventoryStore
	SoldItemStore
	SummaryStore
	DailyRevenueStore
}

// LedgerTotals are the raw monthly aggregates read from the source ledgers.
type LedgerTotals struct {
	PaidInvoiceSum     types.Money
	PaidInvoiceCount   int64
	ReceivedOrderSum   types.Money
	ReceivedOrderCount int64
	PaymentSum         types.Money
	SaleRevenue        types.Money
	SaleCost           types.Money
}

// LedgerStats reads monthly aggregates. from is inclusive, to exclusive.
type LedgerStats interface {
	MonthTotals(ctx context.Context, tn tenant.ID, from, to time.Time) (LedgerTotals, error)
}
