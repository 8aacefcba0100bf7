package finance

import (
	"context"
	"strings"
	"time"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
	"trendzportal/pkg/logger"
)

// ProductStore is the slice of the catalogue stock adjustments need.
type ProductStore interface {
	GetForUpdate(ctx context.Context, tn tenant.ID, productID id.ID) (*catalog.Product, error)
	SaveStock(ctx context.Context, tn tenant.ID, p *catalog.Product) error
}

// Ledger exposes the finance queries, manual transactions and stock adjustments.
type Ledger struct {
	repo     Repository
	products ProductStore
	txm      tx.Manager
	clock    clock.Clock
}

// NewLedger creates a Ledger.
func NewLedger(repo Repository, products ProductStore, txm tx.Manager, c clock.Clock) *Ledger {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Ledger{repo: repo, products: products, txm: txm, clock: c}
}

// manualKinds maps the kinds a user may record to the category kind they need.
var manualKinds = map[TransactionKind]CategoryKind{
	KindSale:     CategorySale,
	KindExpense:  CategoryExpense,
	KindPurchase: CategoryPurchase,
}

// ManualInput is the payload for RecordManual.
type ManualInput struct {
	Kind          TransactionKind
	CategoryID    id.ID
	Amount        types.Money
	Date          time.Time
	Description   string
	PaymentMethod string
	Reference     string
}

// RecordManual stores a user-entered transaction. The posting engine never touches it.
func (l *Ledger) RecordManual(ctx context.Context, tn tenant.ID, in ManualInput) (*Transaction, error) {
	want, ok := manualKinds[in.Kind]
	if !ok {
		return nil, apperror.NewValidation("kind must be sale, expense or purchase").WithDetail("field", "kind")
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperror.NewValidation("description is required").WithDetail("field", "description")
	}

	t := &Transaction{
		ID:            id.New(),
		TenantID:      tn,
		Kind:          in.Kind,
		CategoryID:    in.CategoryID,
		Amount:        types.RoundMoney(in.Amount),
		Date:          clock.DateOf(in.Date),
		Description:   in.Description,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		SourceKind:    SourceManual,
		CreatedBy:     appctx.GetUserID(ctx),
		CreatedAt:     l.clock.Now(),
	}
	if in.Date.IsZero() {
		t.Date = clock.Today(l.clock)
	}

	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cat, err := l.repo.GetCategory(ctx, tn, in.CategoryID)
		if err != nil {
			return err
		}
		if cat.Kind != want {
			return apperror.NewValidation("category kind does not match transaction kind").
				WithDetail("categoryKind", string(cat.Kind))
		}
		return l.repo.CreateTransaction(ctx, tn, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteManual removes a user-entered transaction. Posted rows are refused.
func (l *Ledger) DeleteManual(ctx context.Context, tn tenant.ID, txID id.ID) error {
	return l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := l.repo.GetTransaction(ctx, tn, txID)
		if err != nil {
			return err
		}
		if t.AutoGenerated || t.SourceKind != SourceManual {
			return apperror.NewForbidden("posted transactions are maintained by the posting engine").
				WithDetail("sourceKind", string(t.SourceKind))
		}
		return l.repo.DeleteTransaction(ctx, tn, txID)
	})
}

// Categories lists finance categories, optionally by kind.
func (l *Ledger) Categories(ctx context.Context, tn tenant.ID, kind CategoryKind) ([]Category, error) {
	return l.repo.ListCategories(ctx, tn, kind)
}

// CreateCategory adds a finance category, returning the existing one for a known (name, kind).
func (l *Ledger) CreateCategory(ctx context.Context, tn tenant.ID, name string, kind CategoryKind, description string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !kind.Valid() {
		return nil, apperror.NewValidation("unknown category kind").WithDetail("field", "kind")
	}
	var out *Category
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.repo.EnsureCategory(ctx, tn, strings.TrimSpace(name), kind, description)
		return err
	})
	return out, err
}

// Transactions lists finance transactions.
func (l *Ledger) Transactions(ctx context.Context, tn tenant.ID, filter TransactionFilter) (domain.ListResult[*Transaction], error) {
	filter.Normalize()
	return l.repo.ListTransactions(ctx, tn, filter)
}

// SoldItems returns the snapshots of a paid invoice.
func (l *Ledger) SoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) ([]SoldItem, error) {
	return l.repo.ListSoldItems(ctx, tn, invoiceID)
}

// InventoryTransactions returns a product's stock movements in the range.
func (l *Ledger) InventoryTransactions(ctx context.Context, tn tenant.ID, productID id.ID, r domain.DateRange) ([]InventoryTransaction, error) {
	return l.repo.ListInventory(ctx, tn, productID, r)
}

// AdjustStock corrects a product's stock by delta and records the movement,
// so stock always equals the initial stock plus the sum of movements.
// kind must be adjustment or return.
func (l *Ledger) AdjustStock(ctx context.Context, tn tenant.ID, productID id.ID, delta int64, kind InventoryKind, note string) (*InventoryTransaction, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("delta must not be zero").WithDetail("field", "delta")
	}
	if kind == "" {
		kind = InventoryAdjustment
	}
	if kind != InventoryAdjustment && kind != InventoryReturn {
		return nil, apperror.NewValidation("kind must be adjustment or return").WithDetail("field", "kind")
	}

	var row InventoryTransaction
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := l.products.GetForUpdate(ctx, tn, productID)
		if err != nil {
			return err
		}
		if p.Stock+delta < 0 {
			return apperror.NewInsufficientStock([]apperror.StockShortage{{
				LineNo:    1,
				ProductID: p.ID.String(),
				Product:   p.Name,
				Requested: -delta,
				Available: p.Stock,
			}})
		}
		p.Stock += delta
		if err := l.products.SaveStock(ctx, tn, p); err != nil {
			return err
		}

		now := l.clock.Now()
		row = InventoryTransaction{
			ID:         id.New(),
			TenantID:   tn,
			ProductID:  p.ID,
			Kind:       kind,
			Quantity:   delta,
			UnitCost:   p.CostPrice,
			UnitPrice:  p.UnitPrice,
			SourceKind: SourceManual,
			Date:       clock.DateOf(now),
			Notes:      note,
			CreatedAt:  now,
		}
		row.ComputeTotals()
		return l.repo.InsertInventory(ctx, tn, []InventoryTransaction{row})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted", "tenant_id", tn, "product_id", productID, "delta", delta, "kind", kind)
	return &row, nil
}
