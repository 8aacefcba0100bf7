package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/finance"
)

// FinanceRepo implements finance.Repository.
type FinanceRepo struct{ s *Store }

var _ finance.Repository = (*FinanceRepo)(nil)

func (r *FinanceRepo) EnsureCategory(ctx context.Context, tn tenant.ID, name string, kind finance.CategoryKind, description string) (*finance.Category, error) {
	var out *finance.Category
	err := r.s.do(ctx, func() error {
		for k, c := range r.s.st.finCategories {
			if k.tn == tn && c.Kind == kind && c.Name == name {
				out = &c
				return nil
			}
		}
		c := finance.Category{
			ID:          id.New(),
			TenantID:    tn,
			Name:        name,
			Kind:        kind,
			Description: description,
			CreatedAt:   time.Now().UTC(),
		}
		r.s.st.finCategories[key{tn, c.ID}] = c
		out = &c
		return nil
	})
	return out, err
}

func (r *FinanceRepo) GetCategory(ctx context.Context, tn tenant.ID, categoryID id.ID) (*finance.Category, error) {
	var out *finance.Category
	err := r.s.do(ctx, func() error {
		c, ok := r.s.st.finCategories[key{tn, categoryID}]
		if !ok {
			return apperror.NewNotFound("finance category", categoryID)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *FinanceRepo) ListCategories(ctx context.Context, tn tenant.ID, kind finance.CategoryKind) ([]finance.Category, error) {
	var rows []finance.Category
	err := r.s.do(ctx, func() error {
		for k, c := range r.s.st.finCategories {
			if k.tn == tn && (kind == "" || c.Kind == kind) {
				rows = append(rows, c)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b finance.Category) int {
		if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rows, err
}

func (r *FinanceRepo) findBySource(tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (*finance.Transaction, bool) {
	for k, t := range r.s.st.transactions {
		if k.tn == tn && t.SourceKind == kind && t.SourceID != nil && *t.SourceID == sourceID {
			return &t, true
		}
	}
	return nil, false
}

func (r *FinanceRepo) FindTransactionBySource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (*finance.Transaction, error) {
	var out *finance.Transaction
	err := r.s.do(ctx, func() error {
		t, ok := r.findBySource(tn, kind, sourceID)
		if !ok {
			return apperror.NewNotFound("finance transaction", sourceID)
		}
		out = t
		return nil
	})
	return out, err
}

func (r *FinanceRepo) CreateTransaction(ctx context.Context, tn tenant.ID, t *finance.Transaction) error {
	return r.s.do(ctx, func() error {
		if t.SourceKind != finance.SourceManual && t.SourceID != nil {
			if _, ok := r.findBySource(tn, t.SourceKind, *t.SourceID); ok {
				return apperror.NewDuplicate("finance transaction", "source", t.SourceID.String())
			}
		}
		t.TenantID = tn
		r.s.st.transactions[key{tn, t.ID}] = *t
		return nil
	})
}

func (r *FinanceRepo) GetTransaction(ctx context.Context, tn tenant.ID, txID id.ID) (*finance.Transaction, error) {
	var out *finance.Transaction
	err := r.s.do(ctx, func() error {
		t, ok := r.s.st.transactions[key{tn, txID}]
		if !ok {
			return apperror.NewNotFound("finance transaction", txID)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *FinanceRepo) DeleteTransaction(ctx context.Context, tn tenant.ID, txID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, txID}
		if _, ok := r.s.st.transactions[k]; !ok {
			return apperror.NewNotFound("finance transaction", txID)
		}
		delete(r.s.st.transactions, k)
		return nil
	})
}

func (r *FinanceRepo) DeleteTransactionsBySource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (int64, error) {
	var n int64
	err := r.s.do(ctx, func() error {
		for k, t := range r.s.st.transactions {
			if k.tn == tn && t.SourceKind == kind && t.SourceID != nil && *t.SourceID == sourceID {
				delete(r.s.st.transactions, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *FinanceRepo) ListTransactions(ctx context.Context, tn tenant.ID, f finance.TransactionFilter) (domain.ListResult[*finance.Transaction], error) {
	var rows []*finance.Transaction
	_ = r.s.do(ctx, func() error {
		for k, t := range r.s.st.transactions {
			if k.tn != tn || !matches(f.Search, t.Description, t.Reference) {
				continue
			}
			if f.Kind != "" && t.Kind != f.Kind {
				continue
			}
			if f.CategoryID != nil && t.CategoryID != *f.CategoryID {
				continue
			}
			if f.SourceKind != "" && t.SourceKind != f.SourceKind {
				continue
			}
			if !f.Period.Contains(t.Date) {
				continue
			}
			rows = append(rows, &t)
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b *finance.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(rows, f.ListFilter, func(t *finance.Transaction) id.ID { return t.ID }), nil
}

func (r *FinanceRepo) InsertInventory(ctx context.Context, tn tenant.ID, rows []finance.InventoryTransaction) error {
	return r.s.do(ctx, func() error {
		for _, row := range rows {
			if row.SourceLineID != nil {
				for k, other := range r.s.st.inventory {
					if k.tn == tn && other.SourceKind == row.SourceKind &&
						other.SourceLineID != nil && *other.SourceLineID == *row.SourceLineID {
						return apperror.NewDuplicate("inventory transaction", "source_line_id", row.SourceLineID.String())
					}
				}
			}
			row.TenantID = tn
			r.s.st.inventory[key{tn, row.ID}] = row
		}
		return nil
	})
}

func (r *FinanceRepo) HasInventoryForSource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (bool, error) {
	var found bool
	err := r.s.do(ctx, func() error {
		for k, t := range r.s.st.inventory {
			if k.tn == tn && t.SourceKind == kind && t.SourceID != nil && *t.SourceID == sourceID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *FinanceRepo) DeleteInventoryBySource(ctx context.Context, tn tenant.ID, kind finance.SourceKind, sourceID id.ID) (int64, error) {
	var n int64
	err := r.s.do(ctx, func() error {
		for k, t := range r.s.st.inventory {
			if k.tn == tn && t.SourceKind == kind && t.SourceID != nil && *t.SourceID == sourceID {
				delete(r.s.st.inventory, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *FinanceRepo) ListInventory(ctx context.Context, tn tenant.ID, productID id.ID, rng domain.DateRange) ([]finance.InventoryTransaction, error) {
	var rows []finance.InventoryTransaction
	err := r.s.do(ctx, func() error {
		for k, t := range r.s.st.inventory {
			if k.tn == tn && t.ProductID == productID && rng.Contains(t.Date) {
				rows = append(rows, t)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b finance.InventoryTransaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return rows, err
}

func (r *FinanceRepo) InsertSoldItems(ctx context.Context, tn tenant.ID, rows []finance.SoldItem) error {
	return r.s.do(ctx, func() error {
		for _, row := range rows {
			for k, other := range r.s.st.soldItems {
				if k.tn == tn && other.InvoiceItemID == row.InvoiceItemID {
					return apperror.NewDuplicate("sold item", "invoice_item_id", row.InvoiceItemID.String())
				}
			}
			row.TenantID = tn
			r.s.st.soldItems[key{tn, row.ID}] = row
		}
		return nil
	})
}

func (r *FinanceRepo) HasSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) (bool, error) {
	var found bool
	err := r.s.do(ctx, func() error {
		for k, si := range r.s.st.soldItems {
			if k.tn == tn && si.InvoiceID == invoiceID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *FinanceRepo) DeleteSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) (int64, error) {
	var n int64
	err := r.s.do(ctx, func() error {
		for k, si := range r.s.st.soldItems {
			if k.tn == tn && si.InvoiceID == invoiceID {
				delete(r.s.st.soldItems, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *FinanceRepo) ListSoldItems(ctx context.Context, tn tenant.ID, invoiceID id.ID) ([]finance.SoldItem, error) {
	var rows []finance.SoldItem
	err := r.s.do(ctx, func() error {
		for k, si := range r.s.st.soldItems {
			if k.tn == tn && si.InvoiceID == invoiceID {
				rows = append(rows, si)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b finance.SoldItem) int {
		if c := strings.Compare(a.ProductName, b.ProductName); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return rows, err
}

func (r *FinanceRepo) UpsertSummary(ctx context.Context, tn tenant.ID, sm *finance.Summary) error {
	return r.s.do(ctx, func() error {
		sm.TenantID = tn
		r.s.st.summaries[periodKey{tn, sm.Year, sm.Month}] = *sm
		return nil
	})
}

func (r *FinanceRepo) GetSummary(ctx context.Context, tn tenant.ID, p finance.Period) (*finance.Summary, error) {
	var out *finance.Summary
	err := r.s.do(ctx, func() error {
		sm, ok := r.s.st.summaries[periodKey{tn, p.Year, int(p.Month)}]
		if !ok {
			return apperror.NewNotFound("financial summary", p.String())
		}
		out = &sm
		return nil
	})
	return out, err
}

func (r *FinanceRepo) ListSummaries(ctx context.Context, tn tenant.ID, year int) ([]finance.Summary, error) {
	var rows []finance.Summary
	err := r.s.do(ctx, func() error {
		for k, sm := range r.s.st.summaries {
			if k.tn == tn && k.year == year {
				rows = append(rows, sm)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b finance.Summary) int { return a.Month - b.Month })
	return rows, err
}

func (r *FinanceRepo) CreateDailyRevenue(ctx context.Context, tn tenant.ID, d *finance.DailyRevenue) error {
	return r.s.do(ctx, func() error {
		for k, other := range r.s.st.daily {
			if k.tn == tn && other.Date.Equal(d.Date) {
				return apperror.NewDuplicate("daily revenue", "entry_date", d.Date.Format(time.DateOnly))
			}
		}
		d.TenantID = tn
		r.s.st.daily[key{tn, d.ID}] = *d
		return nil
	})
}

func (r *FinanceRepo) UpdateDailyRevenue(ctx context.Context, tn tenant.ID, d *finance.DailyRevenue) error {
	return r.s.do(ctx, func() error {
		k := key{tn, d.ID}
		if _, ok := r.s.st.daily[k]; !ok {
			return apperror.NewNotFound("daily revenue", d.ID)
		}
		for ok2, other := range r.s.st.daily {
			if ok2.tn == tn && ok2.id != d.ID && other.Date.Equal(d.Date) {
				return apperror.NewDuplicate("daily revenue", "entry_date", d.Date.Format(time.DateOnly))
			}
		}
		d.TenantID = tn
		r.s.st.daily[k] = *d
		return nil
	})
}

func (r *FinanceRepo) GetDailyRevenue(ctx context.Context, tn tenant.ID, entryID id.ID) (*finance.DailyRevenue, error) {
	var out *finance.DailyRevenue
	err := r.s.do(ctx, func() error {
		d, ok := r.s.st.daily[key{tn, entryID}]
		if !ok {
			return apperror.NewNotFound("daily revenue", entryID)
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *FinanceRepo) DeleteDailyRevenue(ctx context.Context, tn tenant.ID, entryID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, entryID}
		if _, ok := r.s.st.daily[k]; !ok {
			return apperror.NewNotFound("daily revenue", entryID)
		}
		delete(r.s.st.daily, k)
		return nil
	})
}

func (r *FinanceRepo) ListDailyRevenue(ctx context.Context, tn tenant.ID, rng domain.DateRange) ([]finance.DailyRevenue, error) {
	var rows []finance.DailyRevenue
	err := r.s.do(ctx, func() error {
		for k, d := range r.s.st.daily {
			if k.tn == tn && rng.Contains(d.Date) {
				rows = append(rows, d)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b finance.DailyRevenue) int { return b.Date.Compare(a.Date) })
	return rows, err
}
