package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
)

// DailyRevenue is the manually kept daily register. It is not touched by the posting engine.
type DailyRevenue struct {
	ID             id.ID       `db:"id" json:"id"`
	TenantID       tenant.ID   `db:"tenant_id" json:"-"`
	Date           time.Time   `db:"entry_date" json:"date"`
	CashSales      types.Money `db:"cash_sales" json:"cashSales"`
	POSSales       types.Money `db:"pos_sales" json:"posSales"`
	ServiceRevenue types.Money `db:"service_revenue" json:"serviceRevenue"`
	PurchaseTotal  types.Money `db:"purchase_total" json:"purchaseTotal"`
	DailyRevenue   types.Money `db:"daily_revenue" json:"dailyRevenue"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	OwnerID        string      `db:"owner_id" json:"ownerId"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// Recompute sets DailyRevenue = cash + pos + service - purchase.
func (d *DailyRevenue) Recompute() {
	d.DailyRevenue = types.SumMoney(d.CashSales, d.POSSales, d.ServiceRevenue).Sub(d.PurchaseTotal)
}

func (d *DailyRevenue) Validate(_ context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	for field, v := range map[string]types.Money{
		"cashSales":      d.CashSales,
		"posSales":       d.POSSales,
		"serviceRevenue": d.ServiceRevenue,
		"purchaseTotal":  d.PurchaseTotal,
	} {
		if v.IsNegative() {
			return apperror.NewValidation(field + " cannot be negative").WithDetail("field", field)
		}
	}
	return nil
}

// DailyRevenueInput is the editable part of an entry.
type DailyRevenueInput struct {
	Date           time.Time
	CashSales      types.Money
	POSSales       types.Money
	ServiceRevenue types.Money
	PurchaseTotal  types.Money
	Notes          string
}

// DailyTotals sums a range of register entries.
type DailyTotals struct {
	Days           int         `json:"days"`
	CashSales      types.Money `json:"cashSales"`
	POSSales       types.Money `json:"posSales"`
	ServiceRevenue types.Money `json:"serviceRevenue"`
	PurchaseTotal  types.Money `json:"purchaseTotal"`
	DailyRevenue   types.Money `json:"dailyRevenue"`
}

// DailyRevenueService manages the daily register.
type DailyRevenueService struct {
	store DailyRevenueStore
	txm   tx.Manager
	clock clock.Clock
}

func NewDailyRevenueService(store DailyRevenueStore, txm tx.Manager, c clock.Clock) *DailyRevenueService {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &DailyRevenueService{store: store, txm: txm, clock: c}
}

func (s *DailyRevenueService) apply(d *DailyRevenue, in DailyRevenueInput) {
	d.Date = clock.DateOf(in.Date)
	if in.Date.IsZero() {
		d.Date = clock.Today(s.clock)
	}
	d.CashSales = types.RoundMoney(in.CashSales)
	d.POSSales = types.RoundMoney(in.POSSales)
	d.ServiceRevenue = types.RoundMoney(in.ServiceRevenue)
	d.PurchaseTotal = types.RoundMoney(in.PurchaseTotal)
	d.Notes = in.Notes
	d.Recompute()
}

// Create records a day. A second entry for the same date is a duplicate.
func (s *DailyRevenueService) Create(ctx context.Context, tn tenant.ID, in DailyRevenueInput) (*DailyRevenue, error) {
	now := s.clock.Now()
	d := &DailyRevenue{
		ID:        id.New(),
		TenantID:  tn,
		OwnerID:   appctx.GetUserID(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.apply(d, in)
	if err := d.Validate(ctx); err != nil {
		return nil, err
	}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.CreateDailyRevenue(ctx, tn, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Update rewrites an entry.
func (s *DailyRevenueService) Update(ctx context.Context, tn tenant.ID, entryID id.ID, in DailyRevenueInput) (*DailyRevenue, error) {
	var d *DailyRevenue
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.store.GetDailyRevenue(ctx, tn, entryID)
		if err != nil {
			return err
		}
		s.apply(d, in)
		if err := d.Validate(ctx); err != nil {
			return err
		}
		d.UpdatedAt = s.clock.Now()
		return s.store.UpdateDailyRevenue(ctx, tn, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DailyRevenueService) Get(ctx context.Context, tn tenant.ID, entryID id.ID) (*DailyRevenue, error) {
	return s.store.GetDailyRevenue(ctx, tn, entryID)
}

func (s *DailyRevenueService) Delete(ctx context.Context, tn tenant.ID, entryID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.DeleteDailyRevenue(ctx, tn, entryID)
	})
}

// List returns entries in the range ordered by date.
func (s *DailyRevenueService) List(ctx context.Context, tn tenant.ID, r domain.DateRange) ([]DailyRevenue, error) {
	return s.store.ListDailyRevenue(ctx, tn, r)
}

// Totals sums the entries in the range.
func (s *DailyRevenueService) Totals(ctx context.Context, tn tenant.ID, r domain.DateRange) (DailyTotals, error) {
	rows, err := s.store.ListDailyRevenue(ctx, tn, r)
	if err != nil {
		return DailyTotals{}, err
	}
	t := DailyTotals{
		CashSales:      decimal.Zero,
		POSSales:       decimal.Zero,
		ServiceRevenue: decimal.Zero,
		PurchaseTotal:  decimal.Zero,
		DailyRevenue:   decimal.Zero,
	}
	for _, d := range rows {
		t.Days++
		t.CashSales = t.CashSales.Add(d.CashSales)
		t.POSSales = t.POSSales.Add(d.POSSales)
		t.ServiceRevenue = t.ServiceRevenue.Add(d.ServiceRevenue)
		t.PurchaseTotal = t.PurchaseTotal.Add(d.PurchaseTotal)
		t.DailyRevenue = t.DailyRevenue.Add(d.DailyRevenue)
	}
	return t, nil
}
