package posting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trendzportal/internal/app"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/storage/memory"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	ctx   context.Context
	tn    tenant.ID
	clock *clock.Fixed
	store *memory.Store
	svc   *app.Services
}

func newHarness(t *testing.T, opts ...func(*app.Options)) *harness {
	t.Helper()
	store := memory.New()
	c := clock.NewFixed(testNow)
	o := app.Options{Clock: c, JWT: identity.DefaultJWTConfig("test")}
	for _, fn := range opts {
		fn(&o)
	}
	return &harness{
		t:     t,
		ctx:   context.Background(),
		tn:    tenant.ID("7c0e8f3a-5d7e-4a55-9c43-2f9b6a1d0e11"),
		clock: c,
		store: store,
		svc:   app.NewServices(app.MemoryStorage(store), o),
	}
}

func money(s string) types.Money { return types.MustMoney(s) }

func (h *harness) product(name, cost, unit string, stock int64) *catalog.Product {
	h.t.Helper()
	p := catalog.NewProduct(name, "SKU-"+name, money(cost), money(unit))
	p.Stock = stock
	require.NoError(h.t, h.svc.Catalog.Products.Create(h.ctx, h.tn, p))
	return p
}

func (h *harness) reload(p *catalog.Product) *catalog.Product {
	h.t.Helper()
	got, err := h.svc.Catalog.GetProduct(h.ctx, h.tn, p.ID)
	require.NoError(h.t, err)
	return got
}

func (h *harness) supplier() *catalog.Supplier {
	h.t.Helper()
	s := &catalog.Supplier{Base: entity.NewBase(), Name: "Acme Wholesale", IsActive: true}
	require.NoError(h.t, h.svc.Catalog.Suppliers.Create(h.ctx, h.tn, s))
	return s
}

func (h *harness) invoice(lines ...sales.ItemInput) *sales.Invoice {
	h.t.Helper()
	inv, err := h.svc.Sales.Create(h.ctx, h.tn, sales.CreateInput{
		Header: sales.Header{Date: testNow},
		Items:  lines,
	})
	require.NoError(h.t, err)
	return inv
}

func (h *harness) pay(inv *sales.Invoice) *sales.Invoice {
	h.t.Helper()
	_, err := h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusSent)
	require.NoError(h.t, err)
	paid, err := h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusPaid)
	require.NoError(h.t, err)
	return paid
}

func (h *harness) order(supplierID id.ID, date time.Time, lines ...procurement.ItemInput) *procurement.PurchaseOrder {
	h.t.Helper()
	po, err := h.svc.Procurement.Create(h.ctx, h.tn, procurement.CreateInput{
		Header: procurement.Header{SupplierID: supplierID, OrderDate: date},
		Items:  lines,
	})
	require.NoError(h.t, err)
	return po
}

func (h *harness) receive(po *procurement.PurchaseOrder) *procurement.PurchaseOrder {
	h.t.Helper()
	_, err := h.svc.Procurement.SetStatus(h.ctx, h.tn, po.ID, procurement.StatusOrdered)
	require.NoError(h.t, err)
	got, err := h.svc.Procurement.SetStatus(h.ctx, h.tn, po.ID, procurement.StatusReceived)
	require.NoError(h.t, err)
	return got
}

func (h *harness) transactions(kind finance.SourceKind, sourceID id.ID) []*finance.Transaction {
	h.t.Helper()
	res, err := h.svc.Ledger.Transactions(h.ctx, h.tn, finance.TransactionFilter{
		ListFilter: domain.ListFilter{Limit: 500},
		SourceKind: kind,
	})
	require.NoError(h.t, err)
	var out []*finance.Transaction
	for _, t := range res.Items {
		if t.SourceID != nil && *t.SourceID == sourceID {
			out = append(out, t)
		}
	}
	return out
}

func (h *harness) movements(productID id.ID) []finance.InventoryTransaction {
	h.t.Helper()
	rows, err := h.svc.Ledger.InventoryTransactions(h.ctx, h.tn, productID, domain.DateRange{})
	require.NoError(h.t, err)
	return rows
}

func (h *harness) summary(date time.Time) *finance.Summary {
	h.t.Helper()
	s, err := h.svc.Aggregator.Get(h.ctx, h.tn, finance.PeriodOf(date))
	require.NoError(h.t, err)
	return s
}

func line(p *catalog.Product, qty int64) sales.ItemInput {
	return sales.ItemInput{ProductID: p.ID, Quantity: qty}
}

func costLine(p *catalog.Product, qty int64, cost string) procurement.ItemInput {
	return procurement.ItemInput{ProductID: p.ID, Quantity: qty, UnitCost: money(cost)}
}
