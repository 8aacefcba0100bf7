package posting_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/app"
	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/events"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/domain/posting"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/storage/memory"
)

func TestPaidInvoice(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "10.00", "25.00", 5)

	inv := h.invoice(line(p, 2))
	assert.Equal(t, "50.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "50.00", inv.GrandTotal.StringFixed(2))

	inv = h.pay(inv)
	assert.Equal(t, sales.StatusPaid, inv.Status)
	assert.EqualValues(t, 3, h.reload(p).Stock)

	txs := h.transactions(finance.SourceInvoice, inv.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, finance.KindSaleReceipt, txs[0].Kind)
	assert.Equal(t, "50.00", txs[0].Amount.StringFixed(2))
	assert.Equal(t, inv.Number, txs[0].Reference)
	assert.True(t, txs[0].AutoGenerated)

	cat, err := h.svc.Ledger.Categories(h.ctx, h.tn, finance.CategorySale)
	require.NoError(t, err)
	require.Len(t, cat, 1)
	assert.Equal(t, posting.CategorySalesRevenue, cat[0].Name)
	assert.Equal(t, cat[0].ID, txs[0].CategoryID)

	moves := h.movements(p.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, finance.InventorySale, moves[0].Kind)
	assert.EqualValues(t, -2, moves[0].Quantity)
	assert.Equal(t, "20.00", moves[0].TotalCost.StringFixed(2))
	assert.Equal(t, "50.00", moves[0].TotalRevenue.StringFixed(2))

	sold, err := h.svc.Ledger.SoldItems(h.ctx, h.tn, inv.ID)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.EqualValues(t, 2, sold[0].Quantity)
	assert.Equal(t, "P", sold[0].ProductName)

	s := h.summary(inv.Date)
	assert.Equal(t, "50.00", s.TotalSales.StringFixed(2))
	assert.Equal(t, "30.00", s.GrossProfit.StringFixed(2))
	assert.EqualValues(t, 1, s.TotalInvoices)
}

func TestPostedRowsAttributedToSystemUser(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "1.00", "2.00", 1)
	inv := h.pay(h.invoice(line(p, 1)))

	sys, err := h.svc.Identity.SystemUser(h.ctx, h.tn)
	require.NoError(t, err)
	assert.True(t, sys.IsSystem)
	assert.Error(t, sys.CanLogin())

	txs := h.transactions(finance.SourceInvoice, inv.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, sys.ID.String(), txs[0].CreatedBy)
}

func TestReceivedOrder(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	sup := h.supplier()

	po := h.order(sup.ID, testNow, costLine(q, 100, "5.00"))
	assert.Equal(t, "500.00", po.Total.StringFixed(2))
	assert.Equal(t, "PO-2026-00001", po.Reference)

	po = h.receive(po)
	got := h.reload(q)
	assert.EqualValues(t, 100, got.Stock)
	assert.Equal(t, "5.00", got.CostPrice.StringFixed(2))

	txs := h.transactions(finance.SourcePurchaseOrder, po.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, finance.KindPurchase, txs[0].Kind)
	assert.Equal(t, "500.00", txs[0].Amount.StringFixed(2))

	moves := h.movements(q.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, finance.InventoryPurchase, moves[0].Kind)
	assert.EqualValues(t, 100, moves[0].Quantity)

	assert.Equal(t, "500.00", h.summary(po.OrderDate).TotalPurchases.StringFixed(2))
}

func TestReceivedTwice(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	po := h.receive(h.order(h.supplier().ID, testNow, costLine(q, 10, "5.00")))

	again, err := h.svc.Procurement.SetStatus(h.ctx, h.tn, po.ID, procurement.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, procurement.StatusReceived, again.Status)

	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, events.PurchaseOrderReceived{OrderID: po.ID}))

	assert.EqualValues(t, 10, h.reload(q).Stock)
	assert.Len(t, h.transactions(finance.SourcePurchaseOrder, po.ID), 1)
	assert.Len(t, h.movements(q.ID), 1)
}

func TestPayment(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	po := h.receive(h.order(h.supplier().ID, testNow, costLine(q, 100, "5.00")))

	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	pay, err := h.svc.Procurement.RecordPayment(h.ctx, h.tn, po.ID, procurement.PaymentInput{
		Amount: money("200.00"),
		Date:   day,
	})
	require.NoError(t, err)

	txs := h.transactions(finance.SourcePurchasePayment, pay.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, finance.KindPurchasePayment, txs[0].Kind)
	assert.Equal(t, "200.00", txs[0].Amount.StringFixed(2))
	assert.True(t, day.Equal(txs[0].Date))
	assert.Equal(t, "PAY-"+po.Reference, txs[0].Reference)

	status, err := h.svc.Procurement.PaymentSummary(h.ctx, h.tn, po.ID)
	require.NoError(t, err)
	assert.Equal(t, procurement.PaymentPartial, status.Status)
	assert.Equal(t, "300.00", status.Balance.StringFixed(2))

	s := h.summary(day)
	assert.Equal(t, "200.00", s.TotalPurchasePayments.StringFixed(2))
	assert.Equal(t, "-200.00", s.NetCashFlow.StringFixed(2))
}

func TestZeroPaymentPostsNothing(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	po := h.order(h.supplier().ID, testNow, costLine(q, 1, "5.00"))

	_, err := h.svc.Procurement.RecordPayment(h.ctx, h.tn, po.ID, procurement.PaymentInput{Amount: money("0")})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	// a zero row written behind the service's back is ignored by the engine
	zero := &procurement.Payment{ID: id.New(), OrderID: po.ID, Amount: money("0"), PaymentDate: testNow}
	require.NoError(t, h.store.Orders().CreatePayment(h.ctx, h.tn, zero))
	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, events.PaymentRecorded{PaymentID: zero.ID}))
	assert.Empty(t, h.transactions(finance.SourcePurchasePayment, zero.ID))
}

func TestDeletePaidInvoice(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "10.00", "25.00", 5)
	inv := h.pay(h.invoice(line(p, 2)))
	require.Equal(t, "50.00", h.summary(inv.Date).TotalSales.StringFixed(2))

	require.NoError(t, h.svc.Sales.Delete(h.ctx, h.tn, inv.ID))

	assert.Empty(t, h.transactions(finance.SourceInvoice, inv.ID))
	assert.Empty(t, h.movements(p.ID))
	sold, err := h.svc.Ledger.SoldItems(h.ctx, h.tn, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, sold)

	s := h.summary(inv.Date)
	assert.True(t, s.TotalSales.IsZero())
	assert.True(t, s.GrossProfit.IsZero())
	assert.EqualValues(t, 5, h.reload(p).Stock)

	_, err = h.svc.Sales.Get(h.ctx, h.tn, inv.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteReceivedOrder(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	po := h.receive(h.order(h.supplier().ID, testNow, costLine(q, 10, "5.00")))
	pay, err := h.svc.Procurement.RecordPayment(h.ctx, h.tn, po.ID, procurement.PaymentInput{Amount: money("20.00")})
	require.NoError(t, err)

	require.NoError(t, h.svc.Procurement.Delete(h.ctx, h.tn, po.ID))

	assert.Empty(t, h.transactions(finance.SourcePurchaseOrder, po.ID))
	assert.Empty(t, h.transactions(finance.SourcePurchasePayment, pay.ID))
	assert.Empty(t, h.movements(q.ID))
	got := h.reload(q)
	assert.EqualValues(t, 0, got.Stock)
	assert.Equal(t, "5.00", got.CostPrice.StringFixed(2), "cost price is not restored")

	s := h.summary(po.OrderDate)
	assert.True(t, s.TotalPurchases.IsZero())
	assert.True(t, s.TotalPurchasePayments.IsZero())
}

func TestDeleteReceivedOrderAfterSale(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	po := h.receive(h.order(h.supplier().ID, testNow, costLine(q, 3, "5.00")))
	h.pay(h.invoice(line(q, 2)))

	err := h.svc.Procurement.Delete(h.ctx, h.tn, po.ID)
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	assert.Len(t, h.transactions(finance.SourcePurchaseOrder, po.ID), 1)
	assert.EqualValues(t, 1, h.reload(q).Stock)
}

func TestDeletePayment(t *testing.T) {
	h := newHarness(t)
	q := h.product("Q", "4.00", "9.00", 0)
	po := h.order(h.supplier().ID, testNow, costLine(q, 10, "5.00"))
	pay, err := h.svc.Procurement.RecordPayment(h.ctx, h.tn, po.ID, procurement.PaymentInput{Amount: money("15.00")})
	require.NoError(t, err)

	require.NoError(t, h.svc.Procurement.DeletePayment(h.ctx, h.tn, pay.ID))
	assert.Empty(t, h.transactions(finance.SourcePurchasePayment, pay.ID))
	assert.True(t, h.summary(pay.PaymentDate).TotalPurchasePayments.IsZero())
}

func TestIdempotentReplay(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "10.00", "25.00", 5)
	inv := h.pay(h.invoice(line(p, 2)))

	ev := events.InvoicePaid{InvoiceID: inv.ID}
	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, ev))
	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, ev))
	require.NoError(t, h.svc.Engine.Replay(h.ctx, h.tn, ev))

	assert.Len(t, h.transactions(finance.SourceInvoice, inv.ID), 1)
	assert.Len(t, h.movements(p.ID), 1)
	sold, err := h.svc.Ledger.SoldItems(h.ctx, h.tn, inv.ID)
	require.NoError(t, err)
	assert.Len(t, sold, 1)
	assert.Equal(t, "50.00", h.summary(inv.Date).TotalSales.StringFixed(2))
}

func TestInvoicePaidSkippedWhenNotPaid(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "10.00", "25.00", 5)
	inv := h.invoice(line(p, 1))

	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, events.InvoicePaid{InvoiceID: inv.ID}))
	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, events.InvoicePaid{InvoiceID: id.New()}))

	assert.Empty(t, h.transactions(finance.SourceInvoice, inv.ID))
	assert.Empty(t, h.movements(p.ID))
}

func TestInsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t)
	a := h.product("A", "1.00", "2.00", 1)
	b := h.product("B", "1.00", "2.00", 10)
	c := h.product("C", "1.00", "2.00", 0)
	inv := h.invoice(line(a, 3), line(b, 2), line(c, 1))
	_, err := h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusSent)
	require.NoError(t, err)

	_, err = h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusPaid)
	require.Error(t, err)
	ae, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, ae.Code)
	lines, ok := ae.Details["lines"].([]apperror.StockShortage)
	require.True(t, ok)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].LineNo)
	assert.Equal(t, 3, lines[1].LineNo)

	got, err := h.svc.Sales.Get(h.ctx, h.tn, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusSent, got.Status)
	assert.EqualValues(t, 10, h.reload(b).Stock)
	assert.Empty(t, h.transactions(finance.SourceInvoice, inv.ID))
}

func TestInvalidTransition(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "1.00", "2.00", 5)
	inv := h.invoice(line(p, 1))

	_, err := h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusPaid)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	h.pay(inv)
	_, err = h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusCancelled)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestClosedPeriodBlocksPosting(t *testing.T) {
	closed := security.ClosedPeriodPolicy{ClosedUntil: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	h := newHarness(t, func(o *app.Options) { o.Policy = closed })
	p := h.product("P", "1.00", "2.00", 5)

	inv, err := h.svc.Sales.Create(h.ctx, h.tn, sales.CreateInput{
		Header: sales.Header{Date: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)},
		Items:  []sales.ItemInput{line(p, 1)},
	})
	require.NoError(t, err)
	_, err = h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusSent)
	require.NoError(t, err)

	_, err = h.svc.Sales.SetStatus(h.ctx, h.tn, inv.ID, sales.StatusPaid)
	assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))
	assert.EqualValues(t, 5, h.reload(p).Stock, "source transition rolled back with the posting")
}

func TestRulePolicyRejectsLargeExpense(t *testing.T) {
	rules, err := security.NewRulePolicy(`kind != "purchase_payment" || amount <= 1000.0`)
	require.NoError(t, err)
	h := newHarness(t, func(o *app.Options) { o.Policy = rules })
	q := h.product("Q", "1.00", "2.00", 0)
	po := h.order(h.supplier().ID, testNow, costLine(q, 1000, "5.00"))

	_, err = h.svc.Procurement.RecordPayment(h.ctx, h.tn, po.ID, procurement.PaymentInput{Amount: money("1500.00")})
	assert.True(t, apperror.HasCode(err, apperror.CodePostingRule))

	payments, err := h.svc.Procurement.ListPayments(h.ctx, h.tn, po.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

type logRecorder struct {
	mu    sync.Mutex
	names []string
}

func (l *logRecorder) Append(_ context.Context, _ tenant.ID, ev events.Event) error {
	l.mu.Lock()
	l.names = append(l.names, ev.EventName())
	l.mu.Unlock()
	return nil
}

func TestEventLog(t *testing.T) {
	log := &logRecorder{}
	h := newHarness(t, func(o *app.Options) { o.EventLog = log })
	p := h.product("P", "1.00", "2.00", 5)
	inv := h.pay(h.invoice(line(p, 1)))
	require.NoError(t, h.svc.Engine.Replay(h.ctx, h.tn, events.InvoicePaid{InvoiceID: inv.ID}))
	require.NoError(t, h.svc.Sales.Delete(h.ctx, h.tn, inv.ID))

	assert.Equal(t, []string{events.NameInvoicePaid, events.NameInvoiceDeleted}, log.names)
}

// sourceLog records whether the deleted source row was still present when
// its delete event was logged.
type sourceLog struct {
	store   *memory.Store
	present map[string]bool
}

func (l *sourceLog) Append(ctx context.Context, tn tenant.ID, ev events.Event) error {
	var err error
	switch ev := ev.(type) {
	case events.InvoiceDeleted:
		_, err = l.store.Invoices().GetByID(ctx, tn, ev.InvoiceID)
	case events.PurchaseOrderDeleted:
		_, err = l.store.Orders().GetByID(ctx, tn, ev.OrderID)
	case events.PaymentDeleted:
		_, err = l.store.Orders().GetPayment(ctx, tn, ev.PaymentID)
	default:
		return nil
	}
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	l.present[ev.EventName()] = err == nil
	return nil
}

func TestDeleteEventsPrecedeRowRemoval(t *testing.T) {
	log := &sourceLog{present: map[string]bool{}}
	h := newHarness(t, func(o *app.Options) { o.EventLog = log })
	log.store = h.store

	p := h.product("P", "10.00", "25.00", 5)
	inv := h.pay(h.invoice(line(p, 2)))
	require.NoError(t, h.svc.Sales.Delete(h.ctx, h.tn, inv.ID))

	q := h.product("Q", "4.00", "9.00", 0)
	po := h.receive(h.order(h.supplier().ID, testNow, costLine(q, 10, "5.00")))
	_, err := h.svc.Procurement.RecordPayment(h.ctx, h.tn, po.ID, procurement.PaymentInput{Amount: money("20.00")})
	require.NoError(t, err)
	require.NoError(t, h.svc.Procurement.Delete(h.ctx, h.tn, po.ID))

	assert.Equal(t, map[string]bool{
		events.NameInvoiceDeleted:       true,
		events.NamePurchaseOrderDeleted: true,
		events.NamePaymentDeleted:       true,
	}, log.present)

	// the recompute at commit no longer sees the removed documents
	s := h.summary(testNow)
	assert.True(t, s.TotalSales.IsZero())
	assert.True(t, s.TotalPurchases.IsZero())
	assert.EqualValues(t, 0, s.TotalInvoices)
}

type countingQueue struct {
	mu      sync.Mutex
	periods []finance.Period
}

func (q *countingQueue) Enqueue(_ context.Context, _ tenant.ID, p finance.Period) error {
	q.mu.Lock()
	q.periods = append(q.periods, p)
	q.mu.Unlock()
	return nil
}

func TestRecomputeRequestedForSourceMonth(t *testing.T) {
	q := &countingQueue{}
	h := newHarness(t, func(o *app.Options) { o.Queue = q })
	p := h.product("P", "1.00", "2.00", 5)

	inv, err := h.svc.Sales.Create(h.ctx, h.tn, sales.CreateInput{
		Header: sales.Header{Date: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)},
		Items:  []sales.ItemInput{line(p, 1)},
	})
	require.NoError(t, err)
	h.pay(inv)
	require.NoError(t, h.svc.Engine.Dispatch(h.ctx, h.tn, events.InvoicePaid{InvoiceID: inv.ID}))

	require.Len(t, q.periods, 1, "replay does not enqueue again")
	assert.Equal(t, "2026-08", q.periods[0].String())
}

func TestInvariants(t *testing.T) {
	h := newHarness(t)
	a := h.product("A", "2.00", "5.00", 20)
	b := h.product("B", "3.00", "7.00", 0)
	initial := map[id.ID]int64{a.ID: 20, b.ID: 0}
	sup := h.supplier()

	po1 := h.receive(h.order(sup.ID, testNow, costLine(b, 30, "3.50"), costLine(a, 5, "2.10")))
	po2 := h.order(sup.ID, testNow, costLine(b, 4, "3.60"))
	inv1 := h.pay(h.invoice(line(a, 3), line(b, 10)))
	inv2 := h.pay(h.invoice(line(b, 5)))
	_ = h.invoice(line(a, 1))
	_, err := h.svc.Ledger.AdjustStock(h.ctx, h.tn, a.ID, -2, finance.InventoryAdjustment, "breakage")
	require.NoError(t, err)
	require.NoError(t, h.svc.Sales.Delete(h.ctx, h.tn, inv2.ID))
	require.NoError(t, h.svc.Procurement.Delete(h.ctx, h.tn, po2.ID))

	// stock equals initial stock plus every recorded movement
	for pid, start := range initial {
		sum := start
		for _, m := range h.movements(pid) {
			sum += m.Quantity
		}
		got, err := h.svc.Catalog.GetProduct(h.ctx, h.tn, pid)
		require.NoError(t, err)
		assert.Equal(t, sum, got.Stock)
	}

	// one finance transaction per posted source, none for removed ones
	assert.Len(t, h.transactions(finance.SourceInvoice, inv1.ID), 1)
	assert.Len(t, h.transactions(finance.SourcePurchaseOrder, po1.ID), 1)
	assert.Empty(t, h.transactions(finance.SourceInvoice, inv2.ID))
	assert.Empty(t, h.transactions(finance.SourcePurchaseOrder, po2.ID))

	// sold items mirror the lines of the paid invoice
	sold, err := h.svc.Ledger.SoldItems(h.ctx, h.tn, inv1.ID)
	require.NoError(t, err)
	require.Len(t, sold, len(inv1.Items))
	qty := map[id.ID]int64{}
	for _, it := range inv1.Items {
		qty[it.ID] = it.Quantity
	}
	for _, si := range sold {
		assert.Equal(t, qty[si.InvoiceItemID], si.Quantity)
	}

	// total sales is the sum of paid grand totals in the month
	assert.True(t, h.summary(testNow).TotalSales.Equal(inv1.GrandTotal))
}

func TestConcurrentInvoiceNumbers(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "1.00", "2.00", 100)

	const n = 12
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := h.svc.Sales.Create(h.ctx, h.tn, sales.CreateInput{
				Header: sales.Header{Date: testNow},
				Items:  []sales.ItemInput{line(p, 1)},
			})
			if assert.NoError(t, err) {
				numbers <- inv.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.Len(t, num, 10)
		assert.Equal(t, "20261018", num[:8])
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestAssignBarcode(t *testing.T) {
	h := newHarness(t)
	p := h.product("P", "1.00", "2.00", 0)

	code, err := h.svc.Catalog.AssignBarcode(h.ctx, h.tn, p.ID)
	require.NoError(t, err)
	assert.Len(t, code, 13)
	assert.Equal(t, "290", code[:3])
	assert.True(t, catalog.ValidateEAN13(code))

	got, err := h.svc.Catalog.FindByBarcode(h.ctx, h.tn, code)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = h.svc.Catalog.AssignBarcode(h.ctx, h.tn, p.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyAssigned))
}

type fixedRand struct{ n int }

func (r fixedRand) IntN(int) int { return r.n }

func TestAssignBarcodeExhausted(t *testing.T) {
	h := newHarness(t, func(o *app.Options) { o.Rand = fixedRand{n: 4} })
	first := h.product("A", "1.00", "2.00", 0)
	second := h.product("B", "1.00", "2.00", 0)

	_, err := h.svc.Catalog.AssignBarcode(h.ctx, h.tn, first.ID)
	require.NoError(t, err)

	_, err = h.svc.Catalog.AssignBarcode(h.ctx, h.tn, second.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeExhausted))
	assert.False(t, h.reload(second).HasBarcode())
}

func TestBulkAssignBarcodes(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"A", "B", "C"} {
		h.product(name, "1.00", "2.00", 0)
	}

	results, err := h.svc.Catalog.BulkAssignBarcodes(h.ctx, h.tn, nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	seen := map[string]bool{}
	for _, r := range results {
		require.Empty(t, r.Error)
		assert.False(t, seen[r.Barcode])
		seen[r.Barcode] = true
	}
}

func TestSystemUserCreatedOnce(t *testing.T) {
	h := newHarness(t)
	first, err := h.svc.Identity.SystemUser(h.ctx, h.tn)
	require.NoError(t, err)
	second, err := h.svc.Identity.SystemUser(h.ctx, h.tn)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, identity.SystemUsername, first.Username)
}
