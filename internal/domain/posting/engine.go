// Package posting derives finance transactions, inventory movements and sold
// item snapshots from sales and procurement events.
//
// Every handler is idempotent: a derived row is only created when no row with
// the same provenance (source kind, source id) exists, and the stores enforce
// the same key with unique constraints. Redelivering an event is a no-op.
package posting

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/events"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
	"trendzportal/pkg/logger"
)

var tracer = otel.Tracer("trendzportal/posting")

// Auto-provisioned finance categories.
const (
	CategorySalesRevenue      = "Sales Revenue"
	CategoryInventoryPurchase = "Inventory Purchase"
	CategoryPurchasePayments  = "Purchase Payments"
)

// SummaryQueue requests a monthly summary recompute.
type SummaryQueue interface {
	Enqueue(ctx context.Context, tn tenant.ID, p finance.Period) error
}

// EventLog records handled events for downstream consumers.
type EventLog interface {
	Append(ctx context.Context, tn tenant.ID, ev events.Event) error
}

// InvoiceReader loads invoices with their lines.
type InvoiceReader interface {
	GetByID(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*sales.Invoice, error)
}

// OrderReader loads purchase orders and payments.
type OrderReader interface {
	GetByID(ctx context.Context, tn tenant.ID, orderID id.ID) (*procurement.PurchaseOrder, error)
	GetPayment(ctx context.Context, tn tenant.ID, paymentID id.ID) (*procurement.Payment, error)
}

// ProductReader loads catalogue products.
type ProductReader interface {
	GetByID(ctx context.Context, tn tenant.ID, productID id.ID) (*catalog.Product, error)
}

// CategoryReader loads product categories for sold item snapshots.
type CategoryReader interface {
	GetByID(ctx context.Context, tn tenant.ID, categoryID id.ID) (*catalog.ProductCategory, error)
}

// Config holds Engine dependencies. EventLog and Policy are optional.
type Config struct {
	Finance    finance.Repository
	Invoices   InvoiceReader
	Orders     OrderReader
	Products   ProductReader
	Categories CategoryReader
	Users      identity.SystemUserProvider
	Queue      SummaryQueue
	EventLog   EventLog
	Policy     security.PostingPolicy
	TxManager  tx.Manager
	Clock      clock.Clock
}

// Engine is the posting engine. It implements events.Dispatcher.
type Engine struct {
	finance    finance.Repository
	invoices   InvoiceReader
	orders     OrderReader
	products   ProductReader
	categories CategoryReader
	users      identity.SystemUserProvider
	queue      SummaryQueue
	eventLog   EventLog
	policy     security.PostingPolicy
	txm        tx.Manager
	clock      clock.Clock
}

var _ events.Dispatcher = (*Engine)(nil)

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		finance:    cfg.Finance,
		invoices:   cfg.Invoices,
		orders:     cfg.Orders,
		products:   cfg.Products,
		categories: cfg.Categories,
		users:      cfg.Users,
		queue:      cfg.Queue,
		eventLog:   cfg.EventLog,
		policy:     cfg.Policy,
		txm:        cfg.TxManager,
		clock:      cfg.Clock,
	}
	if e.policy == nil {
		e.policy = security.OpenPolicy{}
	}
	if e.clock == nil {
		e.clock = clock.NewSystem(nil)
	}
	return e
}

// Dispatch handles ev and appends it to the event log, inside the caller's
// transaction when ctx carries one.
func (e *Engine) Dispatch(ctx context.Context, tn tenant.ID, ev events.Event) error {
	return e.run(ctx, tn, ev, true)
}

// Replay handles ev again without logging it. Used by the outbox relay; on an
// already posted source it changes nothing.
func (e *Engine) Replay(ctx context.Context, tn tenant.ID, ev events.Event) error {
	return e.run(ctx, tn, ev, false)
}

func (e *Engine) run(ctx context.Context, tn tenant.ID, ev events.Event, record bool) error {
	ctx, span := tracer.Start(ctx, "posting."+ev.EventName(),
		trace.WithAttributes(
			attribute.String("tenant.id", tn.String()),
			attribute.String("aggregate.id", ev.AggregateID().String()),
		))
	defer span.End()

	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.handle(ctx, tn, ev); err != nil {
			return err
		}
		if record && e.eventLog != nil {
			return e.eventLog.Append(ctx, tn, ev)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "posting failed", "tenant_id", tn, "event", ev.EventName(),
			"aggregate_id", ev.AggregateID(), "error", err)
		return err
	}
	return nil
}

func (e *Engine) handle(ctx context.Context, tn tenant.ID, ev events.Event) error {
	switch ev := ev.(type) {
	case events.InvoicePaid:
		return e.onInvoicePaid(ctx, tn, ev)
	case events.InvoiceDeleted:
		return e.onInvoiceDeleted(ctx, tn, ev)
	case events.PurchaseOrderReceived:
		return e.onOrderReceived(ctx, tn, ev)
	case events.PurchaseOrderDeleted:
		return e.onOrderDeleted(ctx, tn, ev)
	case events.PaymentRecorded:
		return e.onPaymentRecorded(ctx, tn, ev)
	case events.PaymentDeleted:
		return e.onPaymentDeleted(ctx, tn, ev)
	default:
		return fmt.Errorf("posting: unhandled event %s", ev.EventName())
	}
}
