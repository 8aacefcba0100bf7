// Package events defines the lifecycle events the ledgers publish and the
// posting engine consumes.
package events

import (
	"context"
	"sync"
	"time"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
)

// Event names, also used as outbox event types.
const (
	NameInvoicePaid           = "invoice.paid"
	NameInvoiceDeleted        = "invoice.deleted"
	NamePurchaseOrderReceived = "purchase_order.received"
	NamePurchaseOrderDeleted  = "purchase_order.deleted"
	NamePaymentRecorded       = "purchase_payment.recorded"
	NamePaymentDeleted        = "purchase_payment.deleted"
)

// Event is a source state change.
type Event interface {
	EventName() string
	AggregateID() id.ID
}

// Dispatcher delivers an event. Implementations run inside the caller's
// transaction when ctx carries one.
type Dispatcher interface {
	Dispatch(ctx context.Context, tn tenant.ID, ev Event) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, tn tenant.ID, ev Event) error

func (f DispatcherFunc) Dispatch(ctx context.Context, tn tenant.ID, ev Event) error {
	return f(ctx, tn, ev)
}

// Nop drops every event.
var Nop Dispatcher = DispatcherFunc(func(context.Context, tenant.ID, Event) error { return nil })

// InvoicePaid fires on the draft/sent → paid edge.
type InvoicePaid struct {
	InvoiceID id.ID `json:"invoiceId"`
}

func (InvoicePaid) EventName() string    { return NameInvoicePaid }
func (e InvoicePaid) AggregateID() id.ID { return e.InvoiceID }

// InvoiceDeleted fires before the invoice and its items are removed.
type InvoiceDeleted struct {
	InvoiceID id.ID     `json:"invoiceId"`
	Number    string    `json:"number"`
	Date      time.Time `json:"date"`
}

func (InvoiceDeleted) EventName() string    { return NameInvoiceDeleted }
func (e InvoiceDeleted) AggregateID() id.ID { return e.InvoiceID }

// PurchaseOrderReceived fires on the ordered → received edge.
type PurchaseOrderReceived struct {
	OrderID id.ID `json:"orderId"`
}

func (PurchaseOrderReceived) EventName() string    { return NamePurchaseOrderReceived }
func (e PurchaseOrderReceived) AggregateID() id.ID { return e.OrderID }

// PurchaseOrderDeleted fires before the order is removed.
type PurchaseOrderDeleted struct {
	OrderID   id.ID     `json:"orderId"`
	Reference string    `json:"reference"`
	OrderDate time.Time `json:"orderDate"`
}

func (PurchaseOrderDeleted) EventName() string    { return NamePurchaseOrderDeleted }
func (e PurchaseOrderDeleted) AggregateID() id.ID { return e.OrderID }

// PaymentRecorded fires after a payment row is written.
type PaymentRecorded struct {
	PaymentID id.ID `json:"paymentId"`
}

func (PaymentRecorded) EventName() string    { return NamePaymentRecorded }
func (e PaymentRecorded) AggregateID() id.ID { return e.PaymentID }

// PaymentDeleted fires before a payment row is removed.
type PaymentDeleted struct {
	PaymentID   id.ID     `json:"paymentId"`
	OrderID     id.ID     `json:"orderId"`
	PaymentDate time.Time `json:"paymentDate"`
}

func (PaymentDeleted) EventName() string    { return NamePaymentDeleted }
func (e PaymentDeleted) AggregateID() id.ID { return e.PaymentID }

// Recorder collects dispatched events. Tests use it in place of the engine.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Dispatch(_ context.Context, _ tenant.ID, ev Event) error {
	r.mu.Lock()
	r.Events = append(r.Events, ev)
	r.mu.Unlock()
	return nil
}

// Names returns the names of the recorded events in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.EventName()
	}
	return out
}
