package events

import (
	"encoding/json"
	"fmt"
)

// Decode rebuilds an event from its name and JSON payload.
func Decode(name string, payload []byte) (Event, error) {
	var ev Event
	switch name {
	case NameInvoicePaid:
		ev = &InvoicePaid{}
	case NameInvoiceDeleted:
		ev = &InvoiceDeleted{}
	case NamePurchaseOrderReceived:
		ev = &PurchaseOrderReceived{}
	case NamePurchaseOrderDeleted:
		ev = &PurchaseOrderDeleted{}
	case NamePaymentRecorded:
		ev = &PaymentRecorded{}
	case NamePaymentDeleted:
		ev = &PaymentDeleted{}
	default:
		return nil, fmt.Errorf("unknown event %q", name)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return deref(ev), nil
}

func deref(ev Event) Event {
	switch e := ev.(type) {
	case *InvoicePaid:
		return *e
	case *InvoiceDeleted:
		return *e
	case *PurchaseOrderReceived:
		return *e
	case *PurchaseOrderDeleted:
		return *e
	case *PaymentRecorded:
		return *e
	case *PaymentDeleted:
		return *e
	}
	return ev
}
