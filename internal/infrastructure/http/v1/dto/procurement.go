package dto

import (
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/procurement"
)

// OrderItemRequest is one purchase order line.
type OrderItemRequest struct {
	ProductID id.ID       `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,min=1"`
	UnitCost  types.Money `json:"unitCost"`
}

// OrderHeaderRequest holds the editable order fields.
type OrderHeaderRequest struct {
	SupplierID   id.ID                   `json:"supplierId" binding:"required"`
	OrderDate    Date                    `json:"orderDate"`
	DeliveryDate Date                    `json:"deliveryDate"`
	PaymentMode  procurement.PaymentMode `json:"paymentMode"`
	PaymentDue   *Date                   `json:"paymentDue"`
	Tax          types.Money             `json:"tax"`
	Notes        string                  `json:"notes"`
}

func (r OrderHeaderRequest) toHeader() procurement.Header {
	return procurement.Header{
		SupplierID:   r.SupplierID,
		OrderDate:    r.OrderDate.Time,
		DeliveryDate: r.DeliveryDate.Time,
		PaymentMode:  r.PaymentMode,
		PaymentDue:   r.PaymentDue.Ptr(),
		Tax:          r.Tax,
		Notes:        r.Notes,
	}
}

// CreateOrderRequest creates a draft order. An empty reference is allocated.
type CreateOrderRequest struct {
	Reference string `json:"reference"`
	OrderHeaderRequest
	Items []OrderItemRequest `json:"items" binding:"dive"`
}

func (r CreateOrderRequest) ToInput() procurement.CreateInput {
	return procurement.CreateInput{Reference: r.Reference, Header: r.toHeader(), Items: orderItems(r.Items)}
}

// UpdateOrderRequest replaces the header. A missing items array keeps the
// current lines.
type UpdateOrderRequest struct {
	OrderHeaderRequest
	Items []OrderItemRequest `json:"items" binding:"omitempty,dive"`
}

func (r UpdateOrderRequest) ToInput() procurement.UpdateInput {
	return procurement.UpdateInput{Header: r.toHeader(), Items: orderItems(r.Items)}
}

func orderItems(in []OrderItemRequest) []procurement.ItemInput {
	if in == nil {
		return nil
	}
	out := make([]procurement.ItemInput, len(in))
	for i, it := range in {
		out[i] = procurement.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitCost: it.UnitCost}
	}
	return out
}

// OrderStatusRequest moves an order through its lifecycle.
type OrderStatusRequest struct {
	Status procurement.Status `json:"status" binding:"required"`
}

// PaymentRequest records a supplier payment.
type PaymentRequest struct {
	Amount    types.Money               `json:"amount"`
	Date      Date                      `json:"paymentDate"`
	Method    procurement.PaymentMethod `json:"method"`
	Reference string                    `json:"reference"`
	Notes     string                    `json:"notes"`
}

func (r PaymentRequest) ToInput() procurement.PaymentInput {
	return procurement.PaymentInput{
		Amount:    r.Amount,
		Date:      r.Date.Time,
		Method:    r.Method,
		Reference: r.Reference,
		Notes:     r.Notes,
	}
}

// OrderResponse adds the payment position to the order.
type OrderResponse struct {
	*procurement.PurchaseOrder
	Payments       []procurement.Payment      `json:"payments"`
	PaymentSummary procurement.PaymentSummary `json:"paymentSummary"`
}
