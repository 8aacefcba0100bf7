package dto

import (
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/sales"
)

// InvoiceItemRequest is one invoice line. A missing unitPrice takes the
// product's current price.
type InvoiceItemRequest struct {
	ProductID id.ID        `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,min=1"`
	UnitPrice *types.Money `json:"unitPrice"`
}

func (r InvoiceItemRequest) ToInput() sales.ItemInput {
	return sales.ItemInput{ProductID: r.ProductID, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
}

// InvoiceHeaderRequest holds the editable invoice fields. A missing
// customerId books the sale to the walk-in customer.
type InvoiceHeaderRequest struct {
	CustomerID    *id.ID             `json:"customerId"`
	Date          Date               `json:"date"`
	DueDate       Date               `json:"dueDate"`
	PaymentMode   sales.PaymentMode  `json:"paymentMode"`
	CashAmount    types.Money        `json:"cashAmount"`
	POSAmount     types.Money        `json:"posAmount"`
	OtherAmount   types.Money        `json:"otherAmount"`
	OtherMethod   string             `json:"otherMethod"`
	DiscountType  sales.DiscountType `json:"discountType"`
	DiscountValue types.Money        `json:"discountValue"`
	Tax           types.Money        `json:"tax"`
	Notes         string             `json:"notes"`
}

func (r InvoiceHeaderRequest) toHeader() sales.Header {
	return sales.Header{
		CustomerID:    r.CustomerID,
		Date:          r.Date.Time,
		DueDate:       r.DueDate.Time,
		PaymentMode:   r.PaymentMode,
		CashAmount:    r.CashAmount,
		POSAmount:     r.POSAmount,
		OtherAmount:   r.OtherAmount,
		OtherMethod:   r.OtherMethod,
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		Tax:           r.Tax,
		Notes:         r.Notes,
	}
}

// CreateInvoiceRequest creates a draft invoice. An empty number is allocated.
type CreateInvoiceRequest struct {
	Number string `json:"invoiceNumber"`
	InvoiceHeaderRequest
	Items []InvoiceItemRequest `json:"items" binding:"dive"`
}

func (r CreateInvoiceRequest) ToInput() sales.CreateInput {
	return sales.CreateInput{Number: r.Number, Header: r.toHeader(), Items: invoiceItems(r.Items)}
}

// UpdateInvoiceRequest replaces the header. A missing items array keeps the
// current lines.
type UpdateInvoiceRequest struct {
	InvoiceHeaderRequest
	Items []InvoiceItemRequest `json:"items" binding:"omitempty,dive"`
}

func (r UpdateInvoiceRequest) ToInput() sales.UpdateInput {
	return sales.UpdateInput{Header: r.toHeader(), Items: invoiceItems(r.Items)}
}

func invoiceItems(in []InvoiceItemRequest) []sales.ItemInput {
	if in == nil {
		return nil
	}
	out := make([]sales.ItemInput, len(in))
	for i, it := range in {
		out[i] = it.ToInput()
	}
	return out
}

// InvoiceStatusRequest moves an invoice through its lifecycle.
type InvoiceStatusRequest struct {
	Status sales.Status `json:"status" binding:"required"`
}

// InvoiceResponse adds soft warnings to the invoice.
type InvoiceResponse struct {
	*sales.Invoice
	Warnings []string `json:"warnings,omitempty"`
}

// FromInvoice creates InvoiceResponse.
func FromInvoice(inv *sales.Invoice) InvoiceResponse {
	return InvoiceResponse{Invoice: inv, Warnings: inv.Warnings()}
}
