package handlers

import (
	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves invoices.
type SalesHandler struct {
	*BaseHandler
	sales  *sales.Service
	ledger *finance.Ledger
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(base *BaseHandler, svc *sales.Service, ledger *finance.Ledger) *SalesHandler {
	return &SalesHandler{BaseHandler: base, sales: svc, ledger: ledger}
}

// List handles GET /sales/invoices.
func (h *SalesHandler) List(c *gin.Context) {
	f := sales.ListFilter{ListFilter: h.ListFilter(c, "-invoice_date")}
	if s := c.Query("status"); s != "" {
		f.Status = sales.Status(s)
		if !f.Status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("param", "status"))
			return
		}
	}
	var ok bool
	if f.CustomerID, ok = h.QueryID(c, "customerId"); !ok {
		return
	}
	if f.Period, ok = h.DateRange(c); !ok {
		return
	}

	result, err := h.sales.List(c.Request.Context(), h.Tenant(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /sales/invoices/:id.
func (h *SalesHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := h.sales.Get(c.Request.Context(), h.Tenant(c), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Create handles POST /sales/invoices.
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.sales.Create(c.Request.Context(), h.Tenant(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromInvoice(inv))
}

// Update handles PUT /sales/invoices/:id.
func (h *SalesHandler) Update(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.sales.Update(c.Request.Context(), h.Tenant(c), invoiceID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /sales/invoices/:id.
func (h *SalesHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.sales.Delete(c.Request.Context(), h.Tenant(c), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem handles POST /sales/invoices/:id/items.
func (h *SalesHandler) AddItem(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.InvoiceItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.sales.AddItem(c.Request.Context(), h.Tenant(c), invoiceID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// RemoveItem handles DELETE /sales/invoices/:id/items/:itemId.
func (h *SalesHandler) RemoveItem(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParamID(c, "itemId")
	if !ok {
		return
	}
	inv, err := h.sales.RemoveItem(c.Request.Context(), h.Tenant(c), invoiceID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// SetStatus handles POST /sales/invoices/:id/status. Moving to paid posts the
// invoice.
func (h *SalesHandler) SetStatus(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.InvoiceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.sales.SetStatus(c.Request.Context(), h.Tenant(c), invoiceID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// SoldItems handles GET /sales/invoices/:id/sold-items.
func (h *SalesHandler) SoldItems(c *gin.Context) {
	invoiceID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.ledger.SoldItems(c.Request.Context(), h.Tenant(c), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(items))
}
