package handlers

import (
	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/infrastructure/http/v1/dto"
)

// ProcurementHandler serves purchase orders and supplier payments.
type ProcurementHandler struct {
	*BaseHandler
	orders *procurement.Service
}

// NewProcurementHandler creates a procurement handler.
func NewProcurementHandler(base *BaseHandler, svc *procurement.Service) *ProcurementHandler {
	return &ProcurementHandler{BaseHandler: base, orders: svc}
}

// List handles GET /procurement/orders.
func (h *ProcurementHandler) List(c *gin.Context) {
	f := procurement.ListFilter{ListFilter: h.ListFilter(c, "-order_date")}
	if s := c.Query("status"); s != "" {
		f.Status = procurement.Status(s)
		if !f.Status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("param", "status"))
			return
		}
	}
	var ok bool
	if f.SupplierID, ok = h.QueryID(c, "supplierId"); !ok {
		return
	}
	if f.Period, ok = h.DateRange(c); !ok {
		return
	}

	result, err := h.orders.List(c.Request.Context(), h.Tenant(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /procurement/orders/:id. The response carries the order's
// payments and settlement position.
func (h *ProcurementHandler) Get(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	ctx, tn := c.Request.Context(), h.Tenant(c)

	po, err := h.orders.Get(ctx, tn, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	payments, err := h.orders.ListPayments(ctx, tn, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	summary, err := h.orders.PaymentSummary(ctx, tn, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if payments == nil {
		payments = []procurement.Payment{}
	}
	h.OK(c, dto.OrderResponse{PurchaseOrder: po, Payments: payments, PaymentSummary: summary})
}

// Create handles POST /procurement/orders.
func (h *ProcurementHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	po, err := h.orders.Create(c.Request.Context(), h.Tenant(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, po)
}

// Update handles PUT /procurement/orders/:id.
func (h *ProcurementHandler) Update(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	po, err := h.orders.Update(c.Request.Context(), h.Tenant(c), orderID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// Delete handles DELETE /procurement/orders/:id.
func (h *ProcurementHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), h.Tenant(c), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SetStatus handles POST /procurement/orders/:id/status. Moving to received
// posts the order.
func (h *ProcurementHandler) SetStatus(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.OrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	po, err := h.orders.SetStatus(c.Request.Context(), h.Tenant(c), orderID, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// RecordPayment handles POST /procurement/orders/:id/payments.
func (h *ProcurementHandler) RecordPayment(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.orders.RecordPayment(c.Request.Context(), h.Tenant(c), orderID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// DeletePayment handles DELETE /procurement/payments/:id.
func (h *ProcurementHandler) DeletePayment(c *gin.Context) {
	paymentID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeletePayment(c.Request.Context(), h.Tenant(c), paymentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
