package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/http/v1/dto"
)

// BarcodeQueue queues bulk barcode assignment in the background.
type BarcodeQueue interface {
	EnqueueAssignBarcodes(ctx context.Context, tn tenant.ID, limit int) (string, error)
}

// ProductHandler serves products and their barcodes.
type ProductHandler struct {
	*CatalogHandler[*catalog.Product, dto.ProductRequest]
	catalog *catalog.Service
	queue   BarcodeQueue
}

// NewProductHandler creates a product handler. queue may be nil, which
// disables ?async=true.
func NewProductHandler(base *BaseHandler, svc *catalog.Service, queue BarcodeQueue) *ProductHandler {
	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*catalog.Product, dto.ProductRequest]{
			Service:      svc.Products,
			MapCreateDTO: dto.ProductRequest.ToProduct,
			MapToDTO:     func(p *catalog.Product) any { return dto.FromProduct(p) },
		}),
		catalog: svc,
		queue:   queue,
	}
}

// Update handles PUT /catalog/products/:id. Stock is not editable here.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx, tn := c.Request.Context(), h.Tenant(c)
	p, err := h.catalog.GetProduct(ctx, tn, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(p)
	if err := h.catalog.Products.Update(ctx, tn, p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Lookup handles GET /catalog/products/by-barcode/:code.
func (h *ProductHandler) Lookup(c *gin.Context) {
	p, err := h.catalog.FindByBarcode(c.Request.Context(), h.Tenant(c), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// AssignBarcode handles POST /catalog/products/:id/barcode.
func (h *ProductHandler) AssignBarcode(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	code, err := h.catalog.AssignBarcode(c.Request.Context(), h.Tenant(c), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BarcodeResponse{ProductID: productID.String(), Barcode: code})
}

// BulkAssignBarcodes handles POST /catalog/products/barcodes. With
// ?async=true the run is queued and 202 returns the task id.
func (h *ProductHandler) BulkAssignBarcodes(c *gin.Context) {
	var req dto.BulkBarcodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := dto.ParseIDs(req.ProductIDs)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "productIds"))
		return
	}
	ctx, tn := c.Request.Context(), h.Tenant(c)

	if c.Query("async") == "true" {
		if h.queue == nil {
			h.Error(c, apperror.NewValidation("background assignment is not available"))
			return
		}
		if len(ids) > 0 {
			h.Error(c, apperror.NewValidation("background assignment takes a limit, not product ids").
				WithDetail("field", "productIds"))
			return
		}
		taskID, err := h.queue.EnqueueAssignBarcodes(ctx, tn, req.Limit)
		if err != nil {
			h.Error(c, apperror.NewInternal(err))
			return
		}
		h.Accepted(c, dto.TaskResponse{TaskID: taskID})
		return
	}

	results, err := h.catalog.BulkAssignBarcodes(ctx, tn, ids, req.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewBulkBarcodeResponse(results))
}
