package dto

import (
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/catalog"
)

// --- Products ---

// ProductRequest creates or replaces a product. Stock is only read on create.
type ProductRequest struct {
	Name           string      `json:"name" binding:"required"`
	SKU            string      `json:"sku" binding:"required"`
	Description    string      `json:"description"`
	CategoryID     *id.ID      `json:"categoryId"`
	Barcode        *string     `json:"barcode"`
	CostPrice      types.Money `json:"costPrice"`
	UnitPrice      types.Money `json:"unitPrice"`
	Stock          int64       `json:"stock"`
	WarrantyMonths int         `json:"warrantyMonths"`
	IsActive       *bool       `json:"isActive"`
	Version        int         `json:"version"`
}

// ToProduct builds a new product.
func (r ProductRequest) ToProduct() *catalog.Product {
	p := catalog.NewProduct(r.Name, r.SKU, r.CostPrice, r.UnitPrice)
	p.Stock = r.Stock
	r.apply(p)
	return p
}

// ApplyTo overwrites the editable fields of p. Stock is left alone.
func (r ProductRequest) ApplyTo(p *catalog.Product) {
	p.Name = r.Name
	p.SKU = r.SKU
	p.CostPrice = r.CostPrice
	p.UnitPrice = r.UnitPrice
	if r.Version > 0 {
		p.Version = r.Version
	}
	r.apply(p)
}

func (r ProductRequest) apply(p *catalog.Product) {
	p.Description = r.Description
	p.CategoryID = r.CategoryID
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
	p.WarrantyMonths = r.WarrantyMonths
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// ProductResponse adds the derived margin fields.
type ProductResponse struct {
	*catalog.Product
	ProfitAmount types.Money `json:"profitAmount"`
	ProfitMargin types.Money `json:"profitMargin"`
}

// FromProduct creates ProductResponse.
func FromProduct(p *catalog.Product) ProductResponse {
	return ProductResponse{Product: p, ProfitAmount: p.ProfitAmount(), ProfitMargin: p.ProfitMargin()}
}

// BarcodeResponse is returned by a single assignment.
type BarcodeResponse struct {
	ProductID string `json:"productId"`
	Barcode   string `json:"barcode"`
}

// BulkBarcodeRequest selects products for bulk assignment. Empty ProductIDs
// picks products without a barcode, up to Limit.
type BulkBarcodeRequest struct {
	ProductIDs []string `json:"productIds"`
	Limit      int      `json:"limit" binding:"min=0,max=5000"`
}

// BulkBarcodeResponse reports each product's outcome.
type BulkBarcodeResponse struct {
	Results  []catalog.BarcodeResult `json:"results"`
	Assigned int                     `json:"assigned"`
	Failed   int                     `json:"failed"`
}

// NewBulkBarcodeResponse counts outcomes.
func NewBulkBarcodeResponse(results []catalog.BarcodeResult) BulkBarcodeResponse {
	resp := BulkBarcodeResponse{Results: results}
	if resp.Results == nil {
		resp.Results = []catalog.BarcodeResult{}
	}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Assigned++
		}
	}
	return resp
}

// TaskResponse is returned when work is queued.
type TaskResponse struct {
	TaskID string `json:"taskId"`
}

// --- Categories ---

// CategoryRequest creates a product category.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (r CategoryRequest) ToCategory() *catalog.ProductCategory {
	return &catalog.ProductCategory{
		Base:        entity.NewBase(),
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
	}
}

// --- Customers ---

// CustomerRequest creates a customer. The code is assigned by the server.
type CustomerRequest struct {
	FullName         string                `json:"fullName" binding:"required"`
	Phone            string                `json:"phone"`
	Email            string                `json:"email"`
	CompanyName      *string               `json:"companyName"`
	TaxNumber        *string               `json:"taxNumber"`
	Address          string                `json:"address"`
	PreferredContact catalog.ContactMethod `json:"preferredContact"`
}

func (r CustomerRequest) ToCustomer() *catalog.Customer {
	return &catalog.Customer{
		Base:             entity.NewBase(),
		FullName:         r.FullName,
		Phone:            r.Phone,
		Email:            r.Email,
		CompanyName:      r.CompanyName,
		TaxNumber:        r.TaxNumber,
		Address:          r.Address,
		PreferredContact: r.PreferredContact,
	}
}

// --- Suppliers ---

// SupplierRequest creates a supplier.
type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	TaxID         string `json:"taxId"`
}

func (r SupplierRequest) ToSupplier() *catalog.Supplier {
	return &catalog.Supplier{
		Base:          entity.NewBase(),
		Name:          r.Name,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		Email:         r.Email,
		Address:       r.Address,
		TaxID:         r.TaxID,
		IsActive:      true,
	}
}
