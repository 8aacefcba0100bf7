// Package catalog owns products, product categories, customers and suppliers,
// and assigns EAN-13 barcodes to products.
package catalog

import (
	"context"
	"strings"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/types"
)

// Product is a sellable item. Stock and CostPrice are shared mutable state
// written by both ledgers, always under a row lock.
type Product struct {
	entity.Base

	Name           string      `db:"name" json:"name"`
	SKU            string      `db:"sku" json:"sku"`
	Description    string      `db:"description" json:"description,omitempty"`
	CategoryID     *id.ID      `db:"category_id" json:"categoryId,omitempty"`
	Barcode        *string     `db:"barcode" json:"barcode,omitempty"`
	CostPrice      types.Money `db:"cost_price" json:"costPrice"`
	UnitPrice      types.Money `db:"unit_price" json:"unitPrice"`
	Stock          int64       `db:"stock" json:"stock"`
	WarrantyMonths int         `db:"warranty_months" json:"warrantyMonths"`
	IsActive       bool        `db:"is_active" json:"isActive"`
}

// NewProduct returns an active product with a fresh ID.
func NewProduct(name, sku string, cost, unit types.Money) *Product {
	return &Product{
		Base:      entity.NewBase(),
		Name:      name,
		SKU:       sku,
		CostPrice: cost,
		UnitPrice: unit,
		IsActive:  true,
	}
}

// Validate checks product invariants.
func (p *Product) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").WithDetail("field", "costPrice")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").WithDetail("field", "unitPrice")
	}
	if !p.CostPrice.IsZero() && !p.UnitPrice.IsZero() && p.UnitPrice.LessThan(p.CostPrice) {
		return apperror.NewValidation("unit price must not be below cost price").
			WithDetail("field", "unitPrice")
	}
	if p.Stock < 0 {
		return apperror.NewValidation("stock cannot be negative").WithDetail("field", "stock")
	}
	if p.WarrantyMonths < 0 {
		return apperror.NewValidation("warranty cannot be negative").WithDetail("field", "warrantyMonths")
	}
	if p.Barcode != nil {
		code := NormalizeEAN13(*p.Barcode)
		if code == "" {
			p.Barcode = nil
		} else if !ValidateEAN13(code) {
			return apperror.NewValidation("barcode is not a valid EAN-13").WithDetail("field", "barcode")
		} else {
			p.Barcode = &code
		}
	}
	return nil
}

// HasBarcode reports whether a barcode is set.
func (p *Product) HasBarcode() bool {
	return p.Barcode != nil && *p.Barcode != ""
}

// ProfitAmount is unit price minus cost price.
func (p *Product) ProfitAmount() types.Money {
	return p.UnitPrice.Sub(p.CostPrice)
}

// ProfitMargin is the markup over cost in percent, 0 when cost is unknown.
func (p *Product) ProfitMargin() types.Money {
	return types.Percent(p.ProfitAmount(), p.CostPrice)
}

// ProductCategory groups products for display.
type ProductCategory struct {
	entity.Base

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Icon        string `db:"icon" json:"icon"`
}

// DefaultCategoryIcon is used when a category is created without an icon.
const DefaultCategoryIcon = "fa-box"

func (c *ProductCategory) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
	return nil
}

// ContactMethod is how a customer prefers to be reached.
type ContactMethod string

const (
	ContactEmail    ContactMethod = "email"
	ContactPhone    ContactMethod = "phone"
	ContactWhatsApp ContactMethod = "whatsapp"
)

// WalkInCustomerName names the shared customer used for anonymous counter sales.
const WalkInCustomerName = "Walk-in Customer"

// Customer is an invoice counterparty.
type Customer struct {
	entity.Base

	// Code is YYMM + 2 letters + 4 digits, assigned on create.
	Code             string        `db:"code" json:"code"`
	FullName         string        `db:"full_name" json:"fullName"`
	Phone            string        `db:"phone" json:"phone"`
	Email            string        `db:"email" json:"email,omitempty"`
	CompanyName      *string       `db:"company_name" json:"companyName,omitempty"`
	TaxNumber        *string       `db:"tax_number" json:"taxNumber,omitempty"`
	Address          string        `db:"address" json:"address,omitempty"`
	PreferredContact ContactMethod `db:"preferred_contact" json:"preferredContact"`
	IsWalkIn         bool          `db:"is_walk_in" json:"isWalkIn"`
}

func (c *Customer) Validate(_ context.Context) error {
	if strings.TrimSpace(c.FullName) == "" {
		return apperror.NewValidation("full name is required").WithDetail("field", "fullName")
	}
	switch c.PreferredContact {
	case "":
		c.PreferredContact = ContactPhone
	case ContactEmail, ContactPhone, ContactWhatsApp:
	default:
		return apperror.NewValidation("unknown contact method").WithDetail("field", "preferredContact")
	}
	if c.Code != "" && !ValidCustomerCode(c.Code) {
		return apperror.NewValidation("customer code must be YYMM + 2 letters + 4 digits").
			WithDetail("field", "code")
	}
	return nil
}

// Supplier is a purchase order counterparty.
type Supplier struct {
	entity.Base

	Name          string `db:"name" json:"name"`
	ContactPerson string `db:"contact_person" json:"contactPerson,omitempty"`
	Phone         string `db:"phone" json:"phone,omitempty"`
	Email         string `db:"email" json:"email,omitempty"`
	Address       string `db:"address" json:"address,omitempty"`
	TaxID         string `db:"tax_id" json:"taxId,omitempty"`
	IsActive      bool   `db:"is_active" json:"isActive"`
}

func (s *Supplier) Validate(_ context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		return apperror.NewValidation("email is malformed").WithDetail("field", "email")
	}
	return nil
}
