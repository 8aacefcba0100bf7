package catalog

import (
	"context"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/domain"
)

// Config wires the catalogue service.
type Config struct {
	Products   ProductRepository
	Categories CategoryRepository
	Customers  CustomerRepository
	Suppliers  SupplierRepository
	TxManager  tx.Manager
	Clock      clock.Clock
	Rand       Rand
}

// Service is the catalogue facade. CRUD goes through the embedded generic
// services; barcode and walk-in handling live on Service itself.
type Service struct {
	Products   *domain.CatalogService[*Product]
	Categories *domain.CatalogService[*ProductCategory]
	Customers  *domain.CatalogService[*Customer]
	Suppliers  *domain.CatalogService[*Supplier]

	productRepo  ProductRepository
	categoryRepo CategoryRepository
	customerRepo CustomerRepository
	txm          tx.Manager
	clock        clock.Clock
	rand         Rand
}

// NewService builds the catalogue service and registers its hooks.
func NewService(cfg Config) *Service {
	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	r := cfg.Rand
	if r == nil {
		r = DefaultRand
	}

	s := &Service{
		Products: domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
			Repo: cfg.Products, TxManager: cfg.TxManager, Clock: c, EntityName: "product",
		}),
		Categories: domain.NewCatalogService(domain.CatalogServiceConfig[*ProductCategory]{
			Repo: cfg.Categories, TxManager: cfg.TxManager, Clock: c, EntityName: "product category",
		}),
		Customers: domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
			Repo: cfg.Customers, TxManager: cfg.TxManager, Clock: c, EntityName: "customer",
		}),
		Suppliers: domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
			Repo: cfg.Suppliers, TxManager: cfg.TxManager, Clock: c, EntityName: "supplier",
		}),
		productRepo:  cfg.Products,
		categoryRepo: cfg.Categories,
		customerRepo: cfg.Customers,
		txm:          cfg.TxManager,
		clock:        c,
		rand:         r,
	}

	s.Products.Hooks().OnBeforeCreate(s.checkCategory)
	s.Products.Hooks().OnBeforeUpdate(s.checkCategory)
	s.Customers.Hooks().OnBeforeCreate(s.assignCustomerCode)

	return s
}

func (s *Service) checkCategory(ctx context.Context, p *Product) error {
	if p.CategoryID == nil {
		return nil
	}
	tn := p.TenantID
	if _, err := s.categoryRepo.GetByID(ctx, tn, *p.CategoryID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("category does not exist").WithDetail("field", "categoryId")
		}
		return err
	}
	return nil
}

func (s *Service) assignCustomerCode(ctx context.Context, c *Customer) error {
	if c.Code != "" {
		return nil
	}
	code, err := s.newCustomerCode(ctx, c.TenantID)
	if err != nil {
		return err
	}
	c.Code = code
	return nil
}

func (s *Service) newCustomerCode(ctx context.Context, tn tenant.ID) (string, error) {
	now := s.clock.Now()
	for attempt := 0; attempt < maxCustomerCodeTry; attempt++ {
		code := CandidateCustomerCode(now, s.rand)
		exists, err := s.customerRepo.CodeExists(ctx, tn, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperror.NewExhausted("customer code", maxCustomerCodeTry)
}

// WalkInCustomer returns the tenant's walk-in customer, creating it on first use.
func (s *Service) WalkInCustomer(ctx context.Context, tn tenant.ID) (*Customer, error) {
	var out *Customer
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.newCustomerCode(ctx, tn)
		if err != nil {
			return err
		}
		candidate := &Customer{
			FullName:         WalkInCustomerName,
			Code:             code,
			PreferredContact: ContactPhone,
			IsWalkIn:         true,
		}
		candidate.Stamp(tn, s.clock.Now())
		out, err = s.customerRepo.EnsureWalkIn(ctx, tn, candidate)
		return err
	})
	return out, err
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, tn tenant.ID, productID id.ID) (*Product, error) {
	return s.Products.GetByID(ctx, tn, productID)
}

// FindByBarcode looks a product up by a scanned code.
func (s *Service) FindByBarcode(ctx context.Context, tn tenant.ID, code string) (*Product, error) {
	code = NormalizeEAN13(code)
	if !ValidateEAN13(code) {
		return nil, apperror.NewValidation("barcode is not a valid EAN-13")
	}
	return s.productRepo.GetByBarcode(ctx, tn, code)
}

// GetCustomer returns a customer by id.
func (s *Service) GetCustomer(ctx context.Context, tn tenant.ID, customerID id.ID) (*Customer, error) {
	return s.Customers.GetByID(ctx, tn, customerID)
}

// GetSupplier returns a supplier by id.
func (s *Service) GetSupplier(ctx context.Context, tn tenant.ID, supplierID id.ID) (*Supplier, error) {
	return s.Suppliers.GetByID(ctx, tn, supplierID)
}
