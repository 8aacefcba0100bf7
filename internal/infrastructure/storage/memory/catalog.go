package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
)

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct{ s *Store }

var _ catalog.ProductRepository = (*ProductRepo)(nil)

func cloneProduct(p catalog.Product) *catalog.Product {
	if p.Barcode != nil {
		code := *p.Barcode
		p.Barcode = &code
	}
	if p.CategoryID != nil {
		cid := *p.CategoryID
		p.CategoryID = &cid
	}
	return &p
}

func (r *ProductRepo) checkUnique(tn tenant.ID, p *catalog.Product) error {
	for k, other := range r.s.st.products {
		if k.tn != tn || other.ID == p.ID {
			continue
		}
		if p.SKU != "" && strings.EqualFold(other.SKU, p.SKU) {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
		if p.Barcode != nil && other.Barcode != nil && *other.Barcode == *p.Barcode {
			return apperror.NewDuplicate("product", "barcode", *p.Barcode)
		}
	}
	return nil
}

func (r *ProductRepo) Create(ctx context.Context, tn tenant.ID, p *catalog.Product) error {
	return r.s.do(ctx, func() error {
		k := key{tn, p.ID}
		if _, ok := r.s.st.products[k]; ok {
			return apperror.NewDuplicate("product", "id", p.ID.String())
		}
		if err := r.checkUnique(tn, p); err != nil {
			return err
		}
		p.TenantID = tn
		r.s.st.products[k] = *cloneProduct(*p)
		return nil
	})
}

func (r *ProductRepo) get(tn tenant.ID, productID id.ID) (*catalog.Product, error) {
	p, ok := r.s.st.products[key{tn, productID}]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return cloneProduct(p), nil
}

func (r *ProductRepo) GetByID(ctx context.Context, tn tenant.ID, productID id.ID) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.s.do(ctx, func() (err error) {
		out, err = r.get(tn, productID)
		return err
	})
	return out, err
}

// GetForUpdate is GetByID; holding the store lock already excludes other writers.
func (r *ProductRepo) GetForUpdate(ctx context.Context, tn tenant.ID, productID id.ID) (*catalog.Product, error) {
	return r.GetByID(ctx, tn, productID)
}

func (r *ProductRepo) LockForUpdate(ctx context.Context, tn tenant.ID, productIDs []id.ID) (map[id.ID]*catalog.Product, error) {
	out := make(map[id.ID]*catalog.Product, len(productIDs))
	err := r.s.do(ctx, func() error {
		for _, pid := range productIDs {
			p, err := r.get(tn, pid)
			if err != nil {
				return err
			}
			out[pid] = p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) Update(ctx context.Context, tn tenant.ID, p *catalog.Product) error {
	return r.s.do(ctx, func() error {
		k := key{tn, p.ID}
		cur, ok := r.s.st.products[k]
		if !ok {
			return apperror.NewNotFound("product", p.ID)
		}
		if cur.Version != p.Version {
			return apperror.NewConflict("product was modified concurrently").WithDetail("id", p.ID.String())
		}
		next := *cloneProduct(*p)
		next.TenantID = tn
		next.Stock = cur.Stock
		next.Barcode = cur.Barcode
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		if err := r.checkUnique(tn, &next); err != nil {
			return err
		}
		r.s.st.products[k] = next
		p.Version = next.Version
		p.Stock = next.Stock
		p.Barcode = next.Barcode
		return nil
	})
}

func (r *ProductRepo) SaveStock(ctx context.Context, tn tenant.ID, p *catalog.Product) error {
	return r.s.do(ctx, func() error {
		k := key{tn, p.ID}
		cur, ok := r.s.st.products[k]
		if !ok {
			return apperror.NewNotFound("product", p.ID)
		}
		cur.Stock = p.Stock
		cur.CostPrice = p.CostPrice
		cur.UpdatedAt = time.Now()
		r.s.st.products[k] = cur
		return nil
	})
}

func (r *ProductRepo) SetBarcode(ctx context.Context, tn tenant.ID, productID id.ID, code string) error {
	return r.s.do(ctx, func() error {
		k := key{tn, productID}
		cur, ok := r.s.st.products[k]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		for ok2, other := range r.s.st.products {
			if ok2.tn == tn && ok2.id != productID && other.Barcode != nil && *other.Barcode == code {
				return apperror.NewDuplicate("product", "barcode", code)
			}
		}
		cur.Barcode = &code
		r.s.st.products[k] = cur
		return nil
	})
}

func (r *ProductRepo) BarcodeExists(ctx context.Context, tn tenant.ID, code string) (bool, error) {
	var found bool
	err := r.s.do(ctx, func() error {
		for k, p := range r.s.st.products {
			if k.tn == tn && p.Barcode != nil && *p.Barcode == code {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *ProductRepo) GetByBarcode(ctx context.Context, tn tenant.ID, code string) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.s.do(ctx, func() error {
		for k, p := range r.s.st.products {
			if k.tn == tn && p.Barcode != nil && *p.Barcode == code {
				out = cloneProduct(p)
				return nil
			}
		}
		return apperror.NewNotFound("product", code)
	})
	return out, err
}

func (r *ProductRepo) ListWithoutBarcode(ctx context.Context, tn tenant.ID, limit int) ([]id.ID, error) {
	var rows []catalog.Product
	err := r.s.do(ctx, func() error {
		for k, p := range r.s.st.products {
			if k.tn == tn && p.Barcode == nil {
				rows = append(rows, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rows, func(a, b catalog.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	ids := make([]id.ID, len(rows))
	for i, p := range rows {
		ids[i] = p.ID
	}
	return ids, nil
}

func (r *ProductRepo) Delete(ctx context.Context, tn tenant.ID, productID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, productID}
		if _, ok := r.s.st.products[k]; !ok {
			return apperror.NewNotFound("product", productID)
		}
		if r.s.productReferenced(tn, productID) {
			return apperror.NewConflict("product is used by invoices or purchase orders")
		}
		delete(r.s.st.products, k)
		return nil
	})
}

func (r *ProductRepo) List(ctx context.Context, tn tenant.ID, f domain.ListFilter) (domain.ListResult[*catalog.Product], error) {
	var rows []*catalog.Product
	err := r.s.do(ctx, func() error {
		for k, p := range r.s.st.products {
			barcode := ""
			if p.Barcode != nil {
				barcode = *p.Barcode
			}
			if k.tn == tn && matches(f.Search, p.Name, p.SKU, barcode) {
				rows = append(rows, cloneProduct(p))
			}
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*catalog.Product]{}, err
	}
	slices.SortFunc(rows, func(a, b *catalog.Product) int {
		c := strings.Compare(a.Name, b.Name)
		if c == 0 {
			c = compareIDs(a.ID, b.ID)
		}
		if descending(f.OrderBy) {
			return -c
		}
		return c
	})
	return page(rows, f, func(p *catalog.Product) id.ID { return p.ID }), nil
}

func (s *Store) productReferenced(tn tenant.ID, productID id.ID) bool {
	for k, inv := range s.st.invoices {
		if k.tn != tn {
			continue
		}
		for _, it := range inv.Items {
			if it.ProductID == productID {
				return true
			}
		}
	}
	for k, po := range s.st.orders {
		if k.tn != tn {
			continue
		}
		for _, it := range po.Items {
			if it.ProductID == productID {
				return true
			}
		}
	}
	return false
}

func compareIDs(a, b id.ID) int {
	switch {
	case id.Less(a, b):
		return -1
	case id.Less(b, a):
		return 1
	}
	return 0
}

// CategoryRepo implements catalog.CategoryRepository.
type CategoryRepo struct{ s *Store }

var _ catalog.CategoryRepository = (*CategoryRepo)(nil)

func (r *CategoryRepo) Create(ctx context.Context, tn tenant.ID, c *catalog.ProductCategory) error {
	return r.s.do(ctx, func() error {
		for k, other := range r.s.st.categories {
			if k.tn == tn && strings.EqualFold(other.Name, c.Name) {
				return apperror.NewDuplicate("category", "name", c.Name)
			}
		}
		c.TenantID = tn
		r.s.st.categories[key{tn, c.ID}] = *c
		return nil
	})
}

func (r *CategoryRepo) GetByID(ctx context.Context, tn tenant.ID, categoryID id.ID) (*catalog.ProductCategory, error) {
	var out *catalog.ProductCategory
	err := r.s.do(ctx, func() error {
		c, ok := r.s.st.categories[key{tn, categoryID}]
		if !ok {
			return apperror.NewNotFound("category", categoryID)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *CategoryRepo) Update(ctx context.Context, tn tenant.ID, c *catalog.ProductCategory) error {
	return r.s.do(ctx, func() error {
		k := key{tn, c.ID}
		cur, ok := r.s.st.categories[k]
		if !ok {
			return apperror.NewNotFound("category", c.ID)
		}
		if cur.Version != c.Version {
			return apperror.NewConflict("category was modified concurrently")
		}
		c.Version++
		c.TenantID = tn
		c.CreatedAt = cur.CreatedAt
		r.s.st.categories[k] = *c
		return nil
	})
}

func (r *CategoryRepo) Delete(ctx context.Context, tn tenant.ID, categoryID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, categoryID}
		if _, ok := r.s.st.categories[k]; !ok {
			return apperror.NewNotFound("category", categoryID)
		}
		for pk, p := range r.s.st.products {
			if pk.tn == tn && p.CategoryID != nil && *p.CategoryID == categoryID {
				return apperror.NewConflict("category still has products")
			}
		}
		delete(r.s.st.categories, k)
		return nil
	})
}

func (r *CategoryRepo) List(ctx context.Context, tn tenant.ID, f domain.ListFilter) (domain.ListResult[*catalog.ProductCategory], error) {
	var rows []*catalog.ProductCategory
	_ = r.s.do(ctx, func() error {
		for k, c := range r.s.st.categories {
			if k.tn == tn && matches(f.Search, c.Name) {
				rows = append(rows, &c)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b *catalog.ProductCategory) int { return strings.Compare(a.Name, b.Name) })
	return page(rows, f, func(c *catalog.ProductCategory) id.ID { return c.ID }), nil
}

// CustomerRepo implements catalog.CustomerRepository.
type CustomerRepo struct{ s *Store }

var _ catalog.CustomerRepository = (*CustomerRepo)(nil)

func (r *CustomerRepo) insert(tn tenant.ID, c *catalog.Customer) error {
	for k, other := range r.s.st.customers {
		if k.tn != tn {
			continue
		}
		if c.Code != "" && other.Code == c.Code {
			return apperror.NewDuplicate("customer", "code", c.Code)
		}
		if c.IsWalkIn && other.IsWalkIn {
			return apperror.NewDuplicate("customer", "walk_in", catalog.WalkInCustomerName)
		}
	}
	c.TenantID = tn
	r.s.st.customers[key{tn, c.ID}] = *c
	return nil
}

func (r *CustomerRepo) Create(ctx context.Context, tn tenant.ID, c *catalog.Customer) error {
	return r.s.do(ctx, func() error { return r.insert(tn, c) })
}

func (r *CustomerRepo) GetByID(ctx context.Context, tn tenant.ID, customerID id.ID) (*catalog.Customer, error) {
	var out *catalog.Customer
	err := r.s.do(ctx, func() error {
		c, ok := r.s.st.customers[key{tn, customerID}]
		if !ok {
			return apperror.NewNotFound("customer", customerID)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *CustomerRepo) Update(ctx context.Context, tn tenant.ID, c *catalog.Customer) error {
	return r.s.do(ctx, func() error {
		k := key{tn, c.ID}
		cur, ok := r.s.st.customers[k]
		if !ok {
			return apperror.NewNotFound("customer", c.ID)
		}
		if cur.Version != c.Version {
			return apperror.NewConflict("customer was modified concurrently")
		}
		c.Version++
		c.TenantID = tn
		c.Code = cur.Code
		c.IsWalkIn = cur.IsWalkIn
		c.CreatedAt = cur.CreatedAt
		r.s.st.customers[k] = *c
		return nil
	})
}

func (r *CustomerRepo) Delete(ctx context.Context, tn tenant.ID, customerID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, customerID}
		if _, ok := r.s.st.customers[k]; !ok {
			return apperror.NewNotFound("customer", customerID)
		}
		for ik, inv := range r.s.st.invoices {
			if ik.tn == tn && inv.CustomerID == customerID {
				return apperror.NewConflict("customer has invoices")
			}
		}
		delete(r.s.st.customers, k)
		return nil
	})
}

func (r *CustomerRepo) List(ctx context.Context, tn tenant.ID, f domain.ListFilter) (domain.ListResult[*catalog.Customer], error) {
	var rows []*catalog.Customer
	_ = r.s.do(ctx, func() error {
		for k, c := range r.s.st.customers {
			if k.tn == tn && matches(f.Search, c.FullName, c.Code, c.Phone, c.Email) {
				rows = append(rows, &c)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b *catalog.Customer) int { return strings.Compare(a.FullName, b.FullName) })
	return page(rows, f, func(c *catalog.Customer) id.ID { return c.ID }), nil
}

func (r *CustomerRepo) CodeExists(ctx context.Context, tn tenant.ID, code string) (bool, error) {
	var found bool
	err := r.s.do(ctx, func() error {
		for k, c := range r.s.st.customers {
			if k.tn == tn && c.Code == code {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *CustomerRepo) EnsureWalkIn(ctx context.Context, tn tenant.ID, candidate *catalog.Customer) (*catalog.Customer, error) {
	var out *catalog.Customer
	err := r.s.do(ctx, func() error {
		for k, c := range r.s.st.customers {
			if k.tn == tn && c.IsWalkIn {
				out = &c
				return nil
			}
		}
		candidate.IsWalkIn = true
		if err := r.insert(tn, candidate); err != nil {
			return err
		}
		cp := *candidate
		out = &cp
		return nil
	})
	return out, err
}

// SupplierRepo implements catalog.SupplierRepository.
type SupplierRepo struct{ s *Store }

var _ catalog.SupplierRepository = (*SupplierRepo)(nil)

func (r *SupplierRepo) Create(ctx context.Context, tn tenant.ID, sp *catalog.Supplier) error {
	return r.s.do(ctx, func() error {
		sp.TenantID = tn
		r.s.st.suppliers[key{tn, sp.ID}] = *sp
		return nil
	})
}

func (r *SupplierRepo) GetByID(ctx context.Context, tn tenant.ID, supplierID id.ID) (*catalog.Supplier, error) {
	var out *catalog.Supplier
	err := r.s.do(ctx, func() error {
		sp, ok := r.s.st.suppliers[key{tn, supplierID}]
		if !ok {
			return apperror.NewNotFound("supplier", supplierID)
		}
		out = &sp
		return nil
	})
	return out, err
}

func (r *SupplierRepo) Update(ctx context.Context, tn tenant.ID, sp *catalog.Supplier) error {
	return r.s.do(ctx, func() error {
		k := key{tn, sp.ID}
		cur, ok := r.s.st.suppliers[k]
		if !ok {
			return apperror.NewNotFound("supplier", sp.ID)
		}
		if cur.Version != sp.Version {
			return apperror.NewConflict("supplier was modified concurrently")
		}
		sp.Version++
		sp.TenantID = tn
		sp.CreatedAt = cur.CreatedAt
		r.s.st.suppliers[k] = *sp
		return nil
	})
}

func (r *SupplierRepo) Delete(ctx context.Context, tn tenant.ID, supplierID id.ID) error {
	return r.s.do(ctx, func() error {
		k := key{tn, supplierID}
		if _, ok := r.s.st.suppliers[k]; !ok {
			return apperror.NewNotFound("supplier", supplierID)
		}
		for ok2, po := range r.s.st.orders {
			if ok2.tn == tn && po.SupplierID == supplierID {
				return apperror.NewConflict("supplier has purchase orders")
			}
		}
		delete(r.s.st.suppliers, k)
		return nil
	})
}

func (r *SupplierRepo) List(ctx context.Context, tn tenant.ID, f domain.ListFilter) (domain.ListResult[*catalog.Supplier], error) {
	var rows []*catalog.Supplier
	_ = r.s.do(ctx, func() error {
		for k, sp := range r.s.st.suppliers {
			if k.tn == tn && matches(f.Search, sp.Name, sp.ContactPerson, sp.Email) {
				rows = append(rows, &sp)
			}
		}
		return nil
	})
	slices.SortFunc(rows, func(a, b *catalog.Supplier) int { return strings.Compare(a.Name, b.Name) })
	return page(rows, f, func(sp *catalog.Supplier) id.ID { return sp.ID }), nil
}
