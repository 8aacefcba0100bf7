package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/identity"
	"trendzportal/pkg/logger"
)

// SeedInput describes the site to create and its first administrator.
type SeedInput struct {
	Slug          string
	DisplayName   string
	AdminUsername string
	AdminPassword string
	// Demo adds sample categories, a supplier and products.
	Demo bool
}

// SeedResult is what Seed created.
type SeedResult struct {
	Site  *tenant.Site
	Admin *identity.User
	Token string
}

// Seed creates a site (or reuses the one with the same slug), an admin user
// and optionally demo catalogue data. It returns a token for the admin.
func Seed(ctx context.Context, sites tenant.Registry, svc *Services, in SeedInput) (*SeedResult, error) {
	site, err := ensureSite(ctx, sites, in.Slug, in.DisplayName)
	if err != nil {
		return nil, err
	}
	admin, err := svc.Identity.CreateUser(ctx, site.ID, identity.CreateUserInput{
		Username: in.AdminUsername,
		Password: in.AdminPassword,
		Roles:    []security.Role{security.RoleAdmin},
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	token, err := svc.Identity.TokenFor(admin)
	if err != nil {
		return nil, err
	}

	if in.Demo {
		if err := seedCatalog(ctx, site.ID, svc.Catalog); err != nil {
			return nil, fmt.Errorf("seed catalogue: %w", err)
		}
	}
	return &SeedResult{Site: site, Admin: admin, Token: token}, nil
}

func ensureSite(ctx context.Context, sites tenant.Registry, slug, name string) (*tenant.Site, error) {
	in := tenant.CreateSiteInput{Slug: slug, DisplayName: name}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	all, err := sites.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Slug == in.Slug {
			return s, nil
		}
	}

	s := &tenant.Site{
		ID:          tenant.ID(uuid.NewString()),
		Slug:        in.Slug,
		DisplayName: in.DisplayName,
		Status:      tenant.StatusActive,
	}
	if err := sites.Create(ctx, s); err != nil {
		return nil, err
	}
	logger.Info(ctx, "site created", "tenant_id", s.ID, "slug", s.Slug)
	return s, nil
}

type demoProduct struct {
	name, sku, category string
	cost, price         string
	stock               int64
	warranty            int
}

var demoProducts = []demoProduct{
	{"ThinkPad T14", "LAP-T14", "Laptops", "820.00", "1049.00", 4, 24},
	{"USB-C Dock", "ACC-DOCK", "Accessories", "95.00", "149.00", 10, 12},
	{"Wireless Mouse", "ACC-MOUSE", "Accessories", "9.50", "19.90", 40, 6},
}

func seedCatalog(ctx context.Context, tn tenant.ID, cat *catalog.Service) error {
	categories := map[string]*catalog.ProductCategory{}
	for _, name := range []string{"Laptops", "Accessories"} {
		c := &catalog.ProductCategory{Base: entity.NewBase(), Name: name, Icon: catalog.DefaultCategoryIcon}
		if err := cat.Categories.Create(ctx, tn, c); err != nil {
			return err
		}
		categories[name] = c
	}

	supplier := &catalog.Supplier{Base: entity.NewBase(), Name: "Demo Distribution", IsActive: true}
	if err := cat.Suppliers.Create(ctx, tn, supplier); err != nil {
		return err
	}

	for _, d := range demoProducts {
		p := catalog.NewProduct(d.name, d.sku, types.MustMoney(d.cost), types.MustMoney(d.price))
		p.Stock = d.stock
		p.WarrantyMonths = d.warranty
		categoryID := categories[d.category].ID
		p.CategoryID = &categoryID
		if err := cat.Products.Create(ctx, tn, p); err != nil {
			return err
		}
	}

	results, err := cat.BulkAssignBarcodes(ctx, tn, nil, 0)
	if err != nil {
		return err
	}
	logger.Info(ctx, "demo catalogue seeded", "tenant_id", tn, "products", len(demoProducts), "barcodes", len(results))
	return nil
}
