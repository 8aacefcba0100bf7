package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/clock"
	"trendzportal/internal/domain"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/infrastructure/storage/memory"
)

func TestSeed_CreatesSiteAdminAndCatalog(t *testing.T) {
	ctx := context.Background()
	svc := NewServices(MemoryStorage(memory.New()), Options{
		Clock: clock.NewFixed(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)),
		JWT:   identity.DefaultJWTConfig("seed"),
	})
	sites := tenant.NewMemoryRegistry()

	res, err := Seed(ctx, sites, svc, SeedInput{
		Slug: "Main-Store", DisplayName: "Main store",
		AdminUsername: "admin", AdminPassword: "changeme1",
		Demo: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "main-store", res.Site.Slug)
	assert.True(t, res.Admin.IsAdmin)

	user, err := svc.JWT.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Site.ID, user.TenantID)

	products, err := svc.Catalog.Products.List(ctx, res.Site.ID, domain.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, products.Items, len(demoProducts))
	for _, p := range products.Items {
		require.NotNil(t, p.Barcode, p.Name)
		assert.Len(t, *p.Barcode, 13)
	}

	// Same slug reuses the site.
	again, err := ensureSite(ctx, sites, "main-store", "Main store")
	require.NoError(t, err)
	assert.Equal(t, res.Site.ID, again.ID)
}

func TestSeed_RejectsBadSlug(t *testing.T) {
	svc := NewServices(MemoryStorage(memory.New()), Options{JWT: identity.DefaultJWTConfig("seed")})
	_, err := Seed(context.Background(), tenant.NewMemoryRegistry(), svc, SeedInput{
		Slug: "no spaces", DisplayName: "x", AdminUsername: "admin", AdminPassword: "changeme1",
	})
	assert.Error(t, err)
}
