package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/storage/memory"
)

const tn = tenant.ID("5b1d3c0e-2a44-4e0b-8c7f-0d9e1a2b3c4d")

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	store := memory.New()
	return catalog.NewService(catalog.Config{
		Products:   store.Products(),
		Categories: store.Categories(),
		Customers:  store.Customers(),
		Suppliers:  store.Suppliers(),
		TxManager:  store,
		Clock:      clock.NewFixed(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)),
	})
}

func TestProductSKUUnique(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first := catalog.NewProduct("Desk lamp", "LAMP-1", types.MustMoney("10"), types.MustMoney("19.99"))
	require.NoError(t, svc.Products.Create(ctx, tn, first))

	second := catalog.NewProduct("Other lamp", "LAMP-1", types.MustMoney("10"), types.MustMoney("19.99"))
	err := svc.Products.Create(ctx, tn, second)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestProductPriceBelowCost(t *testing.T) {
	svc := newService(t)
	p := catalog.NewProduct("Cable", "CBL", types.MustMoney("5"), types.MustMoney("4"))
	err := svc.Products.Create(context.Background(), tn, p)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestProductUnknownCategory(t *testing.T) {
	svc := newService(t)
	p := catalog.NewProduct("Cable", "CBL", types.MustMoney("1"), types.MustMoney("2"))
	missing := entity.NewBase().ID
	p.CategoryID = &missing
	err := svc.Products.Create(context.Background(), tn, p)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestWalkInCustomerIsShared(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first, err := svc.WalkInCustomer(ctx, tn)
	require.NoError(t, err)
	second, err := svc.WalkInCustomer(ctx, tn)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.IsWalkIn)
	assert.Equal(t, catalog.WalkInCustomerName, first.FullName)
	assert.True(t, catalog.ValidCustomerCode(first.Code))
}

func TestCustomerCodeAssigned(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c := &catalog.Customer{Base: entity.NewBase(), FullName: "Ada Obi", Phone: "+2348000000000"}
	require.NoError(t, svc.Customers.Create(ctx, tn, c))
	assert.True(t, catalog.ValidCustomerCode(c.Code))
	assert.Equal(t, "2610", c.Code[:4])
	assert.Equal(t, catalog.ContactPhone, c.PreferredContact)
}

func TestFindByBarcode(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	p := catalog.NewProduct("Mug", "MUG", types.MustMoney("1"), types.MustMoney("3"))
	require.NoError(t, svc.Products.Create(ctx, tn, p))

	code, err := svc.AssignBarcode(ctx, tn, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2902610", code[:7])

	got, err := svc.FindByBarcode(ctx, tn, catalog.FormatEAN13(code))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.FindByBarcode(ctx, tn, "1234567890123")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestBulkAssignSkipsProductsWithBarcode(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	a := catalog.NewProduct("A", "A", types.MustMoney("1"), types.MustMoney("2"))
	b := catalog.NewProduct("B", "B", types.MustMoney("1"), types.MustMoney("2"))
	require.NoError(t, svc.Products.Create(ctx, tn, a))
	require.NoError(t, svc.Products.Create(ctx, tn, b))
	_, err := svc.AssignBarcode(ctx, tn, a.ID)
	require.NoError(t, err)

	results, err := svc.BulkAssignBarcodes(ctx, tn, nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, b.ID, results[0].ProductID)
	assert.Empty(t, results[0].Error)

	// explicit ids report per-product failures without aborting
	results, err = svc.BulkAssignBarcodes(ctx, tn, []id.ID{a.ID, b.ID}, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Error)
	assert.NotEmpty(t, results[1].Error)
}

func TestProfitMargin(t *testing.T) {
	p := catalog.NewProduct("X", "X", types.MustMoney("10"), types.MustMoney("25"))
	assert.Equal(t, "15.00", p.ProfitAmount().StringFixed(2))
	assert.Equal(t, "150.00", p.ProfitMargin().StringFixed(2))

	p.CostPrice = types.Zero()
	assert.True(t, p.ProfitMargin().IsZero())
}
