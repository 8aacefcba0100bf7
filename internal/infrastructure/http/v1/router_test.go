package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/app"
	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain/identity"
	v1 "trendzportal/internal/infrastructure/http/v1"
	"trendzportal/internal/infrastructure/http/v1/middleware"
	"trendzportal/internal/infrastructure/storage/memory"
	"trendzportal/internal/infrastructure/storage/postgres"
)

const (
	siteA = tenant.ID("3f1c2b9e-8a47-4d0a-9b1e-6c5d4e3f2a10")
	siteB = tenant.ID("9d8e7f6a-5b4c-4d3e-8f2a-1b0c9d8e7f6a")
)

type fakeIdempotency struct {
	mu    sync.Mutex
	done  map[string]*postgres.IdempotencyReplay
	calls int
}

func (f *fakeIdempotency) AcquireKey(_ context.Context, tn tenant.ID, key, _, _, _ string) (*postgres.IdempotencyReplay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if r, ok := f.done[tn.String()+"/"+key]; ok {
		return r, nil
	}
	return nil, nil
}

func (f *fakeIdempotency) CompleteKey(_ context.Context, tn tenant.ID, key string, status int, ct string, resp any) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done[tn.String()+"/"+key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: ct, Body: body}
	return nil
}

func (f *fakeIdempotency) FailKey(ctx context.Context, tn tenant.ID, key string, status int, ct string, resp any) error {
	return f.CompleteKey(ctx, tn, key, status, ct, resp)
}

var _ middleware.IdempotencyStore = (*fakeIdempotency)(nil)

type apiHarness struct {
	t      *testing.T
	router *gin.Engine
	svc    *app.Services
	idem   *fakeIdempotency
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	svc := app.NewServices(app.MemoryStorage(memory.New()), app.Options{
		Clock: clock.NewFixed(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)),
		JWT:   identity.DefaultJWTConfig("test-secret"),
	})
	sites := tenant.NewMemoryRegistry(
		&tenant.Site{ID: siteA, Slug: "site-a", DisplayName: "Site A", Status: tenant.StatusActive},
		&tenant.Site{ID: siteB, Slug: "site-b", DisplayName: "Site B", Status: tenant.StatusSuspended},
	)
	idem := &fakeIdempotency{done: map[string]*postgres.IdempotencyReplay{}}
	return &apiHarness{
		t:      t,
		svc:    svc,
		idem:   idem,
		router: v1.NewRouter(v1.RouterConfig{Services: svc, Sites: sites, Idempotency: idem}),
	}
}

func (h *apiHarness) token(tn tenant.ID, username string, roles ...security.Role) string {
	h.t.Helper()
	u, err := h.svc.Identity.CreateUser(context.Background(), tn, identity.CreateUserInput{
		Username: username,
		Password: "password123",
		Roles:    roles,
	})
	require.NoError(h.t, err)
	tok, err := h.svc.Identity.TokenFor(u)
	require.NoError(h.t, err)
	return tok
}

func (h *apiHarness) do(method, path, tok string, body any, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeader, siteA.String())
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[struct {
		Code string `json:"code"`
	}](t, w).Code
}

func TestHealthLive(t *testing.T) {
	h := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantAndAuthChecks(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "admin", security.RoleAdmin)

	t.Run("missing tenant", func(t *testing.T) {
		w := h.do(http.MethodGet, "/api/v1/catalog/products", tok, nil, middleware.TenantHeader, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("unknown tenant", func(t *testing.T) {
		w := h.do(http.MethodGet, "/api/v1/catalog/products", tok, nil,
			middleware.TenantHeader, "00000000-0000-4000-8000-000000000001")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("suspended tenant", func(t *testing.T) {
		w := h.do(http.MethodGet, "/api/v1/catalog/products", tok, nil, middleware.TenantHeader, siteB.String())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
	t.Run("no token", func(t *testing.T) {
		w := h.do(http.MethodGet, "/api/v1/catalog/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperror.CodeUnauthorized, errorCode(t, w))
	})
	t.Run("token of another site", func(t *testing.T) {
		other := h.token(siteB, "intruder", security.RoleAdmin)
		w := h.do(http.MethodGet, "/api/v1/catalog/products", other, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
	t.Run("missing permission", func(t *testing.T) {
		viewer := h.token(siteA, "viewer", security.RoleViewer)
		w := h.do(http.MethodPost, "/api/v1/catalog/products", viewer, map[string]any{"name": "X", "sku": "X"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestIssueToken(t *testing.T) {
	h := newAPI(t)
	h.token(siteA, "cashier", security.RoleCashier)

	w := h.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "cashier", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok := decode[struct {
		AccessToken string `json:"accessToken"`
	}](t, w).AccessToken
	require.NotEmpty(t, tok)

	w = h.do(http.MethodGet, "/api/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), security.PermSalesWrite)

	w = h.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "cashier", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type idBody struct {
	ID string `json:"id"`
}

func TestInvoicePostingFlow(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "admin", security.RoleAdmin)

	w := h.do(http.MethodPost, "/api/v1/catalog/products", tok, map[string]any{
		"name": "Router", "sku": "RT-1", "costPrice": "60.00", "unitPrice": "100.00", "stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[idBody](t, w)

	w = h.do(http.MethodPost, "/api/v1/catalog/products/"+product.ID+"/barcode", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	barcode := decode[struct {
		Barcode string `json:"barcode"`
	}](t, w).Barcode
	assert.Len(t, barcode, 13)

	w = h.do(http.MethodPost, "/api/v1/catalog/products/"+product.ID+"/barcode", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeAlreadyAssigned, errorCode(t, w))

	w = h.do(http.MethodPost, "/api/v1/sales/invoices", tok, map[string]any{
		"items": []map[string]any{{"productId": product.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoice := decode[idBody](t, w)

	for _, status := range []string{"sent", "paid"} {
		w = h.do(http.MethodPost, "/api/v1/sales/invoices/"+invoice.ID+"/status", tok, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/api/v1/sales/invoices/"+invoice.ID+"/status", tok, map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInvalidTransition, errorCode(t, w))

	w = h.do(http.MethodGet, "/api/v1/sales/invoices/"+invoice.ID+"/sold-items", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sold := decode[struct {
		Items []struct {
			Quantity int64 `json:"quantity"`
		} `json:"items"`
	}](t, w)
	require.Len(t, sold.Items, 1)
	assert.Equal(t, int64(2), sold.Items[0].Quantity)

	w = h.do(http.MethodGet, "/api/v1/catalog/products/"+product.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), decode[struct {
		Stock int64 `json:"stock"`
	}](t, w).Stock)

	w = h.do(http.MethodGet, "/api/v1/catalog/products/by-barcode/"+barcode, tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/v1/finance/summaries/2026/10", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[struct {
		TotalSales    types.Money `json:"totalSales"`
		TotalInvoices int64       `json:"totalInvoices"`
		GrossProfit   types.Money `json:"grossProfit"`
	}](t, w)
	assert.True(t, types.MustMoney("200").Equal(summary.TotalSales), summary.TotalSales.String())
	assert.Equal(t, int64(1), summary.TotalInvoices)
	assert.True(t, types.MustMoney("80").Equal(summary.GrossProfit), summary.GrossProfit.String())

	w = h.do(http.MethodGet, "/api/v1/finance/summaries/2026/13", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsufficientStockIsRejected(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "admin", security.RoleAdmin)

	w := h.do(http.MethodPost, "/api/v1/catalog/products", tok, map[string]any{
		"name": "Cable", "sku": "CB-1", "costPrice": "1.00", "unitPrice": "2.00", "stock": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[idBody](t, w)

	w = h.do(http.MethodPost, "/api/v1/sales/invoices", tok, map[string]any{
		"items": []map[string]any{{"productId": product.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoice := decode[idBody](t, w)

	w = h.do(http.MethodPost, "/api/v1/sales/invoices/"+invoice.ID+"/status", tok, map[string]string{"status": "sent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/api/v1/sales/invoices/"+invoice.ID+"/status", tok, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientStock, errorCode(t, w))
}

func TestPurchaseOrderAndPayments(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "buyer", security.RoleBuyer)

	w := h.do(http.MethodPost, "/api/v1/catalog/suppliers", tok, map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	supplier := decode[idBody](t, w)

	w = h.do(http.MethodPost, "/api/v1/catalog/products", tok, map[string]any{
		"name": "Switch", "sku": "SW-1", "costPrice": "10.00", "unitPrice": "15.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[idBody](t, w)

	w = h.do(http.MethodPost, "/api/v1/procurement/orders", tok, map[string]any{
		"supplierId": supplier.ID,
		"items":      []map[string]any{{"productId": product.ID, "quantity": 10, "unitCost": "10.00"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[idBody](t, w)

	for _, status := range []string{"ordered", "received"} {
		w = h.do(http.MethodPost, "/api/v1/procurement/orders/"+order.ID+"/status", tok, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/api/v1/procurement/orders/"+order.ID+"/payments", tok, map[string]any{
		"amount": "40.00", "method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/v1/procurement/orders/"+order.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Payments       []idBody `json:"payments"`
		PaymentSummary struct {
			Balance types.Money `json:"balance"`
			Status  string      `json:"status"`
		} `json:"paymentSummary"`
	}](t, w)
	require.Len(t, got.Payments, 1)
	assert.True(t, types.MustMoney("60").Equal(got.PaymentSummary.Balance), got.PaymentSummary.Balance.String())
	assert.Equal(t, "partial", got.PaymentSummary.Status)

	w = h.do(http.MethodDelete, "/api/v1/procurement/payments/"+got.Payments[0].ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodGet, "/api/v1/catalog/products/"+product.ID, tok, nil)
	assert.Equal(t, int64(10), decode[struct {
		Stock int64 `json:"stock"`
	}](t, w).Stock)
}

func TestIdempotentReplay(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "admin", security.RoleAdmin)
	body := map[string]any{"name": "Acme"}

	first := h.do(http.MethodPost, "/api/v1/catalog/suppliers", tok, body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := h.do(http.MethodPost, "/api/v1/catalog/suppliers", tok, body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decode[idBody](t, first).ID, decode[idBody](t, second).ID)

	w := h.do(http.MethodGet, "/api/v1/catalog/suppliers", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[struct {
		TotalCount int64 `json:"totalCount"`
	}](t, w).TotalCount)
}

func TestManualTransactionsAndDailyRevenue(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "accountant", security.RoleAccountant)

	w := h.do(http.MethodPost, "/api/v1/finance/categories", tok, map[string]string{"name": "Rent", "kind": "expense"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decode[idBody](t, w)

	w = h.do(http.MethodPost, "/api/v1/finance/transactions", tok, map[string]any{
		"kind": "expense", "categoryId": category.ID, "amount": "500.00", "date": "2026-10-01", "description": "October rent",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	txn := decode[idBody](t, w)

	w = h.do(http.MethodGet, "/api/v1/finance/transactions?kind=expense&from=2026-10-01&to=2026-10-31", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[struct {
		TotalCount int64 `json:"totalCount"`
	}](t, w).TotalCount)

	w = h.do(http.MethodDelete, "/api/v1/finance/transactions/"+txn.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodPost, "/api/v1/finance/daily-revenue", tok, map[string]any{
		"date": "2026-10-17", "cashSales": "300.00", "posSales": "200.00", "purchaseTotal": "120.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[struct {
		ID           string      `json:"id"`
		DailyRevenue types.Money `json:"dailyRevenue"`
	}](t, w)
	assert.True(t, types.MustMoney("380").Equal(entry.DailyRevenue))

	w = h.do(http.MethodGet, "/api/v1/finance/daily-revenue?from=2026-10-01&to=2026-10-31", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items  []idBody `json:"items"`
		Totals struct {
			Days int `json:"days"`
		} `json:"totals"`
	}](t, w)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Totals.Days)

	w = h.do(http.MethodGet, "/api/v1/finance/daily-revenue?from=oct", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedPathIDIsRejected(t *testing.T) {
	h := newAPI(t)
	tok := h.token(siteA, "admin", security.RoleAdmin)

	for _, path := range []string{
		"/api/v1/sales/invoices/not-an-id",
		"/api/v1/catalog/products/42",
		"/api/v1/procurement/orders/po-1",
	} {
		w := h.do(http.MethodGet, path, tok, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, apperror.CodeValidation, errorCode(t, w), path)
	}
}
