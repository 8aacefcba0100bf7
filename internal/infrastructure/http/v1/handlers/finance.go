package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/infrastructure/http/v1/dto"
)

// FinanceHandler serves the finance ledger, monthly summaries and the daily
// revenue register.
type FinanceHandler struct {
	*BaseHandler
	ledger     *finance.Ledger
	aggregator *finance.Aggregator
	daily      *finance.DailyRevenueService
}

// NewFinanceHandler creates a finance handler.
func NewFinanceHandler(base *BaseHandler, ledger *finance.Ledger, aggregator *finance.Aggregator, daily *finance.DailyRevenueService) *FinanceHandler {
	return &FinanceHandler{BaseHandler: base, ledger: ledger, aggregator: aggregator, daily: daily}
}

// --- Transactions ---

// ListTransactions handles GET /finance/transactions.
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	f := finance.TransactionFilter{
		ListFilter: h.ListFilter(c, "-tx_date"),
		Kind:       finance.TransactionKind(c.Query("kind")),
		SourceKind: finance.SourceKind(c.Query("sourceKind")),
	}
	var ok bool
	if f.CategoryID, ok = h.QueryID(c, "categoryId"); !ok {
		return
	}
	if f.Period, ok = h.DateRange(c); !ok {
		return
	}

	result, err := h.ledger.Transactions(c.Request.Context(), h.Tenant(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// CreateTransaction handles POST /finance/transactions.
func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	var req dto.ManualTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.ledger.RecordManual(c.Request.Context(), h.Tenant(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// DeleteTransaction handles DELETE /finance/transactions/:id. Only manual
// transactions can be deleted.
func (h *FinanceHandler) DeleteTransaction(c *gin.Context) {
	txID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteManual(c.Request.Context(), h.Tenant(c), txID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Categories ---

// ListCategories handles GET /finance/categories.
func (h *FinanceHandler) ListCategories(c *gin.Context) {
	kind := finance.CategoryKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		h.Error(c, apperror.NewValidation("unknown category kind").WithDetail("param", "kind"))
		return
	}
	items, err := h.ledger.Categories(c.Request.Context(), h.Tenant(c), kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(items))
}

// CreateCategory handles POST /finance/categories.
func (h *FinanceHandler) CreateCategory(c *gin.Context) {
	var req dto.FinanceCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cat, err := h.ledger.CreateCategory(c.Request.Context(), h.Tenant(c), req.Name, req.Kind, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cat)
}

// --- Inventory ---

// ListInventory handles GET /finance/inventory?productId=&from=&to=.
func (h *FinanceHandler) ListInventory(c *gin.Context) {
	productID, ok := h.QueryID(c, "productId")
	if !ok {
		return
	}
	if productID == nil {
		h.Error(c, apperror.NewValidation("productId is required").WithDetail("param", "productId"))
		return
	}
	rng, ok := h.DateRange(c)
	if !ok {
		return
	}
	rows, err := h.ledger.InventoryTransactions(c.Request.Context(), h.Tenant(c), *productID, rng)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(rows))
}

// AdjustStock handles POST /finance/inventory/adjustments.
func (h *FinanceHandler) AdjustStock(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	row, err := h.ledger.AdjustStock(c.Request.Context(), h.Tenant(c), req.ProductID, req.Delta, req.Kind, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, row)
}

// --- Summaries ---

func (h *FinanceHandler) period(c *gin.Context) (finance.Period, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid year").WithDetail("param", "year"))
		return finance.Period{}, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid month").WithDetail("param", "month"))
		return finance.Period{}, false
	}
	p, err := finance.NewPeriod(year, month)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return finance.Period{}, false
	}
	return p, true
}

// GetSummary handles GET /finance/summaries/:year/:month.
func (h *FinanceHandler) GetSummary(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	s, err := h.aggregator.Get(c.Request.Context(), h.Tenant(c), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// RecomputeSummary handles POST /finance/summaries/:year/:month/recompute.
func (h *FinanceHandler) RecomputeSummary(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	s, err := h.aggregator.Recompute(c.Request.Context(), h.Tenant(c), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// ListSummaries handles GET /finance/summaries/:year.
func (h *FinanceHandler) ListSummaries(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		h.Error(c, apperror.NewValidation("invalid year").WithDetail("param", "year"))
		return
	}
	items, err := h.aggregator.List(c.Request.Context(), h.Tenant(c), year)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(items))
}

// --- Daily revenue ---

// ListDailyRevenue handles GET /finance/daily-revenue?from=&to=.
func (h *FinanceHandler) ListDailyRevenue(c *gin.Context) {
	rng, ok := h.DateRange(c)
	if !ok {
		return
	}
	ctx, tn := c.Request.Context(), h.Tenant(c)
	items, err := h.daily.List(ctx, tn, rng)
	if err != nil {
		h.Error(c, err)
		return
	}
	totals, err := h.daily.Totals(ctx, tn, rng)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []finance.DailyRevenue{}
	}
	h.OK(c, dto.DailyRevenueListResponse{Items: items, Totals: totals})
}

// GetDailyRevenue handles GET /finance/daily-revenue/:id.
func (h *FinanceHandler) GetDailyRevenue(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	d, err := h.daily.Get(c.Request.Context(), h.Tenant(c), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// CreateDailyRevenue handles POST /finance/daily-revenue.
func (h *FinanceHandler) CreateDailyRevenue(c *gin.Context) {
	var req dto.DailyRevenueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	d, err := h.daily.Create(c.Request.Context(), h.Tenant(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, d)
}

// UpdateDailyRevenue handles PUT /finance/daily-revenue/:id.
func (h *FinanceHandler) UpdateDailyRevenue(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.DailyRevenueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	d, err := h.daily.Update(c.Request.Context(), h.Tenant(c), entryID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// DeleteDailyRevenue handles DELETE /finance/daily-revenue/:id.
func (h *FinanceHandler) DeleteDailyRevenue(c *gin.Context) {
	entryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.daily.Delete(c.Request.Context(), h.Tenant(c), entryID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
