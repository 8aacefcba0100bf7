// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"trendzportal/internal/app"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/http/v1/dto"
	"trendzportal/internal/infrastructure/http/v1/handlers"
	"trendzportal/internal/infrastructure/http/v1/middleware"
	"trendzportal/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Services *app.Services

	// Sites resolves X-Tenant-ID.
	Sites tenant.Registry

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator defaults to Services.JWT.
	JWTValidator middleware.JWTValidator

	// Idempotency is optional; nil disables X-Idempotency-Key handling.
	Idempotency middleware.IdempotencyStore

	// BarcodeQueue is optional; nil disables ?async=true on bulk barcodes.
	BarcodeQueue handlers.BarcodeQueue

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger

	// Debug switches gin to debug mode.
	Debug bool
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTValidator == nil {
		cfg.JWTValidator = cfg.Services.JWT
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TenantResolver(cfg.Sites))
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.Idempotency(cfg.Idempotency))

		base := handlers.NewBaseHandler()
		registerCatalogRoutes(protected, base, cfg)
		registerSalesRoutes(protected, base, cfg)
		registerProcurementRoutes(protected, base, cfg)
		registerFinanceRoutes(protected, base, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	h := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.Services.Identity)
	auth := rg.Group("/auth")
	auth.POST("/token", h.Token)
	auth.GET("/me", middleware.Auth(cfg.JWTValidator), h.Me)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	svc := cfg.Services.Catalog
	catalogs := rg.Group("/catalog")
	read := middleware.RequirePermission(security.PermCatalogRead)
	write := middleware.RequirePermission(security.PermCatalogWrite)

	// --- PRODUCTS ---
	{
		h := handlers.NewProductHandler(base, svc, cfg.BarcodeQueue)
		products := catalogs.Group("/products")
		RegisterCatalogRoutes(products, h, security.PermCatalogRead, security.PermCatalogWrite)
		products.PUT("/:id", write, h.Update)
		products.POST("/:id/barcode", write, h.AssignBarcode)
		products.POST("/barcodes", write, h.BulkAssignBarcodes)
		products.GET("/by-barcode/:code", read, h.Lookup)
	}

	// --- CATEGORIES ---
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*catalog.ProductCategory, dto.CategoryRequest]{
			Service:      svc.Categories,
			MapCreateDTO: dto.CategoryRequest.ToCategory,
		})
		RegisterCatalogRoutes(catalogs.Group("/categories"), h, security.PermCatalogRead, security.PermCatalogWrite)
	}

	// --- CUSTOMERS ---
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*catalog.Customer, dto.CustomerRequest]{
			Service:      svc.Customers,
			MapCreateDTO: dto.CustomerRequest.ToCustomer,
		})
		// Cashiers register customers at the counter.
		customers := catalogs.Group("/customers")
		customers.GET("", read, h.List)
		customers.POST("", middleware.RequireAnyPermission(security.PermCatalogWrite, security.PermSalesWrite), h.Create)
		customers.GET("/:id", read, h.Get)
	}

	// --- SUPPLIERS ---
	{
		h := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*catalog.Supplier, dto.SupplierRequest]{
			Service:      svc.Suppliers,
			MapCreateDTO: dto.SupplierRequest.ToSupplier,
		})
		RegisterCatalogRoutes(catalogs.Group("/suppliers"), h, security.PermCatalogRead, security.PermCatalogWrite)
	}
}

func registerSalesRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSalesHandler(base, cfg.Services.Sales, cfg.Services.Ledger)
	invoices := rg.Group("/sales/invoices")
	RegisterDocumentRoutes(invoices, h, security.PermSalesRead, security.PermSalesWrite)

	write := middleware.RequirePermission(security.PermSalesWrite)
	invoices.POST("/:id/items", write, h.AddItem)
	invoices.DELETE("/:id/items/:itemId", write, h.RemoveItem)
	invoices.GET("/:id/sold-items", middleware.RequirePermission(security.PermSalesRead), h.SoldItems)
}

func registerProcurementRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProcurementHandler(base, cfg.Services.Procurement)
	group := rg.Group("/procurement")
	orders := group.Group("/orders")
	RegisterDocumentRoutes(orders, h, security.PermProcurementRead, security.PermProcurementWrite)

	write := middleware.RequirePermission(security.PermProcurementWrite)
	orders.POST("/:id/payments", write, h.RecordPayment)
	group.DELETE("/payments/:id", write, h.DeletePayment)
}

func registerFinanceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	s := cfg.Services
	h := handlers.NewFinanceHandler(base, s.Ledger, s.Aggregator, s.DailyRevenue)
	group := rg.Group("/finance")
	read := middleware.RequirePermission(security.PermFinanceRead)
	write := middleware.RequirePermission(security.PermFinanceWrite)

	group.GET("/transactions", read, h.ListTransactions)
	group.POST("/transactions", write, h.CreateTransaction)
	group.DELETE("/transactions/:id", write, h.DeleteTransaction)

	group.GET("/categories", read, h.ListCategories)
	group.POST("/categories", write, h.CreateCategory)

	group.GET("/inventory", read, h.ListInventory)
	group.POST("/inventory/adjustments", middleware.RequireAnyPermission(security.PermFinanceWrite, security.PermCatalogWrite), h.AdjustStock)

	group.GET("/summaries/:year", read, h.ListSummaries)
	group.GET("/summaries/:year/:month", read, h.GetSummary)
	group.POST("/summaries/:year/:month/recompute", write, h.RecomputeSummary)

	daily := group.Group("/daily-revenue")
	daily.GET("", read, h.ListDailyRevenue)
	daily.POST("", write, h.CreateDailyRevenue)
	daily.GET("/:id", read, h.GetDailyRevenue)
	daily.PUT("/:id", write, h.UpdateDailyRevenue)
	daily.DELETE("/:id", write, h.DeleteDailyRevenue)
}
