package v1

import (
	"github.com/gin-gonic/gin"

	"trendzportal/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler is what every catalogue handler serves.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// DocumentRouteHandler is what the invoice and purchase order handlers serve.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetStatus(c *gin.Context)
}

// RegisterCatalogRoutes registers list, create and get for a catalogue.
//
// Usage:
//
//	handler := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[...]{...})
//	RegisterCatalogRoutes(catalogs.Group("/suppliers"), handler, security.PermCatalogRead, security.PermCatalogWrite)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, readPerm, writePerm string) {
	group.GET("", middleware.RequirePermission(readPerm), handler.List)
	group.POST("", middleware.RequirePermission(writePerm), handler.Create)
	group.GET("/:id", middleware.RequirePermission(readPerm), handler.Get)
}

// RegisterDocumentRoutes registers CRUD plus the status transition for a
// document.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, readPerm, writePerm string) {
	group.GET("", middleware.RequirePermission(readPerm), handler.List)
	group.POST("", middleware.RequirePermission(writePerm), handler.Create)
	group.GET("/:id", middleware.RequirePermission(readPerm), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(writePerm), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(writePerm), handler.Delete)
	group.POST("/:id/status", middleware.RequirePermission(writePerm), handler.SetStatus)
}
