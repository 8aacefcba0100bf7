package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trendzportal/internal/core/entity"
	"trendzportal/internal/domain"
	"trendzportal/internal/infrastructure/http/v1/dto"
)

// CatalogHandler provides generic HTTP handlers for catalogue entities.
type CatalogHandler[T entity.Record, CreateDTO any] struct {
	*BaseHandler
	service      *domain.CatalogService[T]
	defaultOrder string

	mapCreateDTO func(dto CreateDTO) T
	mapToDTO     func(entity T) any
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Record, CreateDTO any] struct {
	Service *domain.CatalogService[T]
	// DefaultOrder is the list order when the request gives none. Empty
	// leaves it to the repository.
	DefaultOrder string
	MapCreateDTO func(dto CreateDTO) T
	// MapToDTO defaults to returning the entity itself.
	MapToDTO func(entity T) any
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T entity.Record, CreateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO],
) *CatalogHandler[T, CreateDTO] {
	toDTO := cfg.MapToDTO
	if toDTO == nil {
		toDTO = func(e T) any { return e }
	}
	return &CatalogHandler[T, CreateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		defaultOrder: cfg.DefaultOrder,
		mapCreateDTO: cfg.MapCreateDTO,
		mapToDTO:     toDTO,
	}
}

// List handles GET /{entity}.
func (h *CatalogHandler[T, CreateDTO]) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.Tenant(c), h.ListFilter(c, h.defaultOrder))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = h.mapToDTO(item)
	}
	c.JSON(http.StatusOK, dto.ListResponse[any]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T, CreateDTO]) Get(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetByID(c.Request.Context(), h.Tenant(c), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.mapToDTO(e))
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T, CreateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}
	e := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), h.Tenant(c), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.mapToDTO(e))
}

// Delete handles DELETE /{entity}/:id.
func (h *CatalogHandler[T, CreateDTO]) Delete(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), h.Tenant(c), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
