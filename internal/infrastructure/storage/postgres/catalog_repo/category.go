package catalog_repo

import (
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// CategoryRepo implements catalog.CategoryRepository.
type CategoryRepo struct {
	*BaseCatalogRepo[*catalog.ProductCategory]
}

var _ catalog.CategoryRepository = (*CategoryRepo)(nil)

// NewCategoryRepo creates a new product category repository.
func NewCategoryRepo(txm *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm,
			postgres.ExtractDBColumns[catalog.ProductCategory](),
			BaseOptions{Table: "product_categories", Entity: "category", SearchCols: []string{"name"}},
			func() *catalog.ProductCategory { return &catalog.ProductCategory{} },
		),
	}
}
