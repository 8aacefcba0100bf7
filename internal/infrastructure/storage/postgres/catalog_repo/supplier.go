package catalog_repo

import (
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/infrastructure/storage/postgres"
)

// SupplierRepo implements catalog.SupplierRepository.
type SupplierRepo struct {
	*BaseCatalogRepo[*catalog.Supplier]
}

var _ catalog.SupplierRepository = (*SupplierRepo)(nil)

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm,
			postgres.ExtractDBColumns[catalog.Supplier](),
			BaseOptions{
				Table:      "suppliers",
				Entity:     "supplier",
				SearchCols: []string{"name", "contact_person", "email"},
			},
			func() *catalog.Supplier { return &catalog.Supplier{} },
		),
	}
}
