package catalog

import (
	"context"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/pkg/logger"
)

// AssignBarcode generates and stores a unique EAN-13 code for a product that
// has none. The product row stays locked until the code is written.
func (s *Service) AssignBarcode(ctx context.Context, tn tenant.ID, productID id.ID) (string, error) {
	var code string
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.productRepo.GetForUpdate(ctx, tn, productID)
		if err != nil {
			return err
		}
		if p.HasBarcode() {
			return apperror.NewAlreadyAssigned(productID.String(), *p.Barcode)
		}

		now := s.clock.Now()
		for attempt := 1; attempt <= MaxBarcodeTry; attempt++ {
			candidate := CandidateBarcode(now, s.rand)

			exists, err := s.productRepo.BarcodeExists(ctx, tn, candidate)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			if err := s.productRepo.SetBarcode(ctx, tn, productID, candidate); err != nil {
				// another product took it between the check and the write
				if apperror.IsConflict(err) {
					continue
				}
				return err
			}
			code = candidate
			return nil
		}
		return apperror.NewExhausted("barcode", MaxBarcodeTry)
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "barcode assigned", "tenant_id", tn, "product_id", productID, "barcode", code)
	return code, nil
}

// BarcodeResult is the per-product outcome of a bulk assignment.
type BarcodeResult struct {
	ProductID id.ID  `json:"productId"`
	Barcode   string `json:"barcode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkAssignBarcodes assigns codes to the given products, one transaction
// each. With no ids it picks up to limit products that have no barcode.
func (s *Service) BulkAssignBarcodes(ctx context.Context, tn tenant.ID, productIDs []id.ID, limit int) ([]BarcodeResult, error) {
	if len(productIDs) == 0 {
		if limit <= 0 {
			limit = 500
		}
		var err error
		productIDs, err = s.productRepo.ListWithoutBarcode(ctx, tn, limit)
		if err != nil {
			return nil, err
		}
	}

	results := make([]BarcodeResult, 0, len(productIDs))
	for _, pid := range productIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := BarcodeResult{ProductID: pid}
		code, err := s.AssignBarcode(ctx, tn, pid)
		if err != nil {
			res.Error = apperror.Wrap(err).Message
		} else {
			res.Barcode = code
		}
		results = append(results, res)
	}
	return results, nil
}
