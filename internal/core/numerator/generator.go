package numerator

import (
	"context"
	"time"

	"trendzportal/internal/core/tenant"
)

// Generator hands out sequential document numbers per tenant.
// Implementations must be safe under concurrent callers: two calls never
// return the same number for the same tenant, config and period.
type Generator interface {
	GetNextNumber(ctx context.Context, tn tenant.ID, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves a sequence (imports, repair scripts).
	SetNextNumber(ctx context.Context, tn tenant.ID, cfg Config, period time.Time, value int64) error
}
