// Package tx defines the transaction boundary used by domain services.
// The Postgres implementation lives in infrastructure/storage/postgres and the
// in-process one in infrastructure/storage/memory.
package tx

import (
	"context"
)

// Manager runs work inside a single atomic unit.
//
// Nested calls reuse the transaction already carried by ctx, so a ledger
// operation and the posting it triggers commit or roll back together.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
