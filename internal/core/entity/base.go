// Package entity holds the fields and behaviour shared by every stored row.
package entity

import (
	"context"
	"time"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
)

// Validatable is implemented by entities that check their own invariants
// without touching storage.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Base contains the columns every catalogue row carries.
type Base struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"-"`

	// Version is bumped on each update and checked for optimistic locking.
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBase returns a Base with a fresh ID.
func NewBase() Base {
	return Base{ID: id.New(), Version: 1}
}

// GetID returns the row ID.
func (b *Base) GetID() id.ID { return b.ID }

// Stamp binds the row to a tenant and sets its timestamps for insertion.
func (b *Base) Stamp(tn tenant.ID, now time.Time) {
	if id.IsNil(b.ID) {
		b.ID = id.New()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	b.TenantID = tn
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Touch marks the row as modified at now.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = now
}

// Record is what the generic catalogue service and repositories operate on.
type Record interface {
	Validatable
	GetID() id.ID
	Stamp(tn tenant.ID, now time.Time)
	Touch(now time.Time)
}
