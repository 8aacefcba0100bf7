// Package domain holds the list, hook and generic catalogue types shared by
// the business packages.
package domain

import (
	"context"
	"time"

	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches name-like columns case-insensitively.
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// OrderBy is a column name, "-" prefix for descending (e.g. "-created_at").
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// Normalize clamps paging values.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// DateRange is an inclusive calendar-date range. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls within the range.
func (r DateRange) Contains(d time.Time) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Repository Interfaces ---

// CatalogRepository defines CRUD operations for reference data rows.
type CatalogRepository[T entity.Record] interface {
	Create(ctx context.Context, tn tenant.ID, e T) error

	GetByID(ctx context.Context, tn tenant.ID, id id.ID) (T, error)

	// Update writes e if its version matches the stored one, then bumps it.
	Update(ctx context.Context, tn tenant.ID, e T) error

	// Delete removes the row. Rows still referenced fail with a conflict.
	Delete(ctx context.Context, tn tenant.ID, id id.ID) error

	List(ctx context.Context, tn tenant.ID, filter ListFilter) (ListResult[T], error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks for event in registration order, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T])  { r.On(AfterCreate, hook) }
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }
func (r *HookRegistry[T]) OnAfterUpdate(hook Hook[T])  { r.On(AfterUpdate, hook) }
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }
func (r *HookRegistry[T]) OnAfterDelete(hook Hook[T])  { r.On(AfterDelete, hook) }

func (r *HookRegistry[T]) RunBeforeCreate(ctx context.Context, e T) error {
	return r.Run(ctx, BeforeCreate, e)
}

func (r *HookRegistry[T]) RunAfterCreate(ctx context.Context, e T) error {
	return r.Run(ctx, AfterCreate, e)
}

func (r *HookRegistry[T]) RunBeforeUpdate(ctx context.Context, e T) error {
	return r.Run(ctx, BeforeUpdate, e)
}

func (r *HookRegistry[T]) RunAfterUpdate(ctx context.Context, e T) error {
	return r.Run(ctx, AfterUpdate, e)
}

func (r *HookRegistry[T]) RunBeforeDelete(ctx context.Context, e T) error {
	return r.Run(ctx, BeforeDelete, e)
}

func (r *HookRegistry[T]) RunAfterDelete(ctx context.Context, e T) error {
	return r.Run(ctx, AfterDelete, e)
}
