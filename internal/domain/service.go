package domain

import (
	"context"
	"fmt"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/pkg/logger"
)

// CatalogService provides CRUD for reference data (products, customers,
// suppliers, product categories).
type CatalogService[T entity.Record] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	clock     clock.Clock
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Record] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	Clock      clock.Clock
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Record](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		clock:      c,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// TxManager exposes the transaction boundary to packages that extend the service.
func (s *CatalogService[T]) TxManager() tx.Manager {
	return s.txManager
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, key any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, key)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", key)
}

// Create validates e, runs before-create hooks and inserts it.
func (s *CatalogService[T]) Create(ctx context.Context, tn tenant.ID, e T) error {
	e.Stamp(tn, s.clock.Now())

	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.RunBeforeCreate(ctx, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, tn, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, e); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, tn tenant.ID, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, tn, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// Update validates and writes e. A stale version yields a conflict.
func (s *CatalogService[T]) Update(ctx context.Context, tn tenant.ID, e T) error {
	e.Touch(s.clock.Now())

	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.RunBeforeUpdate(ctx, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, tn, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, e); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// Delete removes the entity after running before-delete hooks.
func (s *CatalogService[T]) Delete(ctx context.Context, tn tenant.ID, entityID id.ID) error {
	var e T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetByID(ctx, tn, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		if err := s.hooks.RunBeforeDelete(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tn, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, e); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, tn tenant.ID, filter ListFilter) (ListResult[T], error) {
	filter.Normalize()
	return s.repo.List(ctx, tn, filter)
}
