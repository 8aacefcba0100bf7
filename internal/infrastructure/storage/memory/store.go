// Package memory is a transactional in-process implementation of every
// repository. Transactions are serialised on one mutex and roll back by
// restoring a snapshot taken when they began.
package memory

import (
	"context"
	"maps"
	"sync"

	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
)

type key struct {
	tn tenant.ID
	id id.ID
}

type periodKey struct {
	tn    tenant.ID
	year  int
	month int
}

type state struct {
	products   map[key]catalog.Product
	categories map[key]catalog.ProductCategory
	customers  map[key]catalog.Customer
	suppliers  map[key]catalog.Supplier

	invoices map[key]sales.Invoice
	orders   map[key]procurement.PurchaseOrder
	payments map[key]procurement.Payment

	finCategories map[key]finance.Category
	transactions  map[key]finance.Transaction
	inventory     map[key]finance.InventoryTransaction
	soldItems     map[key]finance.SoldItem
	summaries     map[periodKey]finance.Summary
	daily         map[key]finance.DailyRevenue

	users map[key]identity.User
}

func newState() state {
	return state{
		products:      make(map[key]catalog.Product),
		categories:    make(map[key]catalog.ProductCategory),
		customers:     make(map[key]catalog.Customer),
		suppliers:     make(map[key]catalog.Supplier),
		invoices:      make(map[key]sales.Invoice),
		orders:        make(map[key]procurement.PurchaseOrder),
		payments:      make(map[key]procurement.Payment),
		finCategories: make(map[key]finance.Category),
		transactions:  make(map[key]finance.Transaction),
		inventory:     make(map[key]finance.InventoryTransaction),
		soldItems:     make(map[key]finance.SoldItem),
		summaries:     make(map[periodKey]finance.Summary),
		daily:         make(map[key]finance.DailyRevenue),
		users:         make(map[key]identity.User),
	}
}

// snapshot copies every table. Stored values are replaced, never mutated in
// place, so shallow map copies are enough.
func (s state) snapshot() state {
	return state{
		products:      maps.Clone(s.products),
		categories:    maps.Clone(s.categories),
		customers:     maps.Clone(s.customers),
		suppliers:     maps.Clone(s.suppliers),
		invoices:      maps.Clone(s.invoices),
		orders:        maps.Clone(s.orders),
		payments:      maps.Clone(s.payments),
		finCategories: maps.Clone(s.finCategories),
		transactions:  maps.Clone(s.transactions),
		inventory:     maps.Clone(s.inventory),
		soldItems:     maps.Clone(s.soldItems),
		summaries:     maps.Clone(s.summaries),
		daily:         maps.Clone(s.daily),
		users:         maps.Clone(s.users),
	}
}

// Store holds all tables.
type Store struct {
	mu sync.Mutex
	st state
}

// txKey marks a context running inside a transaction of one particular store.
type txKey struct{ s *Store }

var _ tx.Manager = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// RunInTransaction runs fn atomically. A nested call joins the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	txCtx, hooks := tx.WithCommitHooks(context.WithValue(ctx, txKey{s}, true))
	err := s.commit(ctx, txCtx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return hooks.RunBeforeCommit(ctx)
	})
	if err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

// commit runs fn under the store lock and restores the snapshot on error.
func (s *Store) commit(ctx, txCtx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.st.snapshot()
	err := fn(txCtx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.st = saved
	}
	return err
}

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{s}).(bool)
	return v
}

// do runs fn under the store lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s} }

// Categories returns the product category repository.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }

// Suppliers returns the supplier repository.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{s} }

// Invoices returns the sales repository.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s} }

// Orders returns the procurement repository.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }

// Finance returns the finance repository.
func (s *Store) Finance() *FinanceRepo { return &FinanceRepo{s} }

// Stats returns the ledger aggregates reader.
func (s *Store) Stats() *StatsRepo { return &StatsRepo{s} }

// Users returns the user repository.
func (s *Store) Users() *UserRepo { return &UserRepo{s} }
