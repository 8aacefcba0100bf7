package app

import (
	"trendzportal/internal/core/clock"
	"trendzportal/internal/core/numerator"
	"trendzportal/internal/core/security"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/finance"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/domain/posting"
	"trendzportal/internal/domain/procurement"
	"trendzportal/internal/domain/sales"
	"trendzportal/internal/infrastructure/storage/memory"
)

// Storage bundles the repositories of one backend.
type Storage struct {
	TxManager  tx.Manager
	Products   catalog.ProductRepository
	Categories catalog.CategoryRepository
	Customers  catalog.CustomerRepository
	Suppliers  catalog.SupplierRepository
	Invoices   sales.Repository
	Orders     procurement.Repository
	Finance    finance.Repository
	Stats      finance.LedgerStats
	Users      identity.UserRepository
	Numerator  numerator.Generator
}

// MemoryStorage exposes an in-process store as Storage.
func MemoryStorage(s *memory.Store) Storage {
	return Storage{
		TxManager:  s,
		Products:   s.Products(),
		Categories: s.Categories(),
		Customers:  s.Customers(),
		Suppliers:  s.Suppliers(),
		Invoices:   s.Invoices(),
		Orders:     s.Orders(),
		Finance:    s.Finance(),
		Stats:      s.Stats(),
		Users:      s.Users(),
		Numerator:  numerator.NewMemoryGenerator(),
	}
}

// Options tune the service graph. Zero values pick in-process defaults.
type Options struct {
	Clock  clock.Clock
	Rand   catalog.Rand
	JWT    identity.JWTConfig
	Policy security.PostingPolicy
	Cache  finance.SummaryCache

	// Queue defaults to recomputing inline, inside the posting transaction.
	Queue    posting.SummaryQueue
	EventLog posting.EventLog
}

// Services is the wired domain layer.
type Services struct {
	Catalog      *catalog.Service
	Sales        *sales.Service
	Procurement  *procurement.Service
	Ledger       *finance.Ledger
	Aggregator   *finance.Aggregator
	DailyRevenue *finance.DailyRevenueService
	Identity     *identity.Service
	JWT          *identity.JWTService
	Engine       *posting.Engine
}

// NewServices wires every service on top of st.
func NewServices(st Storage, opts Options) *Services {
	c := opts.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}

	cat := catalog.NewService(catalog.Config{
		Products:   st.Products,
		Categories: st.Categories,
		Customers:  st.Customers,
		Suppliers:  st.Suppliers,
		TxManager:  st.TxManager,
		Clock:      c,
		Rand:       opts.Rand,
	})

	agg := finance.NewAggregator(st.Stats, st.Finance, opts.Cache, st.TxManager, c)
	queue := opts.Queue
	if queue == nil {
		queue = finance.InlineQueue{Aggregator: agg}
	}

	jwtSvc := identity.NewJWTService(opts.JWT)
	ids := identity.NewService(st.Users, jwtSvc, st.TxManager, c)

	engine := posting.NewEngine(posting.Config{
		Finance:    st.Finance,
		Invoices:   st.Invoices,
		Orders:     st.Orders,
		Products:   st.Products,
		Categories: st.Categories,
		Users:      ids,
		Queue:      queue,
		EventLog:   opts.EventLog,
		Policy:     opts.Policy,
		TxManager:  st.TxManager,
		Clock:      c,
	})

	return &Services{
		Catalog: cat,
		Sales: sales.NewService(sales.Config{
			Repo:       st.Invoices,
			Products:   st.Products,
			Customers:  cat,
			Numerator:  st.Numerator,
			Dispatcher: engine,
			TxManager:  st.TxManager,
			Clock:      c,
		}),
		Procurement: procurement.NewService(procurement.Config{
			Repo:       st.Orders,
			Products:   st.Products,
			Suppliers:  cat,
			Numerator:  st.Numerator,
			Dispatcher: engine,
			TxManager:  st.TxManager,
			Clock:      c,
		}),
		Ledger:       finance.NewLedger(st.Finance, st.Products, st.TxManager, c),
		Aggregator:   agg,
		DailyRevenue: finance.NewDailyRevenueService(st.Finance, st.TxManager, c),
		Identity:     ids,
		JWT:          jwtSvc,
		Engine:       engine,
	}
}
