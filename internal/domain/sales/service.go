package sales

import (
	"context"
	"sort"
	"time"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/clock"
	appctx "trendzportal/internal/core/context"
	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/numerator"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/tx"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
	"trendzportal/internal/domain/events"
	"trendzportal/pkg/logger"
)

const maxNumberTry = 10

// Config wires the sales service.
type Config struct {
	Repo       Repository
	Products   ProductStore
	Customers  CustomerDirectory
	Numerator  numerator.Generator
	Dispatcher events.Dispatcher
	TxManager  tx.Manager
	Clock      clock.Clock
}

// Service implements the invoice ledger operations.
type Service struct {
	repo       Repository
	products   ProductStore
	customers  CustomerDirectory
	numerator  numerator.Generator
	dispatcher events.Dispatcher
	txm        tx.Manager
	clock      clock.Clock
	hooks      *domain.HookRegistry[*Invoice]
}

// NewService creates the sales service.
func NewService(cfg Config) *Service {
	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	d := cfg.Dispatcher
	if d == nil {
		d = events.Nop
	}
	s := &Service{
		repo:       cfg.Repo,
		products:   cfg.Products,
		customers:  cfg.Customers,
		numerator:  cfg.Numerator,
		dispatcher: d,
		txm:        cfg.TxManager,
		clock:      c,
		hooks:      domain.NewHookRegistry[*Invoice](),
	}
	s.hooks.OnBeforeCreate(stampCreator)
	return s
}

// Hooks exposes the invoice lifecycle hooks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

func stampCreator(ctx context.Context, inv *Invoice) error {
	if uid := appctx.GetUserID(ctx); uid != "" && inv.CreatedBy == nil {
		inv.CreatedBy = &uid
	}
	return nil
}

// ItemInput describes a line. A nil UnitPrice takes the product's current price.
type ItemInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice *types.Money
}

// Header holds the editable invoice fields.
type Header struct {
	CustomerID    *id.ID
	Date          time.Time
	DueDate       time.Time
	PaymentMode   PaymentMode
	CashAmount    types.Money
	POSAmount     types.Money
	OtherAmount   types.Money
	OtherMethod   string
	DiscountType  DiscountType
	DiscountValue types.Money
	Tax           types.Money
	Notes         string
}

// CreateInput is the payload for Create. An empty Number is allocated.
type CreateInput struct {
	Number string
	Header
	Items []ItemInput
}

// UpdateInput replaces the header. Nil Items keeps the current lines.
type UpdateInput struct {
	Header
	Items []ItemInput
}

// Create validates the invoice, allocates its number and stores it as draft.
func (s *Service) Create(ctx context.Context, tn tenant.ID, in CreateInput) (*Invoice, error) {
	inv := &Invoice{Base: entity.NewBase(), Status: StatusDraft}
	inv.Stamp(tn, s.clock.Now())

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.applyHeader(ctx, tn, inv, in.Header); err != nil {
			return err
		}
		items, err := s.buildItems(ctx, tn, inv.ID, in.Items)
		if err != nil {
			return err
		}
		inv.Items = items
		inv.RecomputeTotals()

		if err := inv.Validate(ctx); err != nil {
			return err
		}
		if err := s.hooks.RunBeforeCreate(ctx, inv); err != nil {
			return err
		}

		inv.Number, err = s.allocateNumber(ctx, tn, in.Number)
		if err != nil {
			return err
		}
		return s.repo.Create(ctx, tn, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created", "tenant_id", tn, "invoice", inv.Number,
		"grand_total", inv.GrandTotal.StringFixed(2))
	s.logWarnings(ctx, tn, inv)
	return inv, nil
}

func (s *Service) allocateNumber(ctx context.Context, tn tenant.ID, number string) (string, error) {
	if number != "" {
		exists, err := s.repo.NumberExists(ctx, tn, number)
		if err != nil {
			return "", err
		}
		if exists {
			return "", apperror.NewDuplicate("invoice", "invoice_number", number)
		}
		return number, nil
	}

	today := clock.Today(s.clock)
	for attempt := 0; attempt < maxNumberTry; attempt++ {
		candidate, err := s.numerator.GetNextNumber(ctx, tn, numerator.InvoiceConfig(), nil, today)
		if err != nil {
			return "", err
		}
		// a manually numbered invoice may already hold the candidate
		exists, err := s.repo.NumberExists(ctx, tn, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperror.NewExhausted("invoice number", maxNumberTry)
}

func (s *Service) applyHeader(ctx context.Context, tn tenant.ID, inv *Invoice, h Header) error {
	if h.CustomerID == nil {
		walkIn, err := s.customers.WalkInCustomer(ctx, tn)
		if err != nil {
			return err
		}
		inv.CustomerID = walkIn.ID
	} else {
		if _, err := s.customers.GetCustomer(ctx, tn, *h.CustomerID); err != nil {
			return err
		}
		inv.CustomerID = *h.CustomerID
	}

	inv.Date = clock.DateOf(h.Date)
	if h.Date.IsZero() {
		inv.Date = clock.Today(s.clock)
	}
	inv.DueDate = clock.DateOf(h.DueDate)
	if h.DueDate.IsZero() {
		inv.DueDate = inv.Date
	}

	inv.PaymentMode = h.PaymentMode
	if inv.PaymentMode == "" {
		inv.PaymentMode = PaymentCash
	}
	inv.CashAmount = h.CashAmount
	inv.POSAmount = h.POSAmount
	inv.OtherAmount = h.OtherAmount
	inv.OtherMethod = h.OtherMethod

	inv.DiscountType = h.DiscountType
	if inv.DiscountType == "" {
		inv.DiscountType = DiscountPercent
	}
	inv.DiscountValue = h.DiscountValue
	inv.Tax = types.RoundMoney(h.Tax)
	inv.Notes = h.Notes
	return nil
}

func (s *Service) buildItems(ctx context.Context, tn tenant.ID, invoiceID id.ID, in []ItemInput) ([]InvoiceItem, error) {
	items := make([]InvoiceItem, 0, len(in))
	for i, line := range in {
		item, err := s.buildItem(ctx, tn, invoiceID, line)
		if err != nil {
			if ae, ok := apperror.AsAppError(err); ok {
				ae.WithDetail("line", i+1)
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) buildItem(ctx context.Context, tn tenant.ID, invoiceID id.ID, line ItemInput) (InvoiceItem, error) {
	if line.Quantity <= 0 {
		return InvoiceItem{}, apperror.NewValidation("line quantity must be positive")
	}
	p, err := s.products.GetByID(ctx, tn, line.ProductID)
	if err != nil {
		return InvoiceItem{}, err
	}
	price := p.UnitPrice
	if line.UnitPrice != nil {
		price = *line.UnitPrice
	}
	return InvoiceItem{
		ID:        id.New(),
		InvoiceID: invoiceID,
		ProductID: p.ID,
		Quantity:  line.Quantity,
		UnitPrice: types.RoundMoney(price),
	}, nil
}

// Get returns an invoice with its items.
func (s *Service) Get(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, tn, invoiceID)
}

// List returns invoice headers.
func (s *Service) List(ctx context.Context, tn tenant.ID, filter ListFilter) (domain.ListResult[*Invoice], error) {
	filter.Normalize()
	return s.repo.List(ctx, tn, filter)
}

// Update rewrites header fields and, when given, the lines of a draft or sent invoice.
func (s *Service) Update(ctx context.Context, tn tenant.ID, invoiceID id.ID, in UpdateInput) (*Invoice, error) {
	var inv *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.lockEditable(ctx, tn, invoiceID)
		if err != nil {
			return err
		}
		if err := s.applyHeader(ctx, tn, inv, in.Header); err != nil {
			return err
		}
		if in.Items != nil {
			if inv.Items, err = s.buildItems(ctx, tn, inv.ID, in.Items); err != nil {
				return err
			}
		}
		return s.save(ctx, tn, inv, in.Items != nil)
	})
	if err != nil {
		return nil, err
	}
	s.logWarnings(ctx, tn, inv)
	return inv, nil
}

// AddItem appends a line to a draft or sent invoice.
func (s *Service) AddItem(ctx context.Context, tn tenant.ID, invoiceID id.ID, line ItemInput) (*Invoice, error) {
	var inv *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.lockEditable(ctx, tn, invoiceID)
		if err != nil {
			return err
		}
		item, err := s.buildItem(ctx, tn, inv.ID, line)
		if err != nil {
			return err
		}
		inv.Items = append(inv.Items, item)
		return s.save(ctx, tn, inv, true)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// RemoveItem drops a line from a draft or sent invoice.
func (s *Service) RemoveItem(ctx context.Context, tn tenant.ID, invoiceID, itemID id.ID) (*Invoice, error) {
	var inv *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.lockEditable(ctx, tn, invoiceID)
		if err != nil {
			return err
		}
		kept := inv.Items[:0]
		found := false
		for _, it := range inv.Items {
			if it.ID == itemID {
				found = true
				continue
			}
			kept = append(kept, it)
		}
		if !found {
			return apperror.NewNotFound("invoice item", itemID.String())
		}
		inv.Items = kept
		return s.save(ctx, tn, inv, true)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) lockEditable(ctx context.Context, tn tenant.ID, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetForUpdate(ctx, tn, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Editable() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice can no longer be edited").
			WithDetail("status", string(inv.Status))
	}
	return inv, nil
}

func (s *Service) save(ctx context.Context, tn tenant.ID, inv *Invoice, itemsChanged bool) error {
	inv.RecomputeTotals()
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.RunBeforeUpdate(ctx, inv); err != nil {
		return err
	}
	inv.Touch(s.clock.Now())
	if itemsChanged {
		if err := s.repo.ReplaceItems(ctx, tn, inv); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, tn, inv)
}

// SetStatus moves the invoice along its lifecycle. Reaching paid takes stock
// and publishes InvoicePaid in the same transaction. Setting the current
// status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, tn tenant.ID, invoiceID id.ID, to Status) (*Invoice, error) {
	if !to.Valid() {
		return nil, apperror.NewValidation("unknown status").WithDetail("status", string(to))
	}

	var (
		inv     *Invoice
		changed bool
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, tn, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == to {
			return nil
		}
		if !CanTransition(inv.Status, to) {
			return apperror.NewInvalidTransition("invoice", string(inv.Status), string(to))
		}

		now := s.clock.Now()
		if to == StatusPaid {
			if err := s.takeStock(ctx, tn, inv); err != nil {
				return err
			}
			inv.PaidAt = &now
		}
		inv.Status = to
		inv.Touch(now)
		if err := s.repo.Update(ctx, tn, inv); err != nil {
			return err
		}
		changed = true

		if to == StatusPaid {
			return s.dispatcher.Dispatch(ctx, tn, events.InvoicePaid{InvoiceID: inv.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logger.Info(ctx, "invoice status changed", "tenant_id", tn, "invoice", inv.Number, "status", inv.Status)
	}
	return inv, nil
}

// takeStock checks every line against locked stock and decrements it.
// All shortages are reported together; nothing is written if any exist.
func (s *Service) takeStock(ctx context.Context, tn tenant.ID, inv *Invoice) error {
	if len(inv.Items) == 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice has no items")
	}

	need, ids := quantities(inv.Items)
	locked, err := s.products.LockForUpdate(ctx, tn, ids)
	if err != nil {
		return err
	}

	var short []apperror.StockShortage
	for _, it := range inv.Items {
		p := locked[it.ProductID]
		if need[it.ProductID] > p.Stock {
			short = append(short, apperror.StockShortage{
				LineNo:    it.LineNo,
				ProductID: it.ProductID.String(),
				Product:   p.Name,
				Requested: need[it.ProductID],
				Available: p.Stock,
			})
		}
	}
	if len(short) > 0 {
		return apperror.NewInsufficientStock(short)
	}

	return s.adjustStock(ctx, tn, locked, ids, need, -1)
}

// restoreStock puts back what a paid invoice took.
func (s *Service) restoreStock(ctx context.Context, tn tenant.ID, inv *Invoice) error {
	if len(inv.Items) == 0 {
		return nil
	}
	need, ids := quantities(inv.Items)
	locked, err := s.products.LockForUpdate(ctx, tn, ids)
	if err != nil {
		return err
	}
	return s.adjustStock(ctx, tn, locked, ids, need, 1)
}

func (s *Service) adjustStock(ctx context.Context, tn tenant.ID, locked map[id.ID]*catalog.Product,
	ids []id.ID, qty map[id.ID]int64, sign int64) error {
	for _, pid := range ids {
		p := locked[pid]
		p.Stock += sign * qty[pid]
		if err := s.products.SaveStock(ctx, tn, p); err != nil {
			return err
		}
	}
	return nil
}

// quantities sums line quantities per product and returns the ids in lock order.
func quantities(items []InvoiceItem) (map[id.ID]int64, []id.ID) {
	need := make(map[id.ID]int64, len(items))
	ids := make([]id.ID, 0, len(items))
	for _, it := range items {
		if _, ok := need[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		need[it.ProductID] += it.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return id.Less(ids[i], ids[j]) })
	return need, ids
}

// Delete removes an invoice. A paid invoice gives its stock back and the
// posting engine tears down everything derived from it.
func (s *Service) Delete(ctx context.Context, tn tenant.ID, invoiceID id.ID) error {
	var inv *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, tn, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusPaid {
			if err := s.restoreStock(ctx, tn, inv); err != nil {
				return err
			}
		}
		// derived rows go first; the summary recompute runs at commit
		if err := s.dispatcher.Dispatch(ctx, tn, events.InvoiceDeleted{InvoiceID: inv.ID, Number: inv.Number, Date: inv.Date}); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tn, inv.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice deleted", "tenant_id", tn, "invoice", inv.Number)
	return nil
}

func (s *Service) logWarnings(ctx context.Context, tn tenant.ID, inv *Invoice) {
	for _, w := range inv.Warnings() {
		logger.Warn(ctx, "invoice warning", "tenant_id", tn, "invoice", inv.Number, "warning", w)
	}
}
