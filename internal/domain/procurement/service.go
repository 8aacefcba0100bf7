package procurement

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
	"trendzportal/internal/domain/events"
	"trendzportal/pkg/logger"
)

const maxReferenceTry = 10

// Config wires the procurement service.
type Config struct {
	Repo       Repository
	Products   ProductStore
	Suppliers  SupplierDirectory
	Numerator  numerator.Generator
	Dispatcher events.Dispatcher
	TxManager  tx.Manager
	Clock      clock.Clock
}

// Service implements the purchase order ledger.
type Service struct {
	repo       Repository
	products   ProductStore
	suppliers  SupplierDirectory
	numerator  numerator.Generator
	dispatcher events.Dispatcher
	txm        tx.Manager
	clock      clock.Clock
}

func NewService(cfg Config) *Service {
	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	d := cfg.Dispatcher
	if d == nil {
		d = events.Nop
	}
	return &Service{
		repo:       cfg.Repo,
		products:   cfg.Products,
		suppliers:  cfg.Suppliers,
		numerator:  cfg.Numerator,
		dispatcher: d,
		txm:        cfg.TxManager,
		clock:      c,
	}
}

// ItemInput describes an order line.
type ItemInput struct {
	ProductID id.ID
	Quantity  int64
	UnitCost  types.Money
}

// Header holds the editable order fields.
type Header struct {
	SupplierID   id.ID
	OrderDate    time.Time
	DeliveryDate time.Time
	PaymentMode  PaymentMode
	PaymentDue   *time.Time
	Tax          types.Money
	Notes        string
}

// CreateInput is the payload for Create. An empty Reference is generated.
type CreateInput struct {
	Reference string
	Header
	Items []ItemInput
}

// UpdateInput replaces header fields. Nil Items keeps the current lines.
type UpdateInput struct {
	Header
	Items []ItemInput
}

// PaymentInput is the payload for RecordPayment.
type PaymentInput struct {
	Amount    types.Money
	Date      time.Time
	Method    PaymentMethod
	Reference string
	Notes     string
}

// Create stores a new draft order.
func (s *Service) Create(ctx context.Context, tn tenant.ID, in CreateInput) (*PurchaseOrder, error) {
	po := &PurchaseOrder{Base: entity.NewBase(), Status: StatusDraft}
	po.Stamp(tn, s.clock.Now())
	if uid := appctx.GetUserID(ctx); uid != "" {
		po.CreatedBy = &uid
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.applyHeader(ctx, tn, po, in.Header); err != nil {
			return err
		}
		items, err := s.buildItems(ctx, tn, po.ID, in.Items)
		if err != nil {
			return err
		}
		po.Items = items
		po.RecomputeTotals()
		if err := po.Validate(ctx); err != nil {
			return err
		}
		if po.Reference, err = s.allocateReference(ctx, tn, in.Reference, po.OrderDate); err != nil {
			return err
		}
		return s.repo.Create(ctx, tn, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created", "tenant_id", tn, "reference", po.Reference,
		"total", po.Total.StringFixed(2))
	return po, nil
}

func (s *Service) allocateReference(ctx context.Context, tn tenant.ID, ref string, orderDate time.Time) (string, error) {
	if ref != "" {
		exists, err := s.repo.ReferenceExists(ctx, tn, ref)
		if err != nil {
			return "", err
		}
		if exists {
			return "", apperror.NewDuplicate("purchase order", "reference", ref)
		}
		return ref, nil
	}
	for attempt := 0; attempt < maxReferenceTry; attempt++ {
		candidate, err := s.numerator.GetNextNumber(ctx, tn, numerator.PurchaseOrderConfig(), nil, orderDate)
		if err != nil {
			return "", err
		}
		exists, err := s.repo.ReferenceExists(ctx, tn, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperror.NewExhausted("purchase order reference", maxReferenceTry)
}

func (s *Service) applyHeader(ctx context.Context, tn tenant.ID, po *PurchaseOrder, h Header) error {
	if id.IsNil(h.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if _, err := s.suppliers.GetSupplier(ctx, tn, h.SupplierID); err != nil {
		return err
	}
	po.SupplierID = h.SupplierID

	po.OrderDate = clock.DateOf(h.OrderDate)
	if h.OrderDate.IsZero() {
		po.OrderDate = clock.Today(s.clock)
	}
	po.DeliveryDate = clock.DateOf(h.DeliveryDate)
	if h.DeliveryDate.IsZero() {
		po.DeliveryDate = po.OrderDate
	}
	po.PaymentMode = h.PaymentMode
	if po.PaymentMode == "" {
		po.PaymentMode = ModeCredit
	}
	po.PaymentDue = nil
	if h.PaymentDue != nil {
		due := clock.DateOf(*h.PaymentDue)
		po.PaymentDue = &due
	}
	po.Tax = types.RoundMoney(h.Tax)
	po.Notes = h.Notes
	return nil
}

func (s *Service) buildItems(ctx context.Context, tn tenant.ID, orderID id.ID, in []ItemInput) ([]PurchaseItem, error) {
	items := make([]PurchaseItem, 0, len(in))
	for i, line := range in {
		if line.Quantity <= 0 {
			return nil, apperror.NewValidation("line quantity must be positive").WithDetail("line", i+1)
		}
		if _, err := s.products.GetByID(ctx, tn, line.ProductID); err != nil {
			if ae, ok := apperror.AsAppError(err); ok {
				ae.WithDetail("line", i+1)
			}
			return nil, err
		}
		items = append(items, PurchaseItem{
			ID:        id.New(),
			OrderID:   orderID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  types.RoundMoney(line.UnitCost),
		})
	}
	return items, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, tn tenant.ID, orderID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, tn, orderID)
}

// List returns order headers.
func (s *Service) List(ctx context.Context, tn tenant.ID, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	filter.Normalize()
	return s.repo.List(ctx, tn, filter)
}

// Update rewrites a draft or ordered order.
func (s *Service) Update(ctx context.Context, tn tenant.ID, orderID id.ID, in UpdateInput) (*PurchaseOrder, error) {
	var po *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, tn, orderID)
		if err != nil {
			return err
		}
		if !po.Status.Editable() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase order can no longer be edited").
				WithDetail("status", string(po.Status))
		}
		if err := s.applyHeader(ctx, tn, po, in.Header); err != nil {
			return err
		}
		if in.Items != nil {
			if po.Items, err = s.buildItems(ctx, tn, po.ID, in.Items); err != nil {
				return err
			}
		}
		po.RecomputeTotals()
		if err := po.Validate(ctx); err != nil {
			return err
		}
		po.Touch(s.clock.Now())
		if in.Items != nil {
			if err := s.repo.ReplaceItems(ctx, tn, po); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, tn, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// SetStatus moves the order along its lifecycle. Reaching received adds the
// quantities to stock, overwrites each product's cost price with the line's
// unit cost and publishes PurchaseOrderReceived. Repeating the current status
// is a no-op, so stock is incremented once per order.
func (s *Service) SetStatus(ctx context.Context, tn tenant.ID, orderID id.ID, to Status) (*PurchaseOrder, error) {
	if !to.Valid() {
		return nil, apperror.NewValidation("unknown status").WithDetail("status", string(to))
	}

	var (
		po      *PurchaseOrder
		changed bool
	)
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, tn, orderID)
		if err != nil {
			return err
		}
		if po.Status == to {
			return nil
		}
		if !CanTransition(po.Status, to) {
			return apperror.NewInvalidTransition("purchase order", string(po.Status), string(to))
		}

		now := s.clock.Now()
		if to == StatusReceived {
			if err := s.receiveStock(ctx, tn, po); err != nil {
				return err
			}
			po.ReceivedAt = &now
		}
		po.Status = to
		po.Touch(now)
		if err := s.repo.Update(ctx, tn, po); err != nil {
			return err
		}
		changed = true

		if to == StatusReceived {
			return s.dispatcher.Dispatch(ctx, tn, events.PurchaseOrderReceived{OrderID: po.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logger.Info(ctx, "purchase order status changed", "tenant_id", tn, "reference", po.Reference, "status", po.Status)
	}
	return po, nil
}

func (s *Service) receiveStock(ctx context.Context, tn tenant.ID, po *PurchaseOrder) error {
	if len(po.Items) == 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase order has no items")
	}
	locked, err := s.products.LockForUpdate(ctx, tn, productIDs(po.Items))
	if err != nil {
		return err
	}
	// latest purchase wins: later lines overwrite earlier ones for the same product
	for _, it := range po.Items {
		p := locked[it.ProductID]
		p.Stock += it.Quantity
		p.CostPrice = it.UnitCost
	}
	for _, pid := range productIDs(po.Items) {
		if err := s.products.SaveStock(ctx, tn, locked[pid]); err != nil {
			return err
		}
	}
	return nil
}

// reverseStock takes back what a received order added. Cost prices stay as they are.
func (s *Service) reverseStock(ctx context.Context, tn tenant.ID, po *PurchaseOrder) error {
	ids := productIDs(po.Items)
	if len(ids) == 0 {
		return nil
	}
	locked, err := s.products.LockForUpdate(ctx, tn, ids)
	if err != nil {
		return err
	}

	qty := make(map[id.ID]int64, len(ids))
	for _, it := range po.Items {
		qty[it.ProductID] += it.Quantity
	}
	var short []apperror.StockShortage
	for _, it := range po.Items {
		p := locked[it.ProductID]
		if p.Stock < qty[it.ProductID] {
			short = append(short, apperror.StockShortage{
				LineNo:    it.LineNo,
				ProductID: it.ProductID.String(),
				Product:   p.Name,
				Requested: qty[it.ProductID],
				Available: p.Stock,
			})
		}
	}
	if len(short) > 0 {
		return apperror.NewInsufficientStock(short)
	}
	for _, pid := range ids {
		p := locked[pid]
		p.Stock -= qty[pid]
		if err := s.products.SaveStock(ctx, tn, p); err != nil {
			return err
		}
	}
	return nil
}

func productIDs(items []PurchaseItem) []id.ID {
	seen := make(map[id.ID]bool, len(items))
	ids := make([]id.ID, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return id.Less(ids[i], ids[j]) })
	return ids
}

// RecordPayment appends a payment to an order and publishes PaymentRecorded.
func (s *Service) RecordPayment(ctx context.Context, tn tenant.ID, orderID id.ID, in PaymentInput) (*Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").WithDetail("field", "amount")
	}
	method := in.Method
	if method == "" {
		method = MethodCash
	}
	if !method.Valid() {
		return nil, apperror.NewValidation("unknown payment method").WithDetail("field", "method")
	}

	p := &Payment{
		ID:          id.New(),
		TenantID:    tn,
		OrderID:     orderID,
		Amount:      types.RoundMoney(in.Amount),
		PaymentDate: clock.DateOf(in.Date),
		Method:      method,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedAt:   s.clock.Now(),
	}
	if in.Date.IsZero() {
		p.PaymentDate = clock.Today(s.clock)
	}
	if uid := appctx.GetUserID(ctx); uid != "" {
		p.CreatedBy = &uid
	}

	var po *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, tn, orderID)
		if err != nil {
			return err
		}
		if po.Status == StatusCancelled {
			return apperror.NewInvalidTransition("purchase order", string(po.Status), "payment")
		}
		if err := s.repo.CreatePayment(ctx, tn, p); err != nil {
			return err
		}
		return s.dispatcher.Dispatch(ctx, tn, events.PaymentRecorded{PaymentID: p.ID})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase payment recorded", "tenant_id", tn, "reference", po.Reference,
		"amount", p.Amount.StringFixed(2))
	return p, nil
}

// DeletePayment removes a payment and lets the posting engine drop what it derived.
func (s *Service) DeletePayment(ctx context.Context, tn tenant.ID, paymentID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPayment(ctx, tn, paymentID)
		if err != nil {
			return err
		}
		// serialise with other changes to the same order
		if _, err := s.repo.GetForUpdate(ctx, tn, p.OrderID); err != nil {
			return err
		}
		if err := s.dispatcher.Dispatch(ctx, tn, events.PaymentDeleted{PaymentID: p.ID, OrderID: p.OrderID, PaymentDate: p.PaymentDate}); err != nil {
			return err
		}
		return s.repo.DeletePayment(ctx, tn, p.ID)
	})
}

// ListPayments returns the payments of an order, oldest first.
func (s *Service) ListPayments(ctx context.Context, tn tenant.ID, orderID id.ID) ([]Payment, error) {
	if _, err := s.repo.GetByID(ctx, tn, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, tn, orderID)
}

// PaymentSummary reports paid amount, balance and payment status of an order.
func (s *Service) PaymentSummary(ctx context.Context, tn tenant.ID, orderID id.ID) (PaymentSummary, error) {
	po, err := s.repo.GetByID(ctx, tn, orderID)
	if err != nil {
		return PaymentSummary{}, err
	}
	payments, err := s.repo.ListPayments(ctx, tn, orderID)
	if err != nil {
		return PaymentSummary{}, err
	}
	return Summarize(po, payments, clock.Today(s.clock)), nil
}

// Delete removes an order with its payments. A received order gives its
// stock back first; that fails with InsufficientStock if the goods were sold.
func (s *Service) Delete(ctx context.Context, tn tenant.ID, orderID id.ID) error {
	var po *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, tn, orderID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			if err := s.reverseStock(ctx, tn, po); err != nil {
				return err
			}
		}

		payments, err := s.repo.ListPayments(ctx, tn, po.ID)
		if err != nil {
			return err
		}
		for _, p := range payments {
			ev := events.PaymentDeleted{PaymentID: p.ID, OrderID: po.ID, PaymentDate: p.PaymentDate}
			if err := s.dispatcher.Dispatch(ctx, tn, ev); err != nil {
				return err
			}
		}
		if err := s.dispatcher.Dispatch(ctx, tn, events.PurchaseOrderDeleted{OrderID: po.ID, Reference: po.Reference, OrderDate: po.OrderDate}); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tn, po.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order deleted", "tenant_id", tn, "reference", po.Reference)
	return nil
}
