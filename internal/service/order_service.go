package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luxbag/internal/auth"
	"luxbag/internal/inventory"
	"luxbag/internal/loyalty"
	"luxbag/internal/model"
	"luxbag/internal/ordercode"
	"luxbag/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	walkInName          = "Walk-in customer"
	inStoreNote         = "In-store sale"
	defaultCancelReason = "Customer changed their mind"
	customerCancelNote  = "Cancelled by customer"

	defaultListLimit = 20
	maxListLimit     = 100
	maxPhoneLength   = 15
)

// OrderServiceDeps lists the collaborators of the order service.
type OrderServiceDeps struct {
	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Customers repository.CustomerRepository
	Inventory inventory.Ledger
	Loyalty   loyalty.Ledger
	Codes     ordercode.Generator
	// Clock defaults to SystemClock.
	Clock  Clock
	Logger zerolog.Logger
}

// orderService implements OrderService.
type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	inventory inventory.Ledger
	loyalty   loyalty.Ledger
	codes     ordercode.Generator
	clock     Clock
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(deps OrderServiceDeps) OrderService {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &orderService{
		orders:    deps.Orders,
		products:  deps.Products,
		customers: deps.Customers,
		inventory: deps.Inventory,
		loyalty:   deps.Loyalty,
		codes:     deps.Codes,
		clock:     clock,
		logger:    deps.Logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder reserves stock, prices the cart and records the order in a
// single transaction.
func (s *orderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*model.Order, *loyalty.Tier, error) {
	if err := s.validatePlaceOrder(in); err != nil {
		return nil, nil, err
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod, _ = model.ParsePaymentMethod("", in.Channel)
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			s.rollback(ctx, tx)
		}
	}()

	now := s.clock.Now()
	order := &model.Order{
		ID:            uuid.New(),
		Channel:       in.Channel,
		Status:        model.InitialStatus(in.Channel),
		PaymentMethod: paymentMethod,
		StaffID:       in.StaffID,
		Note:          strings.TrimSpace(in.Note),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Reserve in submitted order; the first failure aborts the whole cart.
	items := make([]model.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		var product *model.Product
		product, err = s.inventory.Reserve(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int64("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("reservation failed")
			return nil, nil, err
		}
		items = append(items, model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}
	order.Items = items

	var customer *model.Customer
	customer, err = s.resolveCustomer(ctx, tx, in.Customer)
	if err != nil {
		return nil, nil, err
	}

	var (
		tier     *loyalty.Tier
		discount int64
	)
	subtotal := order.ItemsSubtotal()
	if customer != nil {
		t := loyalty.TierFor(customer.TotalSpend)
		tier = &t
		discount = t.DiscountOn(subtotal)
		order.CustomerID = &customer.ID
	}
	order.SetTotals(subtotal, discount)

	if in.TagDiscount && discount > 0 {
		order.AppendNote(fmt.Sprintf("VIP: %d%% off", tier.Percent))
	}

	fillRecipient(order, in.Recipient, customer)

	order.Code, err = s.codes.Next(now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate order code")
		return nil, nil, fmt.Errorf("failed to generate order code: %w", err)
	}

	if err = s.orders.CreateOrder(ctx, tx, order); err != nil {
		return nil, nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err = s.orders.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, nil, fmt.Errorf("failed to place order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_code", order.Code).
		Str("channel", string(order.Channel)).
		Int("item_count", len(items)).
		Int64("total", order.Total).
		Msg("order placed")

	return order, tier, nil
}

// PlaceOnlineOrder places an order for the customer profile of the caller.
func (s *orderService) PlaceOnlineOrder(ctx context.Context, p auth.Principal, req *model.ClientOrderRequest) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, model.ErrEmptyCart
	}

	paymentMethod, err := model.ParsePaymentMethod(req.PaymentMethod, model.ChannelOnline)
	if err != nil {
		return nil, err
	}

	customer, err := s.callerCustomer(ctx, p)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, model.ErrCustomerNotFound
	}

	order, _, err := s.PlaceOrder(ctx, PlaceOrderInput{
		Channel:       model.ChannelOnline,
		Customer:      model.ExistingCustomer{ID: customer.ID},
		Items:         req.CartItems,
		Note:          req.Note,
		PaymentMethod: paymentMethod,
		Recipient:     model.Recipient{Name: req.Name, Phone: req.Phone, Address: req.Address},
		TagDiscount:   true,
	})
	if err != nil {
		return nil, err
	}

	return &model.CheckoutResponse{
		Success:   true,
		Message:   "Order placed successfully",
		OrderCode: order.Code,
		PaymentInfo: model.PaymentInfo{
			Subtotal: order.Subtotal,
			Discount: order.Discount,
			Total:    order.Total,
		},
	}, nil
}

// PlaceStaffOrder places an order at the till on behalf of a customer.
func (s *orderService) PlaceStaffOrder(ctx context.Context, p auth.Principal, req *model.StaffOrderRequest) (*model.StaffOrderResponse, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.ErrEmptyCart
	}

	channel := model.ChannelOffline
	if req.Channel != "" {
		var err error
		if channel, err = model.ParseChannel(req.Channel); err != nil {
			return nil, err
		}
	}

	paymentMethod, err := model.ParsePaymentMethod(req.PaymentMethod, channel)
	if err != nil {
		return nil, err
	}

	var selector model.CustomerSelector = model.Guest{}
	switch {
	case req.CustomerID != nil:
		selector = model.ExistingCustomer{ID: *req.CustomerID}
	case strings.TrimSpace(req.NewPhone) != "":
		selector = model.WalkIn{
			Name:    req.NewName,
			Phone:   req.NewPhone,
			Address: req.NewAddress,
			Email:   req.NewEmail,
		}
	}

	note := inStoreNote
	if req.Note != nil && strings.TrimSpace(*req.Note) != "" {
		note = *req.Note
	}

	staffID := p.UserID
	order, tier, err := s.PlaceOrder(ctx, PlaceOrderInput{
		Channel:       channel,
		Customer:      selector,
		Items:         req.CartItems,
		Note:          note,
		PaymentMethod: paymentMethod,
		Recipient:     model.Recipient{Name: req.RecipientName, Phone: req.RecipientPhone},
		StaffID:       &staffID,
	})
	if err != nil {
		return nil, err
	}

	resp := &model.StaffOrderResponse{Order: order}
	if order.CustomerID != nil && tier != nil {
		info := &model.CustomerInfo{
			ID:              *order.CustomerID,
			FullName:        order.RecipientName,
			Tier:            tier.Label,
			DiscountPercent: tier.Percent,
		}
		// The recipient may differ from the customer; prefer the profile name.
		if c, err := s.customers.GetByID(ctx, *order.CustomerID); err == nil && c != nil {
			info.FullName = c.FullName
		}
		resp.CustomerInfo = info
	}

	return resp, nil
}

// Approve confirms an online order.
func (s *orderService) Approve(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ActionApprove, staffCanSee(p),
		func(ctx context.Context, tx pgx.Tx, order *model.Order, _ model.Status) error {
			staffID := p.UserID
			order.StaffID = &staffID
			return nil
		})
}

// Ship hands a confirmed order to the carrier.
func (s *orderService) Ship(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ActionShip, staffCanSee(p), nil)
}

// ConfirmDelivery completes a shipped order and credits loyalty spend.
func (s *orderService) ConfirmDelivery(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ActionConfirmDelivery, staffCanSee(p), s.creditSpend)
}

// ConfirmPayment completes an order paid at the till and credits loyalty
// spend.
func (s *orderService) ConfirmPayment(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ActionConfirmPayment, staffCanSee(p), s.creditSpend)
}

// Cancel cancels an order, returning its stock.
func (s *orderService) Cancel(ctx context.Context, p auth.Principal, id uuid.UUID, reason string) (*model.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}

	return s.transition(ctx, id, model.ActionCancel, staffCanSee(p),
		func(ctx context.Context, tx pgx.Tx, order *model.Order, from model.Status) error {
			staffID := p.UserID
			order.StaffID = &staffID
			order.AppendNote("Cancelled: " + reason)
			return s.unwind(ctx, tx, order, from)
		})
}

// CancelOwn lets the owner withdraw an order still awaiting confirmation.
func (s *orderService) CancelOwn(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	customer, err := s.callerCustomer(ctx, p)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, model.ErrOrderNotFound
	}

	guard := func(order *model.Order) error {
		if order.CustomerID == nil || *order.CustomerID != customer.ID {
			return model.ErrOrderNotFound
		}
		if order.Status != model.StatusPendingConfirmation {
			return model.InvalidTransitionError(order.Status, model.ActionCancel)
		}
		return nil
	}

	return s.transition(ctx, id, model.ActionCancel, guard,
		func(ctx context.Context, tx pgx.Tx, order *model.Order, from model.Status) error {
			order.AppendNote(customerCancelNote)
			return s.unwind(ctx, tx, order, from)
		})
}

// GetByID retrieves an order visible to the staff user.
func (s *orderService) GetByID(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.OrderResponse, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || !visibleToStaff(p, order) {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return s.describe(ctx, order)
}

// GetOwn retrieves an order of the calling customer.
func (s *orderService) GetOwn(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.OrderResponse, error) {
	customer, err := s.callerCustomer(ctx, p)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, model.ErrOrderNotFound
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.CustomerID == nil || *order.CustomerID != customer.ID {
		return nil, model.ErrOrderNotFound
	}

	return s.describe(ctx, order)
}

// List retrieves orders visible to the staff user. Staff see every online
// order and the offline orders they rang up; admins see everything.
func (s *orderService) List(ctx context.Context, p auth.Principal, filter model.OrderFilter) ([]model.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	filter.StaffID = nil
	if !p.IsAdmin() {
		staffID := p.UserID
		filter.StaffID = &staffID
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	s.logger.Debug().
		Int64("user_id", p.UserID).
		Int("count", len(orders)).
		Msg("listed orders")

	return orders, nil
}

// ListOwn retrieves the calling customer's orders, newest first.
func (s *orderService) ListOwn(ctx context.Context, p auth.Principal, limit, offset int) ([]model.Order, error) {
	customer, err := s.callerCustomer(ctx, p)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return []model.Order{}, nil
	}

	limit, offset = clampPage(limit, offset)
	orders, err := s.orders.List(ctx, model.OrderFilter{
		CustomerID: &customer.ID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// sideEffect runs inside the transition transaction after the status has
// moved. from is the status before the move.
type sideEffect func(ctx context.Context, tx pgx.Tx, order *model.Order, from model.Status) error

// transition locks the order, applies action, runs effect and commits.
// guard, if set, vets the locked order before the action is applied.
func (s *orderService) transition(
	ctx context.Context,
	id uuid.UUID,
	action model.Action,
	guard func(*model.Order) error,
	effect sideEffect,
) (*model.Order, error) {
	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to %s order: %w", action, err)
	}

	defer func() {
		if err != nil {
			s.rollback(ctx, tx)
		}
	}()

	var order *model.Order
	order, err = s.orders.LockByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	if guard != nil {
		if err = guard(order); err != nil {
			return nil, err
		}
	}

	from := order.Status
	if err = order.Apply(action, s.clock.Now()); err != nil {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(from)).
			Stringer("action", action).
			Msg("rejected order transition")
		return nil, err
	}

	if effect != nil {
		if err = effect(ctx, tx, order, from); err != nil {
			return nil, err
		}
	}

	if err = s.orders.UpdateStatus(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to %s order: %w", action, err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("order_code", order.Code).
		Str("from", string(from)).
		Str("to", string(order.Status)).
		Msg("order transitioned")

	return order, nil
}

// creditSpend adds a completed order's total to its customer's spend.
func (s *orderService) creditSpend(ctx context.Context, tx pgx.Tx, order *model.Order, _ model.Status) error {
	if order.CustomerID == nil {
		return nil
	}
	_, err := s.loyalty.Credit(ctx, tx, *order.CustomerID, order.Total)
	return err
}

// unwind returns the stock of a cancelled order and withdraws spend that
// was credited when it completed.
func (s *orderService) unwind(ctx context.Context, tx pgx.Tx, order *model.Order, from model.Status) error {
	for _, item := range order.Items {
		if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if from == model.StatusCompleted && order.CustomerID != nil {
		if _, err := s.loyalty.Debit(ctx, tx, *order.CustomerID, order.Total); err != nil {
			return err
		}
	}

	return nil
}

// resolveCustomer turns a selector into a locked customer row. Guests
// resolve to nil.
func (s *orderService) resolveCustomer(ctx context.Context, tx pgx.Tx, selector model.CustomerSelector) (*model.Customer, error) {
	switch sel := selector.(type) {
	case model.ExistingCustomer:
		c, err := s.customers.LockByID(ctx, tx, sel.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		if c == nil {
			s.logger.Warn().Int64("customer_id", sel.ID).Msg("customer not found")
			return nil, model.ErrCustomerNotFound
		}
		return c, nil

	case model.WalkIn:
		name := strings.TrimSpace(sel.Name)
		if name == "" {
			name = walkInName
		}
		c := &model.Customer{
			FullName: name,
			Phone:    strings.TrimSpace(sel.Phone),
			Address:  strings.TrimSpace(sel.Address),
		}
		if email := strings.TrimSpace(sel.Email); email != "" {
			c.Email = &email
		}
		found, err := s.customers.FindOrCreateByPhone(ctx, tx, c)
		if err != nil {
			return nil, err
		}
		// Lock so spend read below cannot race a concurrent completion.
		locked, err := s.customers.LockByID(ctx, tx, found.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		if locked == nil {
			return found, nil
		}
		return locked, nil

	case model.Guest, nil:
		return nil, nil
	}

	return nil, fmt.Errorf("unknown customer selector %T", selector)
}

// describe loads the products and customer referenced by an order.
func (s *orderService) describe(ctx context.Context, order *model.Order) (*model.OrderResponse, error) {
	resp := &model.OrderResponse{Order: order, Products: []model.Product{}}

	seen := make(map[int64]bool, len(order.Items))
	productIDs := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(productIDs) > 0 {
		g.Go(func() error {
			products, err := s.products.GetByIDs(gctx, productIDs)
			if err != nil {
				return fmt.Errorf("failed to retrieve product details: %w", err)
			}
			resp.Products = products
			return nil
		})
	}

	if order.CustomerID != nil {
		customerID := *order.CustomerID
		g.Go(func() error {
			c, err := s.customers.GetByID(gctx, customerID)
			if err != nil {
				return fmt.Errorf("failed to retrieve customer: %w", err)
			}
			if c != nil {
				resp.Customer = newCustomerResponse(c)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to load order details")
		return nil, err
	}

	return resp, nil
}

// callerCustomer returns the customer profile of the calling user, or nil.
func (s *orderService) callerCustomer(ctx context.Context, p auth.Principal) (*model.Customer, error) {
	if p.UserID == 0 {
		return nil, model.ErrForbidden
	}
	c, err := s.customers.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return c, nil
}

func (s *orderService) validatePlaceOrder(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return model.ErrEmptyCart
	}

	if _, err := model.ParseChannel(string(in.Channel)); err != nil {
		return err
	}

	for i, item := range in.Items {
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ValidationError("quantity", "must be greater than zero")
		}
	}

	if w, ok := in.Customer.(model.WalkIn); ok {
		phone := strings.TrimSpace(w.Phone)
		if phone == "" {
			return model.ValidationError("sdt_moi", "is required")
		}
		if len(phone) > maxPhoneLength {
			return model.ValidationError("sdt_moi", fmt.Sprintf("must be at most %d characters", maxPhoneLength))
		}
	}

	if len(trimmed(in.Recipient.Phone)) > maxPhoneLength {
		field := "sdt"
		if in.StaffID != nil {
			field = "sdt_nguoi_nhan"
		}
		return model.ValidationError(field, fmt.Sprintf("must be at most %d characters", maxPhoneLength))
	}

	return nil
}

func (s *orderService) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}

// fillRecipient snapshots delivery details: explicit values first, then the
// customer's own, then the walk-in placeholder.
func fillRecipient(order *model.Order, r model.Recipient, c *model.Customer) {
	order.RecipientName = walkInName
	if c != nil {
		order.RecipientName = c.FullName
		order.RecipientPhone = c.Phone
		order.RecipientAddress = c.Address
	}
	if v := trimmed(r.Name); v != "" {
		order.RecipientName = v
	}
	if v := trimmed(r.Phone); v != "" {
		order.RecipientPhone = v
	}
	if v := trimmed(r.Address); v != "" {
		order.RecipientAddress = v
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func requireStaff(p auth.Principal) error {
	if !p.IsStaff() {
		return model.ErrForbidden
	}
	return nil
}

func visibleToStaff(p auth.Principal, order *model.Order) bool {
	if p.IsAdmin() || order.Channel == model.ChannelOnline {
		return true
	}
	return order.StaffID != nil && *order.StaffID == p.UserID
}

// staffCanSee hides orders the caller could not read, so acting on one
// looks the same as acting on a missing order.
func staffCanSee(p auth.Principal) func(*model.Order) error {
	return func(order *model.Order) error {
		if !visibleToStaff(p, order) {
			return model.ErrOrderNotFound
		}
		return nil
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
