package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"luxbag/internal/auth"
	"luxbag/internal/inventory"
	"luxbag/internal/loyalty"
	"luxbag/internal/model"
	"luxbag/internal/ordercode"
	"luxbag/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var (
	staff    = auth.Principal{UserID: 2, Role: auth.RoleStaff}
	admin    = auth.Principal{UserID: 1, Role: auth.RoleAdmin}
	shopper  = auth.Principal{UserID: 50, Role: auth.RoleCustomer}
	stranger = auth.Principal{UserID: 51, Role: auth.RoleCustomer}
)

// orderFixture wires the order service to repository mocks with the real
// inventory and loyalty ledgers on top.
type orderFixture struct {
	orders    *mocks.OrderRepository
	products  *mocks.ProductRepository
	customers *mocks.CustomerRepository
	tx        *mocks.Tx
	svc       OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:    new(mocks.OrderRepository),
		products:  new(mocks.ProductRepository),
		customers: new(mocks.CustomerRepository),
		tx:        new(mocks.Tx),
	}
	logger := zerolog.Nop()
	f.svc = NewOrderService(OrderServiceDeps{
		Orders:    f.orders,
		Products:  f.products,
		Customers: f.customers,
		Inventory: inventory.NewLedger(f.products, logger),
		Loyalty:   loyalty.NewLedger(f.customers, logger),
		Codes:     ordercode.NewGenerator("LXB"),
		Clock:     fixedClock{testNow},
		Logger:    logger,
	})
	return f
}

func (f *orderFixture) assertExpectations(t *testing.T) {
	f.orders.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.customers.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

// expectCreate captures the order written by CreateOrder.
func (f *orderFixture) expectCreate(ctx context.Context, created **model.Order) {
	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) { *created = args.Get(2).(*model.Order) }).
		Return(nil)
	f.orders.On("CreateOrderItems", ctx, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.tx.On("Commit", ctx).Return(nil)
}

func bag(id int64, price int64, stock int) *model.Product {
	return &model.Product{ID: id, Name: "Bag " + string(rune('A'+id-1)), Price: price, Stock: stock}
}

func member(id int64, spend int64) *model.Customer {
	userID := shopper.UserID
	return &model.Customer{
		ID:         id,
		UserID:     &userID,
		FullName:   "Lan Nguyen",
		Phone:      "0901000001",
		Address:    "12 Hang Bac, Ha Noi",
		TotalSpend: spend,
	}
}

func TestOrderService_PlaceOrder_GoldMemberDiscount(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 3).Return(nil)
	f.customers.On("LockByID", ctx, f.tx, int64(7)).Return(member(7, 12_000_000), nil)

	order, tier, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Channel:  model.ChannelOnline,
		Customer: model.ExistingCustomer{ID: 7},
		Items:    []model.CartItem{{ProductID: 1, Quantity: 2}},
	})

	require.NoError(t, err)
	require.NotNil(t, tier)
	assert.Equal(t, loyalty.TierGold, *tier)
	assert.Equal(t, int64(1_000_000), order.Subtotal)
	assert.Equal(t, int64(100_000), order.Discount)
	assert.Equal(t, int64(900_000), order.Total)
	assert.Equal(t, model.StatusPendingConfirmation, order.Status)
	assert.Equal(t, model.PaymentCOD, order.PaymentMethod)
	assert.True(t, strings.HasPrefix(order.Code, "LXB-"), order.Code)
	assert.Equal(t, testNow, order.CreatedAt)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(500_000), order.Items[0].UnitPrice)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, "Lan Nguyen", order.RecipientName)
	assert.Equal(t, "12 Hang Bac, Ha Noi", order.RecipientAddress)
	assert.Same(t, order, created)
	assert.False(t, f.tx.RolledBack)

	f.assertExpectations(t)
}

func TestOrderService_PlaceOrder_SecondItemFailsRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)
	f.products.On("LockByID", ctx, f.tx, int64(2)).Return(bag(2, 300_000, 1), nil)
	f.tx.On("Rollback", ctx).Return(nil)

	order, tier, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Channel:  model.ChannelOffline,
		Customer: model.Guest{},
		Items: []model.CartItem{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 2},
		},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))
	assert.Nil(t, order)
	assert.Nil(t, tier)
	assert.True(t, f.tx.RolledBack)
	f.tx.AssertNotCalled(t, "Commit", ctx)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)

	f.assertExpectations(t)
}

func TestOrderService_PlaceOrder_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.products.On("LockByID", ctx, f.tx, int64(404)).Return(nil, nil)
	f.tx.On("Rollback", ctx).Return(nil)

	_, _, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Channel: model.ChannelOnline,
		Items:   []model.CartItem{{ProductID: 404, Quantity: 1}},
	})

	var domainErr *model.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, model.ErrCodeProductNotFound, domainErr.Code)
	assert.Equal(t, int64(404), domainErr.Details["product_id"])
	f.assertExpectations(t)
}

func TestOrderService_PlaceOrder_ValidationErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   PlaceOrderInput
		wantErr error
	}{
		{
			name:    "Empty cart",
			input:   PlaceOrderInput{Channel: model.ChannelOnline},
			wantErr: model.ErrEmptyCart,
		},
		{
			name: "Zero quantity",
			input: PlaceOrderInput{
				Channel: model.ChannelOnline,
				Items:   []model.CartItem{{ProductID: 1, Quantity: 0}},
			},
			wantErr: model.ErrValidation,
		},
		{
			name: "Negative quantity",
			input: PlaceOrderInput{
				Channel: model.ChannelOnline,
				Items:   []model.CartItem{{ProductID: 1, Quantity: -3}},
			},
			wantErr: model.ErrValidation,
		},
		{
			name: "Unknown channel",
			input: PlaceOrderInput{
				Channel: "PHONE",
				Items:   []model.CartItem{{ProductID: 1, Quantity: 1}},
			},
			wantErr: model.ErrValidation,
		},
		{
			name: "Walk-in without phone",
			input: PlaceOrderInput{
				Channel:  model.ChannelOffline,
				Customer: model.WalkIn{Name: "Minh"},
				Items:    []model.CartItem{{ProductID: 1, Quantity: 1}},
			},
			wantErr: model.ErrValidation,
		},
		{
			name: "Walk-in phone too long",
			input: PlaceOrderInput{
				Channel:  model.ChannelOffline,
				Customer: model.WalkIn{Phone: "0901234567890123"},
				Items:    []model.CartItem{{ProductID: 1, Quantity: 1}},
			},
			wantErr: model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()

			_, _, err := f.svc.PlaceOrder(ctx, tt.input)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestOrderService_PlaceOrder_UnknownCustomerRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)
	f.customers.On("LockByID", ctx, f.tx, int64(99)).Return(nil, nil)
	f.tx.On("Rollback", ctx).Return(nil)

	_, _, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Channel:  model.ChannelOffline,
		Customer: model.ExistingCustomer{ID: 99},
		Items:    []model.CartItem{{ProductID: 1, Quantity: 1}},
	})

	assert.True(t, errors.Is(err, model.ErrCustomerNotFound))
	assert.True(t, f.tx.RolledBack)
	f.assertExpectations(t)
}

func TestOrderService_PlaceOrder_CreateFailsRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)
	f.orders.On("CreateOrder", ctx, f.tx, mock.AnythingOfType("*model.Order")).Return(errors.New("database error"))
	f.tx.On("Rollback", ctx).Return(nil)

	_, _, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Channel: model.ChannelOffline,
		Items:   []model.CartItem{{ProductID: 1, Quantity: 1}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	assert.True(t, f.tx.RolledBack)
	f.assertExpectations(t)
}

func TestOrderService_PlaceOnlineOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 12_000_000), nil)
	f.customers.On("LockByID", ctx, f.tx, int64(7)).Return(member(7, 12_000_000), nil)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 3).Return(nil)

	phone := "0988000111"
	resp, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
		CartItems:     []model.CartItem{{ProductID: 1, Quantity: 2}},
		Note:          "Gift wrap please",
		PaymentMethod: "BANK_TRANSFER",
		Phone:         &phone,
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, created.Code, resp.OrderCode)
	assert.Equal(t, model.PaymentInfo{Subtotal: 1_000_000, Discount: 100_000, Total: 900_000}, resp.PaymentInfo)

	assert.Equal(t, "Gift wrap please | VIP: 10% off", created.Note)
	assert.Equal(t, model.PaymentBankTransfer, created.PaymentMethod)
	assert.Equal(t, "0988000111", created.RecipientPhone)
	assert.Equal(t, "Lan Nguyen", created.RecipientName)
	assert.Nil(t, created.StaffID)

	f.assertExpectations(t)
}

func TestOrderService_PlaceOnlineOrder_BlankRecipientUsesProfile(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
	f.customers.On("LockByID", ctx, f.tx, int64(7)).Return(member(7, 0), nil)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)

	empty, blank := "", "   "
	_, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
		CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
		Name:      &empty,
		Phone:     &blank,
		Address:   &empty,
	})

	require.NoError(t, err)
	assert.Equal(t, "Lan Nguyen", created.RecipientName)
	assert.Equal(t, "0901000001", created.RecipientPhone)
	assert.Equal(t, "12 Hang Bac, Ha Noi", created.RecipientAddress)
}

func TestOrderService_PlaceOnlineOrder_NoDiscountNoTag(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
	f.customers.On("LockByID", ctx, f.tx, int64(7)).Return(member(7, 0), nil)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)

	resp, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
		CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.PaymentInfo.Discount)
	assert.Empty(t, created.Note)
	assert.Equal(t, model.PaymentCOD, created.PaymentMethod)
}

func TestOrderService_PlaceOnlineOrder_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("No customer profile", func(t *testing.T) {
		f := newOrderFixture()
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(nil, nil)

		_, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
			CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
		})

		assert.True(t, errors.Is(err, model.ErrCustomerNotFound))
	})

	t.Run("Unknown payment method", func(t *testing.T) {
		f := newOrderFixture()

		_, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
			CartItems:     []model.CartItem{{ProductID: 1, Quantity: 1}},
			PaymentMethod: "BITCOIN",
		})

		assert.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("Anonymous caller", func(t *testing.T) {
		f := newOrderFixture()

		_, err := f.svc.PlaceOnlineOrder(ctx, auth.Principal{}, &model.ClientOrderRequest{
			CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
		})

		assert.True(t, errors.Is(err, model.ErrForbidden))
	})
}

func TestOrderService_PlaceOrder_RecipientPhoneTooLong(t *testing.T) {
	ctx := context.Background()
	phone := "+84 0901 234 567 ext 99"

	t.Run("Online checkout", func(t *testing.T) {
		f := newOrderFixture()
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)

		_, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
			CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
			Phone:     &phone,
		})

		var domainErr *model.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, model.ErrCodeValidation, domainErr.Code)
		assert.Equal(t, "sdt", domainErr.Details["field"])
		f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Staff order", func(t *testing.T) {
		f := newOrderFixture()
		customerID := int64(7)

		_, err := f.svc.PlaceStaffOrder(ctx, staff, &model.StaffOrderRequest{
			Channel:        "ONLINE",
			CustomerID:     &customerID,
			CartItems:      []model.CartItem{{ProductID: 1, Quantity: 1}},
			RecipientPhone: &phone,
		})

		var domainErr *model.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, model.ErrCodeValidation, domainErr.Code)
		assert.Equal(t, "sdt_nguoi_nhan", domainErr.Details["field"])
		f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Fifteen characters fit", func(t *testing.T) {
		f := newOrderFixture()
		fits := "+84901234567890"

		var created *model.Order
		f.expectCreate(ctx, &created)
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
		f.customers.On("LockByID", ctx, f.tx, int64(7)).Return(member(7, 0), nil)
		f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
		f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)

		_, err := f.svc.PlaceOnlineOrder(ctx, shopper, &model.ClientOrderRequest{
			CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
			Phone:     &fits,
		})

		require.NoError(t, err)
		assert.Equal(t, fits, created.RecipientPhone)
	})
}

func TestOrderService_PlaceStaffOrder_Guest(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 750_000, 2), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 1).Return(nil)

	resp, err := f.svc.PlaceStaffOrder(ctx, staff, &model.StaffOrderRequest{
		CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Nil(t, resp.CustomerInfo)
	assert.Equal(t, model.ChannelOffline, created.Channel)
	assert.Equal(t, model.StatusPendingPayment, created.Status)
	assert.Equal(t, model.PaymentCash, created.PaymentMethod)
	assert.Equal(t, "In-store sale", created.Note)
	assert.Equal(t, "Walk-in customer", created.RecipientName)
	assert.Nil(t, created.CustomerID)
	assert.Equal(t, int64(0), created.Discount)
	require.NotNil(t, created.StaffID)
	assert.Equal(t, staff.UserID, *created.StaffID)

	f.customers.AssertNotCalled(t, "LockByID", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestOrderService_PlaceStaffOrder_WalkInReusesPhone(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	existing := &model.Customer{ID: 30, FullName: "Hoa Le", Phone: "0903000003", TotalSpend: 150_000_000}

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 2_000_000, 4), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 3).Return(nil)
	f.customers.On("FindOrCreateByPhone", ctx, f.tx, mock.MatchedBy(func(c *model.Customer) bool {
		return c.Phone == "0903000003" && c.FullName == "Someone"
	})).Return(existing, nil)
	f.customers.On("LockByID", ctx, f.tx, int64(30)).Return(existing, nil)
	f.customers.On("GetByID", ctx, int64(30)).Return(existing, nil)

	resp, err := f.svc.PlaceStaffOrder(ctx, staff, &model.StaffOrderRequest{
		CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
		NewName:   "Someone",
		NewPhone:  " 0903000003 ",
	})

	require.NoError(t, err)
	require.NotNil(t, resp.CustomerInfo)
	assert.Equal(t, int64(30), resp.CustomerInfo.ID)
	assert.Equal(t, "Hoa Le", resp.CustomerInfo.FullName)
	assert.Equal(t, loyalty.TierDiamond.Label, resp.CustomerInfo.Tier)
	assert.Equal(t, 15, resp.CustomerInfo.DiscountPercent)
	assert.Equal(t, int64(300_000), created.Discount)
	assert.Equal(t, int64(1_700_000), created.Total)
	assert.Equal(t, "Hoa Le", created.RecipientName)

	f.assertExpectations(t)
}

func TestOrderService_PlaceStaffOrder_OnlineChannel(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	var created *model.Order
	f.expectCreate(ctx, &created)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 5), nil)
	f.products.On("SetStock", ctx, f.tx, int64(1), 4).Return(nil)
	f.customers.On("LockByID", ctx, f.tx, int64(7)).Return(member(7, 0), nil)
	f.customers.On("GetByID", ctx, int64(7)).Return(member(7, 0), nil)

	customerID := int64(7)
	name := "Recipient Name"
	note := "Phone order"
	resp, err := f.svc.PlaceStaffOrder(ctx, staff, &model.StaffOrderRequest{
		Channel:       "ONLINE",
		CustomerID:    &customerID,
		RecipientName: &name,
		CartItems:     []model.CartItem{{ProductID: 1, Quantity: 1}},
		Note:          &note,
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingConfirmation, created.Status)
	assert.Equal(t, model.PaymentCOD, created.PaymentMethod)
	assert.Equal(t, "Recipient Name", created.RecipientName)
	assert.Equal(t, "Phone order", created.Note)
	assert.Equal(t, loyalty.TierMember.Label, resp.CustomerInfo.Tier)
	assert.Equal(t, "Lan Nguyen", resp.CustomerInfo.FullName)
}

func TestOrderService_PlaceStaffOrder_Forbidden(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.PlaceStaffOrder(context.Background(), shopper, &model.StaffOrderRequest{
		CartItems: []model.CartItem{{ProductID: 1, Quantity: 1}},
	})

	assert.True(t, errors.Is(err, model.ErrForbidden))
}

// placedOrder is a persisted order with one line of two units of product 1.
func placedOrder(channel model.Channel, status model.Status, customerID *int64) *model.Order {
	id := uuid.New()
	order := &model.Order{
		ID:        id,
		Code:      "LXB-TEST",
		Channel:   channel,
		Status:    status,
		Note:      "Gift wrap please",
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
		Items: []model.OrderItem{
			{ID: uuid.New(), OrderID: id, ProductID: 1, Quantity: 2, UnitPrice: 500_000},
		},
		CustomerID: customerID,
	}
	order.SetTotals(1_000_000, 100_000)
	return order
}

func (f *orderFixture) expectTransition(ctx context.Context, order *model.Order) {
	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.orders.On("LockByID", ctx, f.tx, order.ID).Return(order, nil)
	f.orders.On("UpdateStatus", ctx, f.tx, order).Return(nil)
	f.tx.On("Commit", ctx).Return(nil)
}

func (f *orderFixture) expectRejected(ctx context.Context, order *model.Order) {
	f.orders.On("BeginTx", ctx).Return(f.tx, nil)
	f.orders.On("LockByID", ctx, f.tx, order.ID).Return(order, nil)
	f.tx.On("Rollback", ctx).Return(nil)
}

func TestOrderService_Transitions(t *testing.T) {
	ctx := context.Background()
	customerID := int64(7)

	type call func(svc OrderService, id uuid.UUID) (*model.Order, error)
	approve := func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Approve(ctx, staff, id) }
	ship := func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Ship(ctx, staff, id) }
	deliver := func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.ConfirmDelivery(ctx, staff, id) }
	pay := func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.ConfirmPayment(ctx, staff, id) }
	cancel := func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Cancel(ctx, staff, id, "") }

	tests := []struct {
		name    string
		channel model.Channel
		from    model.Status
		call    call
		want    model.Status
		// setup adds side-effect expectations
		setup func(f *orderFixture)
	}{
		{name: "Approve pending online order", channel: model.ChannelOnline, from: model.StatusPendingConfirmation, call: approve, want: model.StatusConfirmed},
		{name: "Ship confirmed order", channel: model.ChannelOnline, from: model.StatusConfirmed, call: ship, want: model.StatusShipping},
		{
			name: "Confirm delivery credits spend", channel: model.ChannelOnline, from: model.StatusShipping, call: deliver, want: model.StatusCompleted,
			setup: func(f *orderFixture) {
				f.customers.On("AddSpend", ctx, f.tx, customerID, int64(900_000)).Return(int64(12_900_000), nil)
			},
		},
		{
			name: "Confirm payment credits spend", channel: model.ChannelOffline, from: model.StatusPendingPayment, call: pay, want: model.StatusCompleted,
			setup: func(f *orderFixture) {
				f.customers.On("AddSpend", ctx, f.tx, customerID, int64(900_000)).Return(int64(900_000), nil)
			},
		},
		{
			name: "Cancel pending order restores stock", channel: model.ChannelOnline, from: model.StatusPendingConfirmation, call: cancel, want: model.StatusCancelled,
			setup: func(f *orderFixture) {
				f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 3), nil)
				f.products.On("SetStock", ctx, f.tx, int64(1), 5).Return(nil)
			},
		},
		{
			name: "Cancel unpaid offline order restores stock", channel: model.ChannelOffline, from: model.StatusPendingPayment, call: cancel, want: model.StatusCancelled,
			setup: func(f *orderFixture) {
				f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 0), nil)
				f.products.On("SetStock", ctx, f.tx, int64(1), 2).Return(nil)
			},
		},
		{
			name: "Cancel confirmed order restores stock", channel: model.ChannelOnline, from: model.StatusConfirmed, call: cancel, want: model.StatusCancelled,
			setup: func(f *orderFixture) {
				f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 1), nil)
				f.products.On("SetStock", ctx, f.tx, int64(1), 3).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			order := placedOrder(tt.channel, tt.from, &customerID)
			if tt.channel == model.ChannelOffline {
				seller := staff.UserID
				order.StaffID = &seller
			}
			f.expectTransition(ctx, order)
			if tt.setup != nil {
				tt.setup(f)
			}

			got, err := tt.call(f.svc, order.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, testNow, got.UpdatedAt)
			assert.True(t, f.tx.Committed)
			f.assertExpectations(t)
		})
	}
}

func TestOrderService_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	customerID := int64(7)

	tests := []struct {
		name string
		from model.Status
		call func(svc OrderService, id uuid.UUID) (*model.Order, error)
	}{
		{
			name: "Cancel completed order",
			from: model.StatusCompleted,
			call: func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Cancel(ctx, staff, id, "") },
		},
		{
			name: "Cancel shipping order",
			from: model.StatusShipping,
			call: func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Cancel(ctx, staff, id, "") },
		},
		{
			name: "Ship pending order",
			from: model.StatusPendingConfirmation,
			call: func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Ship(ctx, staff, id) },
		},
		{
			name: "Approve cancelled order",
			from: model.StatusCancelled,
			call: func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.Approve(ctx, staff, id) },
		},
		{
			name: "Confirm payment on shipping order",
			from: model.StatusShipping,
			call: func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.ConfirmPayment(ctx, staff, id) },
		},
		{
			name: "Confirm delivery twice",
			from: model.StatusCompleted,
			call: func(svc OrderService, id uuid.UUID) (*model.Order, error) { return svc.ConfirmDelivery(ctx, staff, id) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			order := placedOrder(model.ChannelOnline, tt.from, &customerID)
			f.expectRejected(ctx, order)

			_, err := tt.call(f.svc, order.ID)

			var domainErr *model.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, model.ErrCodeInvalidTransition, domainErr.Code)
			assert.Equal(t, tt.from, order.Status, "status is unchanged")
			assert.True(t, f.tx.RolledBack)
			f.products.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.customers.AssertNotCalled(t, "AddSpend", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestOrderService_Approve_RecordsStaff(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order := placedOrder(model.ChannelOnline, model.StatusPendingConfirmation, nil)
	f.expectTransition(ctx, order)

	got, err := f.svc.Approve(ctx, staff, order.ID)

	require.NoError(t, err)
	require.NotNil(t, got.StaffID)
	assert.Equal(t, staff.UserID, *got.StaffID)
}

func TestOrderService_ConfirmDelivery_GuestSkipsLoyalty(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order := placedOrder(model.ChannelOnline, model.StatusShipping, nil)
	f.expectTransition(ctx, order)

	_, err := f.svc.ConfirmDelivery(ctx, staff, order.ID)

	require.NoError(t, err)
	f.customers.AssertNotCalled(t, "AddSpend", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Cancel_Note(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		reason string
		want   string
	}{
		{name: "Default reason", reason: "  ", want: "Gift wrap please | Cancelled: Customer changed their mind"},
		{name: "Given reason", reason: "Out of gold thread", want: "Gift wrap please | Cancelled: Out of gold thread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			order := placedOrder(model.ChannelOnline, model.StatusConfirmed, nil)
			f.expectTransition(ctx, order)
			f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 0), nil)
			f.products.On("SetStock", ctx, f.tx, int64(1), 2).Return(nil)

			got, err := f.svc.Cancel(ctx, staff, order.ID, tt.reason)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Note)
			assert.Equal(t, staff.UserID, *got.StaffID)
		})
	}
}

func TestOrderService_Cancel_ReleaseFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order := placedOrder(model.ChannelOnline, model.StatusConfirmed, nil)
	f.expectRejected(ctx, order)
	f.products.On("LockByID", ctx, f.tx, int64(1)).Return(nil, nil)

	_, err := f.svc.Cancel(ctx, staff, order.ID, "")

	assert.True(t, errors.Is(err, model.ErrProductNotFound))
	assert.True(t, f.tx.RolledBack)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Transition_NotFoundAndForbidden(t *testing.T) {
	ctx := context.Background()

	t.Run("Order not found", func(t *testing.T) {
		f := newOrderFixture()
		id := uuid.New()
		f.orders.On("BeginTx", ctx).Return(f.tx, nil)
		f.orders.On("LockByID", ctx, f.tx, id).Return(nil, nil)
		f.tx.On("Rollback", ctx).Return(nil)

		_, err := f.svc.Ship(ctx, staff, id)

		assert.True(t, errors.Is(err, model.ErrOrderNotFound))
		assert.True(t, f.tx.RolledBack)
	})

	t.Run("Customer cannot approve", func(t *testing.T) {
		f := newOrderFixture()

		_, err := f.svc.Approve(ctx, shopper, uuid.New())

		assert.True(t, errors.Is(err, model.ErrForbidden))
		f.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})
}

func TestOrderService_Transition_OtherStaffOfflineOrder(t *testing.T) {
	ctx := context.Background()
	customerID := int64(7)
	otherStaff := int64(99)

	tests := []struct {
		name string
		from model.Status
		call func(svc OrderService, p auth.Principal, id uuid.UUID) (*model.Order, error)
	}{
		{
			name: "Confirm payment",
			from: model.StatusPendingPayment,
			call: func(svc OrderService, p auth.Principal, id uuid.UUID) (*model.Order, error) {
				return svc.ConfirmPayment(ctx, p, id)
			},
		},
		{
			name: "Cancel",
			from: model.StatusPendingPayment,
			call: func(svc OrderService, p auth.Principal, id uuid.UUID) (*model.Order, error) {
				return svc.Cancel(ctx, p, id, "")
			},
		},
		{
			name: "Approve",
			from: model.StatusPendingConfirmation,
			call: func(svc OrderService, p auth.Principal, id uuid.UUID) (*model.Order, error) {
				return svc.Approve(ctx, p, id)
			},
		},
		{
			name: "Ship",
			from: model.StatusConfirmed,
			call: func(svc OrderService, p auth.Principal, id uuid.UUID) (*model.Order, error) {
				return svc.Ship(ctx, p, id)
			},
		},
		{
			name: "Confirm delivery",
			from: model.StatusShipping,
			call: func(svc OrderService, p auth.Principal, id uuid.UUID) (*model.Order, error) {
				return svc.ConfirmDelivery(ctx, p, id)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" is hidden from another staff member", func(t *testing.T) {
			f := newOrderFixture()
			order := placedOrder(model.ChannelOffline, tt.from, &customerID)
			order.StaffID = &otherStaff
			note := order.Note
			f.expectRejected(ctx, order)

			_, err := tt.call(f.svc, staff, order.ID)

			assert.True(t, errors.Is(err, model.ErrOrderNotFound))
			assert.True(t, f.tx.RolledBack)
			assert.Equal(t, tt.from, order.Status)
			assert.Equal(t, otherStaff, *order.StaffID)
			assert.Equal(t, note, order.Note)
			f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			f.products.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.customers.AssertNotCalled(t, "AddSpend", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}

	t.Run("Admin confirms payment on any offline order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOffline, model.StatusPendingPayment, &customerID)
		order.StaffID = &otherStaff
		f.expectTransition(ctx, order)
		f.customers.On("AddSpend", ctx, f.tx, customerID, int64(900_000)).Return(int64(900_000), nil)

		got, err := f.svc.ConfirmPayment(ctx, admin, order.ID)

		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, got.Status)
		assert.True(t, f.tx.Committed)
		f.assertExpectations(t)
	})

	t.Run("Seller cancels their own offline order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOffline, model.StatusPendingPayment, &customerID)
		seller := staff.UserID
		order.StaffID = &seller
		f.expectTransition(ctx, order)
		f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 0), nil)
		f.products.On("SetStock", ctx, f.tx, int64(1), 2).Return(nil)

		got, err := f.svc.Cancel(ctx, staff, order.ID, "")

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		f.assertExpectations(t)
	})
}

func TestOrderService_CancelOwn(t *testing.T) {
	ctx := context.Background()
	customerID := int64(7)

	t.Run("Owner cancels pending order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusPendingConfirmation, &customerID)
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
		f.expectTransition(ctx, order)
		f.products.On("LockByID", ctx, f.tx, int64(1)).Return(bag(1, 500_000, 3), nil)
		f.products.On("SetStock", ctx, f.tx, int64(1), 5).Return(nil)

		got, err := f.svc.CancelOwn(ctx, shopper, order.ID)

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		assert.Equal(t, "Gift wrap please | Cancelled by customer", got.Note)
		assert.Nil(t, got.StaffID)
		f.assertExpectations(t)
	})

	t.Run("Confirmed order cannot be withdrawn", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusConfirmed, &customerID)
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
		f.expectRejected(ctx, order)

		_, err := f.svc.CancelOwn(ctx, shopper, order.ID)

		assert.True(t, errors.Is(err, model.ErrInvalidTransition))
		assert.Equal(t, model.StatusConfirmed, order.Status)
	})

	t.Run("Other customer's order is hidden", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusPendingConfirmation, &customerID)
		f.customers.On("GetByUserID", ctx, stranger.UserID).Return(&model.Customer{ID: 8}, nil)
		f.expectRejected(ctx, order)

		_, err := f.svc.CancelOwn(ctx, stranger, order.ID)

		assert.True(t, errors.Is(err, model.ErrOrderNotFound))
	})
}

func TestOrderService_GetByID(t *testing.T) {
	ctx := context.Background()
	customerID := int64(7)
	otherStaff := int64(3)

	t.Run("Loads products and customer", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusConfirmed, &customerID)
		order.Items = append(order.Items,
			model.OrderItem{ID: uuid.New(), OrderID: order.ID, ProductID: 2, Quantity: 1, UnitPrice: 100},
			model.OrderItem{ID: uuid.New(), OrderID: order.ID, ProductID: 1, Quantity: 1, UnitPrice: 500_000},
		)
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.products.On("GetByIDs", mock.Anything, []int64{1, 2}).
			Return([]model.Product{*bag(1, 500_000, 3), *bag(2, 100, 1)}, nil)
		f.customers.On("GetByID", mock.Anything, customerID).Return(member(7, 120_000_000), nil)

		resp, err := f.svc.GetByID(ctx, staff, order.ID)

		require.NoError(t, err)
		assert.Same(t, order, resp.Order)
		assert.Len(t, resp.Products, 2)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, loyalty.TierDiamond.Label, resp.Customer.Tier)
		assert.Equal(t, 15, resp.Customer.DiscountPercent)
		f.assertExpectations(t)
	})

	t.Run("Product lookup failure", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusConfirmed, nil)
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.products.On("GetByIDs", mock.Anything, []int64{1}).Return(nil, errors.New("database error"))

		_, err := f.svc.GetByID(ctx, staff, order.ID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database error")
	})

	t.Run("Another staff member's offline order is hidden", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOffline, model.StatusPendingPayment, nil)
		order.StaffID = &otherStaff
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.svc.GetByID(ctx, staff, order.ID)

		assert.True(t, errors.Is(err, model.ErrOrderNotFound))
	})

	t.Run("Admin sees any order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOffline, model.StatusPendingPayment, nil)
		order.StaffID = &otherStaff
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.products.On("GetByIDs", mock.Anything, []int64{1}).Return([]model.Product{*bag(1, 500_000, 3)}, nil)

		resp, err := f.svc.GetByID(ctx, admin, order.ID)

		require.NoError(t, err)
		assert.Nil(t, resp.Customer)
	})

	t.Run("Missing order", func(t *testing.T) {
		f := newOrderFixture()
		id := uuid.New()
		f.orders.On("GetByID", ctx, id).Return(nil, nil)

		_, err := f.svc.GetByID(ctx, staff, id)

		assert.True(t, errors.Is(err, model.ErrOrderNotFound))
	})
}

func TestOrderService_GetOwn(t *testing.T) {
	ctx := context.Background()
	customerID := int64(7)

	t.Run("Own order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusConfirmed, &customerID)
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)
		f.products.On("GetByIDs", mock.Anything, []int64{1}).Return([]model.Product{*bag(1, 500_000, 3)}, nil)
		f.customers.On("GetByID", mock.Anything, customerID).Return(member(7, 0), nil)

		resp, err := f.svc.GetOwn(ctx, shopper, order.ID)

		require.NoError(t, err)
		assert.Equal(t, order.ID, resp.Order.ID)
	})

	t.Run("Someone else's order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(model.ChannelOnline, model.StatusConfirmed, &customerID)
		f.customers.On("GetByUserID", ctx, stranger.UserID).Return(&model.Customer{ID: 8}, nil)
		f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

		_, err := f.svc.GetOwn(ctx, stranger, order.ID)

		assert.True(t, errors.Is(err, model.ErrOrderNotFound))
	})
}

func TestOrderService_List(t *testing.T) {
	ctx := context.Background()
	channel := model.ChannelOffline

	t.Run("Staff sees own offline orders", func(t *testing.T) {
		f := newOrderFixture()
		staffID := staff.UserID
		f.orders.On("List", ctx, model.OrderFilter{Channel: &channel, StaffID: &staffID, Limit: 20}).
			Return([]model.Order{}, nil)

		orders, err := f.svc.List(ctx, staff, model.OrderFilter{Channel: &channel})

		require.NoError(t, err)
		assert.Empty(t, orders)
		f.assertExpectations(t)
	})

	t.Run("Admin is unrestricted and limit is capped", func(t *testing.T) {
		f := newOrderFixture()
		f.orders.On("List", ctx, model.OrderFilter{Limit: 100, Offset: 0}).Return([]model.Order{{}}, nil)

		orders, err := f.svc.List(ctx, admin, model.OrderFilter{Limit: 1000, Offset: -5})

		require.NoError(t, err)
		assert.Len(t, orders, 1)
		f.assertExpectations(t)
	})

	t.Run("Customers cannot list all orders", func(t *testing.T) {
		f := newOrderFixture()

		_, err := f.svc.List(ctx, shopper, model.OrderFilter{})

		assert.True(t, errors.Is(err, model.ErrForbidden))
	})
}

func TestOrderService_ListOwn(t *testing.T) {
	ctx := context.Background()

	t.Run("Customer with orders", func(t *testing.T) {
		f := newOrderFixture()
		customerID := int64(7)
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(member(7, 0), nil)
		f.orders.On("List", ctx, model.OrderFilter{CustomerID: &customerID, Limit: 5, Offset: 10}).
			Return([]model.Order{{}, {}}, nil)

		orders, err := f.svc.ListOwn(ctx, shopper, 5, 10)

		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("No profile yet", func(t *testing.T) {
		f := newOrderFixture()
		f.customers.On("GetByUserID", ctx, shopper.UserID).Return(nil, nil)

		orders, err := f.svc.ListOwn(ctx, shopper, 0, 0)

		require.NoError(t, err)
		assert.Empty(t, orders)
		f.orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}
