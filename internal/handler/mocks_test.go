package handler

import (
	"context"
	"io"

	"luxbag/internal/auth"
	"luxbag/internal/loyalty"
	"luxbag/internal/model"
	"luxbag/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*model.Order, *loyalty.Tier, error) {
	args := m.Called(ctx, in)
	order, _ := args.Get(0).(*model.Order)
	tier, _ := args.Get(1).(*loyalty.Tier)
	return order, tier, args.Error(2)
}

func (m *MockOrderService) PlaceOnlineOrder(ctx context.Context, p auth.Principal, req *model.ClientOrderRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) PlaceStaffOrder(ctx context.Context, p auth.Principal, req *model.StaffOrderRequest) (*model.StaffOrderResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StaffOrderResponse), args.Error(1)
}

func (m *MockOrderService) Approve(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, p, id)
	return orderResult(args)
}

func (m *MockOrderService) Ship(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, p, id)
	return orderResult(args)
}

func (m *MockOrderService) ConfirmDelivery(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, p, id)
	return orderResult(args)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, p, id)
	return orderResult(args)
}

func (m *MockOrderService) Cancel(ctx context.Context, p auth.Principal, id uuid.UUID, reason string) (*model.Order, error) {
	args := m.Called(ctx, p, id, reason)
	return orderResult(args)
}

func (m *MockOrderService) CancelOwn(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, p, id)
	return orderResult(args)
}

func (m *MockOrderService) GetByID(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) GetOwn(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, p auth.Principal, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, p, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ListOwn(ctx context.Context, p auth.Principal, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, p, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func orderResult(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) AdjustStock(ctx context.Context, p auth.Principal, id int64, delta int) (*model.Product, error) {
	args := m.Called(ctx, p, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockCustomerService is a mock implementation of CustomerService.
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) GetByID(ctx context.Context, p auth.Principal, id int64) (*model.CustomerResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CustomerResponse), args.Error(1)
}

// MockDesignService is a mock implementation of DesignService.
type MockDesignService struct {
	mock.Mock
}

func (m *MockDesignService) Upload(ctx context.Context, p auth.Principal, upload service.Upload) (*model.Design, error) {
	args := m.Called(ctx, p, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignService) List(ctx context.Context, p auth.Principal) ([]model.Design, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Design), args.Error(1)
}

func (m *MockDesignService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	args := m.Called(ctx, p, id)
	return args.Error(0)
}

func (m *MockDesignService) Open(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Design, io.ReadCloser, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Design), args.Get(1).(io.ReadCloser), args.Error(2)
}
