package service

import (
	"context"
	"io"
	"time"

	"luxbag/internal/auth"
	"luxbag/internal/loyalty"
	"luxbag/internal/model"

	"github.com/google/uuid"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the wall clock in UTC.
var SystemClock Clock = systemClock{}

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// AdjustStock changes the stock of a product by delta. Staff only.
	AdjustStock(ctx context.Context, p auth.Principal, id int64, delta int) (*model.Product, error)
}

// CustomerService defines staff-facing customer lookups.
type CustomerService interface {
	// GetByID retrieves a customer with its current loyalty tier.
	GetByID(ctx context.Context, p auth.Principal, id int64) (*model.CustomerResponse, error)
}

// PlaceOrderInput describes an order to be placed.
type PlaceOrderInput struct {
	Channel       model.Channel
	Customer      model.CustomerSelector
	Items         []model.CartItem
	Note          string
	PaymentMethod model.PaymentMethod
	Recipient     model.Recipient
	// StaffID is the staff user creating the order at the till, if any.
	StaffID *int64
	// TagDiscount appends the applied discount to the note.
	TagDiscount bool
}

// OrderService defines checkout and the order workflow.
type OrderService interface {
	// PlaceOrder reserves stock, prices the cart and records the order in a
	// single transaction. The tier is nil for guest orders.
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*model.Order, *loyalty.Tier, error)

	// PlaceOnlineOrder is self-service checkout for the calling customer.
	PlaceOnlineOrder(ctx context.Context, p auth.Principal, req *model.ClientOrderRequest) (*model.CheckoutResponse, error)

	// PlaceStaffOrder is point-of-sale checkout.
	PlaceStaffOrder(ctx context.Context, p auth.Principal, req *model.StaffOrderRequest) (*model.StaffOrderResponse, error)

	Approve(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error)
	Ship(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error)
	ConfirmDelivery(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error)
	ConfirmPayment(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error)

	// Cancel cancels an order and returns its stock. An empty reason uses
	// the default reason.
	Cancel(ctx context.Context, p auth.Principal, id uuid.UUID, reason string) (*model.Order, error)

	// CancelOwn lets a customer withdraw an order that has not been
	// confirmed yet.
	CancelOwn(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Order, error)

	// GetByID retrieves an order with its products and customer. Staff only.
	GetByID(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.OrderResponse, error)

	// GetOwn retrieves one of the calling customer's orders.
	GetOwn(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.OrderResponse, error)

	// List retrieves orders visible to a staff user.
	List(ctx context.Context, p auth.Principal, filter model.OrderFilter) ([]model.Order, error)

	// ListOwn retrieves the calling customer's orders.
	ListOwn(ctx context.Context, p auth.Principal, limit, offset int) ([]model.Order, error)
}

// Upload is a design image submitted by a user.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Note        string
}

// DesignService defines operations on uploaded design images.
type DesignService interface {
	Upload(ctx context.Context, p auth.Principal, upload Upload) (*model.Design, error)
	List(ctx context.Context, p auth.Principal) ([]model.Design, error)
	Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error

	// Open returns the image of a design the caller may see. The caller
	// closes the reader.
	Open(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Design, io.ReadCloser, error)
}
