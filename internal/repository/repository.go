package repository

import (
	"context"

	"luxbag/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Transactor starts database transactions.
type Transactor interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	// Returns nil when the product does not exist.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// LockByID reads a product and holds a row lock on it until tx ends.
	// Returns nil when the product does not exist.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// SetStock overwrites the stock of a product within tx.
	SetStock(ctx context.Context, tx pgx.Tx, id int64, stock int) error
}

// CustomerRepository defines the interface for customer data access operations.
type CustomerRepository interface {
	// GetByID retrieves a customer by ID. Returns nil when not found.
	GetByID(ctx context.Context, id int64) (*model.Customer, error)

	// GetByUserID retrieves the customer linked to a user account.
	// Returns nil when the account has no customer profile.
	GetByUserID(ctx context.Context, userID int64) (*model.Customer, error)

	// LockByID reads a customer and holds a row lock on it until tx ends.
	// Returns nil when not found.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error)

	// FindOrCreateByPhone returns the customer with c.Phone, inserting c if
	// no such customer exists yet.
	FindOrCreateByPhone(ctx context.Context, tx pgx.Tx, c *model.Customer) (*model.Customer, error)

	// AddSpend adds delta to a customer's cumulative spend, never going
	// below zero, and returns the new value.
	AddSpend(ctx context.Context, tx pgx.Tx, id int64, delta int64) (int64, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	Transactor

	// CreateOrder inserts a new order header within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	// Returns nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// LockByID retrieves an order with its items and holds a row lock on the
	// order until tx ends. Returns nil when the order does not exist.
	LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus persists status, staff, note and updated_at of an order.
	UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// List retrieves orders matching filter, newest first, with their items.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}

// DesignRepository defines the interface for design image records.
type DesignRepository interface {
	// Create inserts a new design record.
	Create(ctx context.Context, design *model.Design) error

	// GetByID retrieves a design. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Design, error)

	// ListByOwner retrieves the designs of one user, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Design, error)

	// Delete removes a design record.
	Delete(ctx context.Context, id uuid.UUID) error
}
