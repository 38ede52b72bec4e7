// Package mocks provides testify mocks of the repository interfaces and of
// pgx.Tx for unit tests in the packages built on top of the repositories.
package mocks

import (
	"context"

	"luxbag/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// ProductRepository is a mock implementation of repository.ProductRepository.
type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *ProductRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *ProductRepository) SetStock(ctx context.Context, tx pgx.Tx, id int64, stock int) error {
	args := m.Called(ctx, tx, id, stock)
	return args.Error(0)
}

// CustomerRepository is a mock implementation of repository.CustomerRepository.
type CustomerRepository struct {
	mock.Mock
}

func (m *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *CustomerRepository) GetByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *CustomerRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *CustomerRepository) FindOrCreateByPhone(ctx context.Context, tx pgx.Tx, c *model.Customer) (*model.Customer, error) {
	args := m.Called(ctx, tx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *CustomerRepository) AddSpend(ctx context.Context, tx pgx.Tx, id int64, delta int64) (int64, error) {
	args := m.Called(ctx, tx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

// OrderRepository is a mock implementation of repository.OrderRepository.
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a Tx interface value, not a typed nil
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *OrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *OrderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *OrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// DesignRepository is a mock implementation of repository.DesignRepository.
type DesignRepository struct {
	mock.Mock
}

func (m *DesignRepository) Create(ctx context.Context, design *model.Design) error {
	args := m.Called(ctx, design)
	return args.Error(0)
}

func (m *DesignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Design, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *DesignRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Design, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Design), args.Error(1)
}

func (m *DesignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Tx is a minimal mock implementation of pgx.Tx. Only Commit and Rollback
// record calls; repositories are mocked, so nothing else reaches the Tx.
type Tx struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

func (m *Tx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.Committed = true
	return args.Error(0)
}

func (m *Tx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.RolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface
func (m *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *Tx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *Tx) Conn() *pgx.Conn                                               { return nil }

// Transactor is a mock implementation of repository.Transactor.
type Transactor struct {
	mock.Mock
}

func (m *Transactor) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}
