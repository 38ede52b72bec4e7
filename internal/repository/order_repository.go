package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luxbag/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, code, channel, status, payment_method, customer_id, staff_id,
	recipient_name, recipient_phone, recipient_address,
	subtotal, discount, total, note, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	Transactor
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	logger = logger.With().Str("repository", "order").Logger()
	return &orderRepository{
		Transactor: NewTransactor(pool, logger),
		pool:       pool,
		logger:     logger,
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.Channel,
		&o.Status,
		&o.PaymentMethod,
		&o.CustomerID,
		&o.StaffID,
		&o.RecipientName,
		&o.RecipientPhone,
		&o.RecipientAddress,
		&o.Subtotal,
		&o.Discount,
		&o.Total,
		&o.Note,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order header within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.Code,
		order.Channel,
		order.Status,
		order.PaymentMethod,
		order.CustomerID,
		order.StaffID,
		order.RecipientName,
		order.RecipientPhone,
		order.RecipientAddress,
		order.Subtotal,
		order.Discount,
		order.Total,
		order.Note,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_code", order.Code).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_code", order.Code).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.attachItems(ctx, r.pool, []*model.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// LockByID retrieves an order with its items and locks the order row.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order to lock not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if err := r.attachItems(ctx, tx, []*model.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatus persists status, staff, note and updated_at of an order.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, staff_id = $3, note = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, order.ID, order.Status, order.StaffID, order.Note, order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("order status updated")

	return nil
}

// List retrieves orders matching filter, newest first, with their items.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Channel != nil {
		conditions = append(conditions, "channel = "+arg(*filter.Channel))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+arg(*filter.Status))
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, "customer_id = "+arg(*filter.CustomerID))
	}
	if filter.StaffID != nil {
		conditions = append(conditions,
			"(channel = 'ONLINE' OR (channel = 'OFFLINE' AND staff_id = "+arg(*filter.StaffID)+"))")
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}

	result := make([]model.Order, len(orders))
	for i, o := range orders {
		result[i] = *o
	}
	return result, nil
}

// attachItems loads the line items of orders with a single query.
func (r *orderRepository) attachItems(ctx context.Context, q queryer, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = []model.OrderItem{}
	}

	query := `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id, id
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}
