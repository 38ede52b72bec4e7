package repository

import (
	"context"
	"errors"
	"fmt"

	"luxbag/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const customerColumns = `id, user_id, full_name, phone, email, address, total_spend, joined_at`

// customerRepository implements the CustomerRepository interface using PostgreSQL.
type customerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(pool *pgxpool.Pool, logger zerolog.Logger) CustomerRepository {
	return &customerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "customer").Logger(),
	}
}

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.UserID, &c.FullName, &c.Phone, &c.Email, &c.Address, &c.TotalSpend, &c.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a customer by ID.
func (r *customerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("customer_id", id).Msg("customer not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("customer_id", id).Msg("failed to query customer")
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}

	return c, nil
}

// GetByUserID retrieves the customer linked to a user account.
func (r *customerRepository) GetByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE user_id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("user_id", userID).Msg("no customer profile for user")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query customer by user")
		return nil, fmt.Errorf("failed to query customer by user: %w", err)
	}

	return c, nil
}

// LockByID reads a customer and holds a row lock on it until tx ends.
func (r *customerRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`

	c, err := scanCustomer(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("customer_id", id).Msg("customer to lock not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("customer_id", id).Msg("failed to lock customer")
		return nil, fmt.Errorf("failed to lock customer: %w", err)
	}

	return c, nil
}

// FindOrCreateByPhone returns the customer with c.Phone, inserting c if no
// such customer exists yet. The no-op update on conflict makes Postgres
// return the existing row, so concurrent walk-ins with one phone number
// resolve to a single customer.
func (r *customerRepository) FindOrCreateByPhone(ctx context.Context, tx pgx.Tx, c *model.Customer) (*model.Customer, error) {
	query := `
		INSERT INTO customers (user_id, full_name, phone, email, address, total_spend)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING ` + customerColumns

	found, err := scanCustomer(tx.QueryRow(ctx, query, c.UserID, c.FullName, c.Phone, c.Email, c.Address))
	if err != nil {
		r.logger.Error().Err(err).Str("phone", c.Phone).Msg("failed to find or create customer")
		return nil, fmt.Errorf("failed to find or create customer: %w", err)
	}

	r.logger.Debug().
		Int64("customer_id", found.ID).
		Str("phone", found.Phone).
		Msg("walk-in customer resolved")

	return found, nil
}

// AddSpend adds delta to a customer's cumulative spend, clamped at zero.
func (r *customerRepository) AddSpend(ctx context.Context, tx pgx.Tx, id int64, delta int64) (int64, error) {
	query := `
		UPDATE customers
		SET total_spend = GREATEST(total_spend + $2, 0)
		WHERE id = $1
		RETURNING total_spend
	`

	var total int64
	if err := tx.QueryRow(ctx, query, id, delta).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrCustomerNotFound
		}
		r.logger.Error().
			Err(err).
			Int64("customer_id", id).
			Int64("delta", delta).
			Msg("failed to update customer spend")
		return 0, fmt.Errorf("failed to update customer spend: %w", err)
	}

	return total, nil
}
