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

const productColumns = `id, category_id, name, description, price, stock, image_url, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product rows")
		return nil, err
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product rows")
		return nil, err
	}

	return products, nil
}

// LockByID reads a product and holds a row lock on it until tx ends.
func (r *productRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	p, err := scanProduct(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product to lock not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to lock product")
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return p, nil
}

// SetStock overwrites the stock of a product within tx.
func (r *productRepository) SetStock(ctx context.Context, tx pgx.Tx, id int64, stock int) error {
	query := `
		UPDATE products
		SET stock = $2
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, stock)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("product_id", id).
			Int("stock", stock).
			Msg("failed to update stock")
		return fmt.Errorf("failed to update stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ProductNotFoundError(id)
	}

	r.logger.Debug().
		Int64("product_id", id).
		Int("stock", stock).
		Msg("stock updated")

	return nil
}
