// Package inventory owns product stock. All stock changes run inside the
// caller's transaction and hold the product row lock until it ends, so two
// checkouts touching the same product serialize on that row.
package inventory

import (
	"context"
	"fmt"
	"math"

	"luxbag/internal/model"
	"luxbag/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Ledger reserves and restores product stock.
type Ledger interface {
	// Reserve takes qty units of a product. The returned product carries the
	// stock after the reservation and the price to capture on the order line.
	Reserve(ctx context.Context, tx pgx.Tx, productID int64, qty int) (*model.Product, error)

	// Release puts qty units back.
	Release(ctx context.Context, tx pgx.Tx, productID int64, qty int) error

	// Adjust changes stock by delta, which may be negative.
	Adjust(ctx context.Context, tx pgx.Tx, productID int64, delta int) (*model.Product, error)
}

type ledger struct {
	products repository.ProductRepository
	logger   zerolog.Logger
}

// NewLedger creates an inventory ledger over the product repository.
func NewLedger(products repository.ProductRepository, logger zerolog.Logger) Ledger {
	return &ledger{
		products: products,
		logger:   logger.With().Str("component", "inventory").Logger(),
	}
}

func (l *ledger) Reserve(ctx context.Context, tx pgx.Tx, productID int64, qty int) (*model.Product, error) {
	if qty <= 0 {
		return nil, model.ValidationError("quantity", "must be greater than zero")
	}

	product, err := l.lock(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock < qty {
		l.logger.Warn().
			Int64("product_id", productID).
			Int("requested", qty).
			Int("available", product.Stock).
			Msg("insufficient stock")
		return nil, model.InsufficientStockError(product.ID, product.Name, product.Stock)
	}

	if err := l.products.SetStock(ctx, tx, productID, product.Stock-qty); err != nil {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}
	product.Stock -= qty

	l.logger.Debug().
		Int64("product_id", productID).
		Int("quantity", qty).
		Int("remaining", product.Stock).
		Msg("stock reserved")

	return product, nil
}

func (l *ledger) Release(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	if qty <= 0 {
		return model.ValidationError("quantity", "must be greater than zero")
	}

	product, err := l.lock(ctx, tx, productID)
	if err != nil {
		return err
	}

	if err := l.products.SetStock(ctx, tx, productID, product.Stock+qty); err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}

	l.logger.Debug().
		Int64("product_id", productID).
		Int("quantity", qty).
		Int("remaining", product.Stock+qty).
		Msg("stock released")

	return nil
}

func (l *ledger) Adjust(ctx context.Context, tx pgx.Tx, productID int64, delta int) (*model.Product, error) {
	// products.stock is an INTEGER column.
	if delta > math.MaxInt32 || delta < math.MinInt32 {
		return nil, model.ValidationError("delta", "is out of range")
	}

	product, err := l.lock(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if delta == 0 {
		return product, nil
	}

	next := product.Stock + delta
	if next < 0 {
		return nil, model.InsufficientStockError(product.ID, product.Name, product.Stock)
	}
	if next > math.MaxInt32 {
		return nil, model.ValidationError("delta", fmt.Sprintf("stock cannot exceed %d", math.MaxInt32))
	}

	if err := l.products.SetStock(ctx, tx, productID, next); err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	product.Stock = next

	l.logger.Info().
		Int64("product_id", productID).
		Int("delta", delta).
		Int("stock", next).
		Msg("stock adjusted")

	return product, nil
}

func (l *ledger) lock(ctx context.Context, tx pgx.Tx, productID int64) (*model.Product, error) {
	product, err := l.products.LockByID(ctx, tx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	if product == nil {
		l.logger.Debug().Int64("product_id", productID).Msg("product not found")
		return nil, model.ProductNotFoundError(productID)
	}
	return product, nil
}
