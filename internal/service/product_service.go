package service

import (
	"context"
	"fmt"

	"luxbag/internal/auth"
	"luxbag/internal/inventory"
	"luxbag/internal/model"
	"luxbag/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	txs         repository.Transactor
	inventory   inventory.Ledger
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	txs repository.Transactor,
	ledger inventory.Ledger,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		txs:         txs,
		inventory:   ledger,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, model.ProductNotFoundError(id)
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ProductNotFoundError(id)
	}

	return product, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (s *productService) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return products, nil
}

// AdjustStock applies a staff inventory correction.
func (s *productService) AdjustStock(ctx context.Context, p auth.Principal, id int64, delta int) (*model.Product, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	tx, err := s.txs.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var product *model.Product
	product, err = s.inventory.Adjust(ctx, tx, id, delta)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.logger.Info().
		Int64("product_id", id).
		Int64("staff_id", p.UserID).
		Int("delta", delta).
		Int("stock", product.Stock).
		Msg("stock adjusted by staff")

	return product, nil
}
