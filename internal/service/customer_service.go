package service

import (
	"context"
	"fmt"

	"luxbag/internal/auth"
	"luxbag/internal/loyalty"
	"luxbag/internal/model"
	"luxbag/internal/repository"

	"github.com/rs/zerolog"
)

type customerService struct {
	customers repository.CustomerRepository
	logger    zerolog.Logger
}

// NewCustomerService creates a new customer service.
func NewCustomerService(customers repository.CustomerRepository, logger zerolog.Logger) CustomerService {
	return &customerService{
		customers: customers,
		logger:    logger.With().Str("service", "customer").Logger(),
	}
}

func (s *customerService) GetByID(ctx context.Context, p auth.Principal, id int64) (*model.CustomerResponse, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if c == nil {
		return nil, model.ErrCustomerNotFound
	}

	return newCustomerResponse(c), nil
}

func newCustomerResponse(c *model.Customer) *model.CustomerResponse {
	tier := loyalty.TierFor(c.TotalSpend)
	return &model.CustomerResponse{
		Customer:        *c,
		Tier:            tier.Label,
		DiscountPercent: tier.Percent,
	}
}
