package loyalty

import (
	"context"
	"fmt"

	"luxbag/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Ledger records completed spend against customers. Cumulative spend
// never goes below zero.
type Ledger interface {
	// Credit adds amount to the customer's spend and returns the new total.
	Credit(ctx context.Context, tx pgx.Tx, customerID int64, amount int64) (int64, error)

	// Debit removes amount from the customer's spend, clamped at zero, and
	// returns the new total.
	Debit(ctx context.Context, tx pgx.Tx, customerID int64, amount int64) (int64, error)
}

type ledger struct {
	customers repository.CustomerRepository
	logger    zerolog.Logger
}

// NewLedger creates a loyalty ledger over the customer repository.
func NewLedger(customers repository.CustomerRepository, logger zerolog.Logger) Ledger {
	return &ledger{
		customers: customers,
		logger:    logger.With().Str("component", "loyalty").Logger(),
	}
}

func (l *ledger) Credit(ctx context.Context, tx pgx.Tx, customerID int64, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must not be negative: %d", amount)
	}
	return l.apply(ctx, tx, customerID, amount)
}

func (l *ledger) Debit(ctx context.Context, tx pgx.Tx, customerID int64, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must not be negative: %d", amount)
	}
	return l.apply(ctx, tx, customerID, -amount)
}

func (l *ledger) apply(ctx context.Context, tx pgx.Tx, customerID int64, delta int64) (int64, error) {
	total, err := l.customers.AddSpend(ctx, tx, customerID, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to update loyalty spend: %w", err)
	}

	l.logger.Info().
		Int64("customer_id", customerID).
		Int64("delta", delta).
		Int64("total_spend", total).
		Str("tier", TierFor(total).Label).
		Msg("loyalty spend updated")

	return total, nil
}
