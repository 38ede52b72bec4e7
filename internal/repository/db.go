package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// queryer is the read side shared by *pgxpool.Pool and pgx.Tx, so loaders
// can run either inside a transaction or directly on the pool.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type poolTransactor struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTransactor creates a Transactor over the pool.
func NewTransactor(pool *pgxpool.Pool, logger zerolog.Logger) Transactor {
	return &poolTransactor{pool: pool, logger: logger}
}

func (t *poolTransactor) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}
