package database

import (
	"context"
	"fmt"
	"time"

	"luxbag/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	applicationName = "luxbag"
	pingTimeout     = 5 * time.Second
)

// NewPool opens the shared connection pool. Checkout holds a pooled
// connection for the whole transaction, so MaxConnections bounds how many
// carts can be reserving stock at once.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	// Timestamps are stored as TIMESTAMPTZ and compared in UTC.
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	log := logger.With().
		Str("component", "database").
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Logger()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("database unreachable")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Msg("database pool ready")

	return pool, nil
}
