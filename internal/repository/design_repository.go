package repository

import (
	"context"
	"errors"
	"fmt"

	"luxbag/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const designColumns = `id, owner_id, object_key, url, note, status, created_at`

// designRepository implements the DesignRepository interface using PostgreSQL.
type designRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDesignRepository creates a new PostgreSQL-backed design repository.
func NewDesignRepository(pool *pgxpool.Pool, logger zerolog.Logger) DesignRepository {
	return &designRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "design").Logger(),
	}
}

func scanDesign(row pgx.Row) (*model.Design, error) {
	var d model.Design
	if err := row.Scan(&d.ID, &d.OwnerID, &d.ObjectKey, &d.URL, &d.Note, &d.Status, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new design record.
func (r *designRepository) Create(ctx context.Context, design *model.Design) error {
	query := `INSERT INTO designs (` + designColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		design.ID, design.OwnerID, design.ObjectKey, design.URL, design.Note, design.Status, design.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("design_id", design.ID.String()).Msg("failed to create design")
		return fmt.Errorf("failed to create design: %w", err)
	}

	return nil
}

// GetByID retrieves a design.
func (r *designRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE id = $1`

	d, err := scanDesign(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("design_id", id.String()).Msg("failed to query design")
		return nil, fmt.Errorf("failed to query design: %w", err)
	}

	return d, nil
}

// ListByOwner retrieves the designs of one user, newest first.
func (r *designRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to query designs")
		return nil, fmt.Errorf("failed to query designs: %w", err)
	}
	defer rows.Close()

	designs := []model.Design{}
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan design: %w", err)
		}
		designs = append(designs, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating designs: %w", err)
	}

	return designs, nil
}

// Delete removes a design record.
func (r *designRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM designs WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("design_id", id.String()).Msg("failed to delete design")
		return fmt.Errorf("failed to delete design: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrDesignNotFound
	}

	return nil
}
