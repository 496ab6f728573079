package repository

import (
	"context"
	"fmt"

	"lumistore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// configurationRepository implements ConfigurationRepository using PostgreSQL.
type configurationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewConfigurationRepository creates a new PostgreSQL-backed configuration repository.
func NewConfigurationRepository(pool *pgxpool.Pool, logger zerolog.Logger) ConfigurationRepository {
	return &configurationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "configuration").Logger(),
	}
}

const configurationColumns = `id, product_sku, quantity, color_temperature, surface_color, total_price, created_at`

// Create persists a new configuration snapshot.
func (r *configurationRepository) Create(ctx context.Context, cfg *model.Configuration) error {
	query := `
		INSERT INTO configurations (id, product_sku, quantity, color_temperature, surface_color, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		cfg.ID,
		cfg.ProductSKU,
		cfg.Quantity,
		cfg.ColorTemperature,
		cfg.SurfaceColor,
		cfg.TotalPrice,
		cfg.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("configuration_id", cfg.ID.String()).
			Msg("failed to create configuration")
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	r.logger.Debug().
		Str("configuration_id", cfg.ID.String()).
		Str("product_sku", cfg.ProductSKU).
		Msg("configuration created")

	return nil
}

// GetByID retrieves a configuration by its ID.
func (r *configurationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM configurations WHERE id = $1`
	return r.scanConfiguration(ctx, r.pool.QueryRow(ctx, query, id), id)
}

// GetByIDTx retrieves a configuration inside an open transaction.
func (r *configurationRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM configurations WHERE id = $1`
	return r.scanConfiguration(ctx, tx.QueryRow(ctx, query, id), id)
}

func (r *configurationRepository) scanConfiguration(ctx context.Context, row pgx.Row, id uuid.UUID) (*model.Configuration, error) {
	var cfg model.Configuration
	err := row.Scan(
		&cfg.ID,
		&cfg.ProductSKU,
		&cfg.Quantity,
		&cfg.ColorTemperature,
		&cfg.SurfaceColor,
		&cfg.TotalPrice,
		&cfg.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("configuration_id", id.String()).Msg("configuration not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("configuration_id", id.String()).Msg("failed to query configuration")
		return nil, fmt.Errorf("failed to query configuration: %w", err)
	}

	return &cfg, nil
}
