package repository

import (
	"context"
	"fmt"

	"lumistore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

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

const productColumns = `id, sku, name, name_ar, image_url, price, inventory, created_at, updated_at`

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY name
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
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetBySKU retrieves a single product by its business SKU.
func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	return r.scanProductRow(r.pool.QueryRow(ctx, query, sku), sku)
}

// GetBySKUTx retrieves a product inside an open transaction.
func (r *productRepository) GetBySKUTx(ctx context.Context, tx pgx.Tx, sku string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	return r.scanProductRow(tx.QueryRow(ctx, query, sku), sku)
}

// ReserveInventory atomically decrements inventory by quantity within the
// transaction. The WHERE clause guards the non-negative inventory invariant;
// zero rows affected means the product no longer holds enough stock.
func (r *productRepository) ReserveInventory(ctx context.Context, tx pgx.Tx, sku string, quantity int) error {
	query := `
		UPDATE products
		SET inventory = inventory - $2, updated_at = NOW()
		WHERE sku = $1 AND inventory >= $2
	`

	tag, err := tx.Exec(ctx, query, sku, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_sku", sku).
			Int("quantity", quantity).
			Msg("failed to reserve inventory")
		return fmt.Errorf("failed to reserve inventory: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("product_sku", sku).
			Int("quantity", quantity).
			Msg("insufficient inventory")
		return model.ErrInsufficientInventory
	}

	r.logger.Debug().
		Str("product_sku", sku).
		Int("quantity", quantity).
		Msg("inventory reserved")

	return nil
}

// ReleaseInventory atomically increments inventory by quantity within the
// transaction.
func (r *productRepository) ReleaseInventory(ctx context.Context, tx pgx.Tx, sku string, quantity int) error {
	query := `
		UPDATE products
		SET inventory = inventory + $2, updated_at = NOW()
		WHERE sku = $1
	`

	tag, err := tx.Exec(ctx, query, sku, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_sku", sku).
			Int("quantity", quantity).
			Msg("failed to release inventory")
		return fmt.Errorf("failed to release inventory: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("product_sku", sku).Msg("product missing during inventory release")
		return model.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) scanProductRow(row pgx.Row, sku string) (*model.Product, error) {
	var p model.Product
	if err := scanProduct(row, &p); err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_sku", sku).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_sku", sku).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.NameAr,
		&p.ImageURL,
		&p.Price,
		&p.Inventory,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
