package repository

import (
	"context"
	"fmt"
	"time"

	"lumistore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, order_number, user_id, idempotency_key, subtotal, shipping_cost, total, status, shipping_option, shipping_address_id, notes, created_at, updated_at`

// BeginSerializableTx starts a serializable transaction with bounded lock
// and statement timeouts. Serializable isolation linearises concurrent
// checkouts against the same product; the loser aborts with SQLSTATE 40001.
func (r *orderRepository) BeginSerializableTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '5s'`); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}
	if _, err := tx.Exec(ctx, `SET LOCAL statement_timeout = '10s'`); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("failed to set statement timeout: %w", err)
	}

	return tx, nil
}

// FindByIdempotencyKey returns the user's order carrying the given
// idempotency key created within the lookback window, or nil.
func (r *orderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string, window time.Duration) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND idempotency_key = $2 AND created_at > $3
	`

	return r.scanOrderRow(r.pool.QueryRow(ctx, query, userID, key, time.Now().Add(-window)))
}

// FindByUserAndKey returns the user's order carrying the given key with no
// window restriction.
func (r *orderRepository) FindByUserAndKey(ctx context.Context, userID, key string) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND idempotency_key = $2
	`

	return r.scanOrderRow(r.pool.QueryRow(ctx, query, userID, key))
}

// OrderNumberExists reports whether an order number is already taken,
// checked inside the transaction.
func (r *orderRepository) OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, number).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", number).Msg("failed to check order number")
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

// CreateOrder inserts a new order within the provided transaction.
// A unique violation on the idempotency key constraint bubbles up so the
// service can resolve it to the already-created order.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, order_number, user_id, idempotency_key, subtotal, shipping_cost, total, status, shipping_option, shipping_address_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.IdempotencyKey,
		order.Subtotal,
		order.ShippingCost,
		order.Total,
		order.Status,
		order.ShippingOption,
		order.ShippingAddressID,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_sku, product_name, product_image, unit_price, quantity, color_temperature, surface_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ProductSKU,
			item.ProductName,
			item.ProductImage,
			item.UnitPrice,
			item.Quantity,
			item.ColorTemperature,
			item.SurfaceColor,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_sku", items[i].ProductSKU).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.getByID(ctx, r.pool, id)
}

// GetByIDTx retrieves an order and its items inside an open transaction.
func (r *orderRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.getByID(ctx, tx, id)
}

// querier is the subset of pgxpool.Pool and pgx.Tx used by reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *orderRepository) getByID(ctx context.Context, q querier, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrderRow(q.QueryRow(ctx, orderQuery, id))
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, nil, nil
	}

	itemsQuery := `
		SELECT id, order_id, product_sku, product_name, product_image, unit_price, quantity, color_temperature, surface_color
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductSKU,
			&item.ProductName,
			&item.ProductImage,
			&item.UnitPrice,
			&item.Quantity,
			&item.ColorTemperature,
			&item.SurfaceColor,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return order, items, nil
}

// UpdateStatus transitions an order's status within the transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) scanOrderRow(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.IdempotencyKey,
		&order.Subtotal,
		&order.ShippingCost,
		&order.Total,
		&order.Status,
		&order.ShippingOption,
		&order.ShippingAddressID,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return &order, nil
}
