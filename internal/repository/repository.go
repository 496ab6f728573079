package repository

import (
	"context"
	"time"

	"lumistore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConfigurationRepository defines data access for checkout configuration
// snapshots.
type ConfigurationRepository interface {
	// Create persists a new configuration snapshot.
	Create(ctx context.Context, cfg *model.Configuration) error

	// GetByID retrieves a configuration by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Configuration, error)

	// GetByIDTx retrieves a configuration inside an open transaction so the
	// order flow cannot race a concurrent configuration deletion.
	GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Configuration, error)
}

// ProductRepository defines data access for catalogue products and their
// inventory.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetBySKU retrieves a single product by its business SKU.
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)

	// GetBySKUTx retrieves a product inside an open transaction.
	GetBySKUTx(ctx context.Context, tx pgx.Tx, sku string) (*model.Product, error)

	// ReserveInventory atomically decrements inventory by quantity within the
	// transaction. Returns model.ErrInsufficientInventory when the product
	// does not hold enough stock; inventory can never go negative.
	ReserveInventory(ctx context.Context, tx pgx.Tx, sku string, quantity int) error

	// ReleaseInventory atomically increments inventory by quantity within the
	// transaction. Used by the cancellation workflow.
	ReleaseInventory(ctx context.Context, tx pgx.Tx, sku string, quantity int) error
}

// OrderRepository defines data access for orders and their items.
type OrderRepository interface {
	// BeginSerializableTx starts a transaction at serializable isolation with
	// bounded lock and statement timeouts applied.
	BeginSerializableTx(ctx context.Context) (pgx.Tx, error)

	// FindByIdempotencyKey returns the user's order carrying the given
	// idempotency key created within the lookback window, or nil.
	FindByIdempotencyKey(ctx context.Context, userID, key string, window time.Duration) (*model.Order, error)

	// FindByUserAndKey returns the user's order carrying the given key with no
	// window restriction. Used after a unique violation to surface the
	// original order.
	FindByUserAndKey(ctx context.Context, userID, key string) (*model.Order, error)

	// OrderNumberExists reports whether an order number is already taken,
	// checked inside the transaction.
	OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetByIDTx retrieves an order and its items inside an open transaction.
	GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// UpdateStatus transitions an order's status within the transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
}
