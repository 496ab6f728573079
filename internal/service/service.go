package service

import (
	"context"

	"lumistore/internal/model"

	"github.com/google/uuid"
)

// ProductService defines read-only catalogue operations.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetBySKU retrieves a single product by its business SKU.
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
}

// ConfigurationService defines operations on checkout configuration snapshots.
type ConfigurationService interface {
	// SaveConfiguration creates an immutable checkout snapshot with the total
	// price computed from the current catalogue price.
	SaveConfiguration(ctx context.Context, req *model.ConfigurationRequest) (*model.Configuration, error)

	// GetByID retrieves a configuration by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Configuration, error)
}

// OrderService defines order placement and management operations.
type OrderService interface {
	// CreateOrder places an order for a saved configuration. Placement is
	// exactly-once per (user, idempotency key): a repeated submission returns
	// the original order with IsDuplicate set.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResult, error)

	// CancelOrder cancels an order owned by userID, restoring the reserved
	// inventory. Only orders still in a cancellable status qualify.
	CancelOrder(ctx context.Context, orderID uuid.UUID, userID string) (*model.CancelOrderResult, error)

	// GetByID retrieves an order with its items, scoped to the owning user.
	GetByID(ctx context.Context, orderID uuid.UUID, userID string) (*model.OrderResponse, error)
}
