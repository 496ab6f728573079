package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Cancellable reports whether an order in this status may still be
// cancelled by its owner. Shipped and later states are terminal for the
// cancellation workflow.
func (s OrderStatus) Cancellable() bool {
	return s == StatusProcessing
}

// Order is the durable record of a completed checkout.
// IdempotencyKey carries the deduplication key for the checkout attempt and
// is unique across all orders; Notes additionally embeds the
// "idempotency:{key}" marker for operator searches.
type Order struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderNumber       string          `json:"orderNumber" db:"order_number"`
	UserID            string          `json:"userId" db:"user_id"`
	IdempotencyKey    string          `json:"-" db:"idempotency_key"`
	Subtotal          decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	Total             decimal.Decimal `json:"total" db:"total"`
	Status            OrderStatus     `json:"status" db:"status"`
	ShippingOption    string          `json:"shippingOption" db:"shipping_option"`
	ShippingAddressID string          `json:"shippingAddressId" db:"shipping_address_id"`
	Notes             string          `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line item holding an immutable snapshot of the product at
// purchase time. Later catalogue edits must not alter historical orders.
type OrderItem struct {
	ID               uuid.UUID       `json:"-" db:"id"`
	OrderID          uuid.UUID       `json:"-" db:"order_id"`
	ProductSKU       string          `json:"productSku" db:"product_sku"`
	ProductName      string          `json:"productName" db:"product_name"`
	ProductImage     string          `json:"productImage,omitempty" db:"product_image"`
	UnitPrice        decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity         int             `json:"quantity" db:"quantity"`
	ColorTemperature *string         `json:"colorTemperature,omitempty" db:"color_temperature"`
	SurfaceColor     *string         `json:"surfaceColor,omitempty" db:"surface_color"`
}

// CreateOrderRequest is the input to order placement. UserID is filled from
// the authenticated request context, never from the request body.
type CreateOrderRequest struct {
	UserID            string    `json:"-"`
	ConfigurationID   uuid.UUID `json:"configurationId"`
	ShippingAddressID string    `json:"shippingAddressId"`
	ShippingOption    string    `json:"shippingOption"`
	IdempotencyKey    string    `json:"idempotencyKey"`
}

// CreateOrderResult is returned on successful (or deduplicated) placement.
type CreateOrderResult struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Total       decimal.Decimal `json:"total"`
	IsDuplicate bool            `json:"isDuplicate"`
}

// CancelOrderResult is returned on successful cancellation.
type CancelOrderResult struct {
	OrderID uuid.UUID   `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// OrderResponse is the read payload for a single order with its items.
type OrderResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// IdempotencyMarker returns the marker string persisted in the order notes
// field for the given key.
func IdempotencyMarker(key string) string {
	return "idempotency:" + key
}
