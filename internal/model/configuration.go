package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Configuration is an immutable snapshot of a finalised cart choice:
// product, quantity, selected variant attributes and the computed total
// price. It is created when the user finalises their cart and is only
// ever read by the order flow.
type Configuration struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	ProductSKU       string          `json:"productSku" db:"product_sku"`
	Quantity         int             `json:"quantity" db:"quantity"`
	ColorTemperature *string         `json:"colorTemperature,omitempty" db:"color_temperature"`
	SurfaceColor     *string         `json:"surfaceColor,omitempty" db:"surface_color"`
	TotalPrice       decimal.Decimal `json:"totalPrice" db:"total_price"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
}

// ConfigurationRequest is the payload for saving a checkout configuration.
type ConfigurationRequest struct {
	ProductSKU       string  `json:"productSku"`
	Quantity         int     `json:"quantity"`
	ColorTemperature *string `json:"colorTemperature,omitempty"`
	SurfaceColor     *string `json:"surfaceColor,omitempty"`
}
