package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a lighting product in the catalogue.
// SKU is the stable business identifier used by configurations and order
// items; ID is the internal key and never leaves the service.
type Product struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	SKU       string          `json:"sku" db:"sku"`
	Name      string          `json:"name" db:"name"`
	NameAr    string          `json:"nameAr,omitempty" db:"name_ar"`
	ImageURL  string          `json:"imageUrl,omitempty" db:"image_url"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Inventory int             `json:"inventory" db:"inventory"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}
