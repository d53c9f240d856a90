package products

import (
	"github.com/google/uuid"
)

// CreateVariantInput is one variant of a new product.
type CreateVariantInput struct {
	Name      string `json:"name" validate:"required"`
	BuyPrice  string `json:"buy_price" validate:"required"`
	SellPrice string `json:"sell_price" validate:"required"`
	Stock     int    `json:"stock" validate:"gte=0"`
}

// CreateProductInput carries everything product creation needs.
type CreateProductInput struct {
	Name      string               `json:"name" validate:"required"`
	SKU       *string              `json:"sku,omitempty"`
	BuyPrice  string               `json:"buy_price,omitempty"`
	SellPrice string               `json:"sell_price,omitempty"`
	Stock     int                  `json:"stock" validate:"gte=0"`
	Variants  []CreateVariantInput `json:"variants,omitempty" validate:"omitempty,dive"`
}

// AdjustStockInput moves stock up or down at product or variant level.
type AdjustStockInput struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Delta     int        `json:"delta" validate:"required"`
}
