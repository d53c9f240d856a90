package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item with owner-scoped stock. Products with variants
// track stock at the variant level instead.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Name          string           `gorm:"column:name;not null"`
	SKU           *string          `gorm:"column:sku"`
	BuyPrice      decimal.Decimal  `gorm:"column:buy_price;type:numeric(12,2);not null"`
	SellPrice     decimal.Decimal  `gorm:"column:sell_price;type:numeric(12,2);not null"`
	StockQuantity int              `gorm:"column:stock_quantity;not null;default:0"`
	HasVariants   bool             `gorm:"column:has_variants;not null;default:false"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
