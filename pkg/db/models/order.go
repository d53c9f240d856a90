package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// Order is a sales order. Every monetary figure below is recomputable from
// Items plus the discount/VAT/previous-due configuration; the calculator is
// the single source of truth and is re-run whenever either changes.
type Order struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber   string     `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID    *uuid.UUID `gorm:"column:customer_id;type:uuid;index"`
	CustomerName  *string    `gorm:"column:customer_name"`
	CustomerPhone *string    `gorm:"column:customer_phone"`
	CustomerEmail *string    `gorm:"column:customer_email"`

	DiscountType       enums.DiscountType `gorm:"column:discount_type;type:text;not null;default:'percentage'"`
	DiscountPercentage decimal.Decimal    `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	DiscountFlatAmount decimal.Decimal    `gorm:"column:discount_flat_amount;type:numeric(12,2);not null"`
	VATPercentage      decimal.Decimal    `gorm:"column:vat_percentage;type:numeric(5,2);not null"`

	ApplyPreviousDueToTotal bool            `gorm:"column:apply_previous_due_to_total;not null;default:false"`
	PreviousDue             decimal.Decimal `gorm:"column:previous_due;type:numeric(12,2);not null"`
	IncentiveAmount         decimal.Decimal `gorm:"column:incentive_amount;type:numeric(12,2);not null"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	VATAmount      decimal.Decimal `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaidAmount     decimal.Decimal `gorm:"column:paid_amount;type:numeric(12,2);not null"`
	TotalBuyPrice  decimal.Decimal `gorm:"column:total_buy_price;type:numeric(12,2);not null"`
	GrossProfit    decimal.Decimal `gorm:"column:gross_profit;type:numeric(12,2);not null"`
	NetProfit      decimal.Decimal `gorm:"column:net_profit;type:numeric(12,2);not null"`

	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items     []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments  []OrderPayment    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
