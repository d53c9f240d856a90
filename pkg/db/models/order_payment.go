package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// OrderPayment records one collected payment against an order. The order's
// paid_amount is always the SUM of these rows, recomputed transactionally.
type OrderPayment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method    enums.PaymentMethod `gorm:"column:method;type:text;not null;default:'cash'"`
	Reference *string             `gorm:"column:reference"`
	PaidAt    time.Time           `gorm:"column:paid_at;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
