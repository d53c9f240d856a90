package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer holds the buyer directory plus the running previous-due balance
// that order creation may carry forward.
type Customer struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Phone       *string         `gorm:"column:phone"`
	Email       *string         `gorm:"column:email"`
	PreviousDue decimal.Decimal `gorm:"column:previous_due;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
