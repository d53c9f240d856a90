package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// BillingPlan is a purchasable subscription plan. IDs are small integers
// because historical gateway order ids embed them ("SUB-3-...").
type BillingPlan struct {
	ID           int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string           `gorm:"column:name;not null"`
	Status       enums.PlanStatus `gorm:"column:status;type:text;not null;default:'active'"`
	DurationDays int              `gorm:"column:duration_days;not null;default:30"`
	PriceAmount  decimal.Decimal  `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode string           `gorm:"column:currency_code;not null;default:'BDT'"`
	Features     pq.StringArray   `gorm:"column:features;type:text[]"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
