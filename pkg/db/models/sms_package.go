package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// SmsPackage is a purchasable bundle of SMS credits. Like plans, package ids
// are embedded in historical gateway order ids ("SMS-3-Q2-...").
type SmsPackage struct {
	ID           int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string           `gorm:"column:name;not null"`
	Status       enums.PlanStatus `gorm:"column:status;type:text;not null;default:'active'"`
	SmsCount     int64            `gorm:"column:sms_count;not null"`
	PriceAmount  decimal.Decimal  `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode string           `gorm:"column:currency_code;not null;default:'BDT'"`
	Features     pq.StringArray   `gorm:"column:features;type:text[]"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
