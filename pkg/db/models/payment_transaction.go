package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// PaymentTransaction correlates a gateway payment with its local side effect.
// is_applied flips false to true exactly once, in the same transaction as the
// subscription activation or SMS credit grant it pays for.
type PaymentTransaction struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	CustomerOrderID string               `gorm:"column:customer_order_id;not null;uniqueIndex"`
	GatewayOrderID  *string              `gorm:"column:gateway_order_id;uniqueIndex"`
	Purpose         enums.PaymentPurpose `gorm:"column:purpose;type:text;not null;default:'unknown'"`
	Amount          decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency        string               `gorm:"column:currency;not null;default:'BDT'"`
	IsSuccessful    bool                 `gorm:"column:is_successful;not null;default:false"`
	IsApplied       bool                 `gorm:"column:is_applied;not null;default:false"`
	AppliedAt       *time.Time           `gorm:"column:applied_at"`
	FailureReason   *string              `gorm:"column:failure_reason"`
	RawResponse     json.RawMessage      `gorm:"column:raw_response;type:jsonb"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
