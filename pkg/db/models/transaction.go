package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// Transaction is a single signed monetary movement against an account.
type Transaction struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID     uuid.UUID               `gorm:"column:account_id;type:uuid;not null;index"`
	Type          enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Amount        decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Purpose       string                  `gorm:"column:purpose;not null"`
	Status        enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ReferenceCode string                  `gorm:"column:reference_code;not null;uniqueIndex"`
	VerifiedByID  *uuid.UUID              `gorm:"column:verified_by_id;type:uuid"`
	Account       *Account                `gorm:"foreignKey:AccountID"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
