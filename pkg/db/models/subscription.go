package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// Subscription is the single per-user subscription record, upserted by the
// payment application engine.
type Subscription struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	PlanID      int64                    `gorm:"column:plan_id;not null"`
	Status      enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'inactive'"`
	ActivatedAt *time.Time               `gorm:"column:activated_at"`
	ExpiresAt   *time.Time               `gorm:"column:expires_at"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
