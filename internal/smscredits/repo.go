package smscredits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
)

// Repository manages the per-user SMS credit balance.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.SmsCredit, error)
	Grant(ctx context.Context, userID uuid.UUID, credits int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an SMS credits repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.SmsCredit, error) {
	var credit models.SmsCredit
	if err := r.db.WithContext(ctx).First(&credit, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &credit, nil
}

// Grant adds credits to the user's balance, creating the row on first grant.
// The addition happens in the database, so concurrent grants both land.
func (r *repository) Grant(ctx context.Context, userID uuid.UUID, credits int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance": gorm.Expr("balance + ?", credits),
		}),
	}).Create(&models.SmsCredit{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: credits,
	}).Error
}
