package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/pagination"
)

// Repository defines persistence operations for the customer directory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	FindForUser(ctx context.Context, userID, customerID uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, userID uuid.UUID, search string, params pagination.Params) ([]models.Customer, error)
	Update(ctx context.Context, customerID uuid.UUID, updates map[string]any) error
	AdjustPreviousDue(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindForUser(ctx context.Context, userID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", customerID, userID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, search string, params pagination.Params) ([]models.Customer, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", pattern, pattern)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Customer
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, customerID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(updates).Error
}

// AdjustPreviousDue applies a signed delta to the running due balance. A
// negative delta is guarded so the balance never goes below zero; the caller
// sees zero rows affected instead.
func (r *repository) AdjustPreviousDue(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID)
	if delta.IsNegative() {
		query = query.Where("previous_due >= ?", delta.Neg())
	}
	result := query.Update("previous_due", gorm.Expr("previous_due + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
