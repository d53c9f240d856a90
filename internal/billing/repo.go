package billing

import (
	"context"

	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// Repository reads the purchasable plan and SMS package catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPlan(ctx context.Context, planID int64) (*models.BillingPlan, error)
	ListActivePlans(ctx context.Context) ([]models.BillingPlan, error)
	FindSmsPackage(ctx context.Context, packageID int64) (*models.SmsPackage, error)
	ListActiveSmsPackages(ctx context.Context) ([]models.SmsPackage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billing catalog repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindPlan(ctx context.Context, planID int64) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListActivePlans(ctx context.Context) ([]models.BillingPlan, error) {
	var plans []models.BillingPlan
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PlanStatusActive).
		Order("price_amount ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) FindSmsPackage(ctx context.Context, packageID int64) (*models.SmsPackage, error) {
	var pkg models.SmsPackage
	if err := r.db.WithContext(ctx).First(&pkg, "id = ?", packageID).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) ListActiveSmsPackages(ctx context.Context) ([]models.SmsPackage, error) {
	var pkgs []models.SmsPackage
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PlanStatusActive).
		Order("price_amount ASC").
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}
	return pkgs, nil
}
