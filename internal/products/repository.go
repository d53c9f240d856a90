package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
)

// Repository defines persistence operations for products and stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateVariants(ctx context.Context, variants []models.ProductVariant) error
	FindProductForUser(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	ListProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, updates map[string]any) error
	DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Create(product).Error
}

func (r *repository) CreateVariants(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

func (r *repository) FindProductForUser(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ? AND user_id = ?", productID, userID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) ListProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateProduct(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error
}

// DecrementStock takes qty units off the product or variant, guarded so the
// row is only touched when enough stock remains. RowsAffected tells the
// caller whether the decrement happened.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error) {
	var result *gorm.DB
	if variantID != nil {
		result = r.db.WithContext(ctx).Exec(`
UPDATE product_variants SET stock_quantity = stock_quantity - ?
WHERE id = ? AND product_id = ? AND stock_quantity >= ?`, qty, *variantID, productID, qty)
	} else {
		result = r.db.WithContext(ctx).Exec(`
UPDATE products SET stock_quantity = stock_quantity - ?
WHERE id = ? AND stock_quantity >= ?`, qty, productID, qty)
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestoreStock puts qty units back at the same level the decrement took them.
func (r *repository) RestoreStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if variantID != nil {
		return r.db.WithContext(ctx).Exec(`
UPDATE product_variants SET stock_quantity = stock_quantity + ?
WHERE id = ? AND product_id = ?`, qty, *variantID, productID).Error
	}
	return r.db.WithContext(ctx).Exec(`
UPDATE products SET stock_quantity = stock_quantity + ?
WHERE id = ?`, qty, productID).Error
}
