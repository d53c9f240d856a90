package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines catalog and stock operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	AdjustStock(ctx context.Context, userID, productID uuid.UUID, input AdjustStockInput) (*models.Product, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the products service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	buyPrice, err := parsePrice(input.BuyPrice, "buy_price")
	if err != nil {
		return nil, err
	}
	sellPrice, err := parsePrice(input.SellPrice, "sell_price")
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		SKU:           input.SKU,
		BuyPrice:      buyPrice,
		SellPrice:     sellPrice,
		StockQuantity: input.Stock,
		HasVariants:   len(input.Variants) > 0,
		IsActive:      true,
	}

	variants := make([]models.ProductVariant, 0, len(input.Variants))
	for _, v := range input.Variants {
		vBuy, err := parsePrice(v.BuyPrice, "variant buy_price")
		if err != nil {
			return nil, err
		}
		vSell, err := parsePrice(v.SellPrice, "variant sell_price")
		if err != nil {
			return nil, err
		}
		if v.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant stock cannot be negative")
		}
		variants = append(variants, models.ProductVariant{
			ID:            uuid.New(),
			ProductID:     product.ID,
			Name:          strings.TrimSpace(v.Name),
			BuyPrice:      vBuy,
			SellPrice:     vSell,
			StockQuantity: v.Stock,
		})
	}
	// Variant products track stock at the variant level only.
	if product.HasVariants {
		product.StockQuantity = 0
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateProduct(ctx, product); err != nil {
			return err
		}
		return repo.CreateVariants(ctx, variants)
	})
	if err != nil {
		return nil, err
	}

	product.Variants = variants
	return product, nil
}

func (s *service) Get(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductForUser(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListProducts(ctx, userID)
}

func (s *service) AdjustStock(ctx context.Context, userID, productID uuid.UUID, input AdjustStockInput) (*models.Product, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}

	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindProductForUser(ctx, userID, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}

		if input.Delta > 0 {
			if err := repo.RestoreStock(ctx, productID, input.VariantID, input.Delta); err != nil {
				return err
			}
		} else {
			ok, err := repo.DecrementStock(ctx, productID, input.VariantID, -input.Delta)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
			}
		}

		updated, err := repo.FindProductForUser(ctx, userID, productID)
		if err != nil {
			return err
		}
		product = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func parsePrice(value string, field string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s", field))
	}
	if parsed.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s cannot be negative", field))
	}
	return parsed, nil
}
