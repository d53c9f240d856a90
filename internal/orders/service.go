package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/internal/products"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
	"github.com/rakibulbd/karobar-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderResponse, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	AddPayment(ctx context.Context, userID, orderID uuid.UUID, input AddPaymentInput) (*OrderResponse, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error)
}

type service struct {
	repo     Repository
	products products.Repository
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the orders service with its repositories and tx runner.
func NewService(repo Repository, productsRepo products.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: productsRepo,
		tx:       tx,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	cfg, err := parseCalcConfig(input)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		orderID := uuid.New()
		items := make([]models.OrderItem, 0, len(input.Items))
		calcItems := make([]CalcItem, 0, len(input.Items))

		for _, line := range input.Items {
			if line.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
			}
			unitPrice, err := parseAmount(line.UnitPrice, "unit_price")
			if err != nil {
				return err
			}

			product, err := productRepo.FindProductForUser(ctx, userID, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": line.ProductID.String()})
				}
				return err
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeConflict, "product is inactive").
					WithDetails(map[string]any{"product_id": line.ProductID.String()})
			}

			name := product.Name
			buyPrice := product.BuyPrice
			if product.HasVariants {
				if line.VariantID == nil {
					return pkgerrors.New(pkgerrors.CodeValidation, "variant is required for this product").
						WithDetails(map[string]any{"product_id": line.ProductID.String()})
				}
				variant, err := productRepo.FindVariant(ctx, *line.VariantID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
					}
					return err
				}
				if variant.ProductID != product.ID {
					return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
				}
				name = fmt.Sprintf("%s / %s", product.Name, variant.Name)
				buyPrice = variant.BuyPrice
			}

			decremented, err := productRepo.DecrementStock(ctx, line.ProductID, line.VariantID, line.Quantity)
			if err != nil {
				return err
			}
			if !decremented {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{"product_id": line.ProductID.String()})
			}

			qty := decimal.NewFromInt(int64(line.Quantity))
			items = append(items, models.OrderItem{
				ID:           uuid.New(),
				OrderID:      orderID,
				ProductID:    line.ProductID,
				VariantID:    line.VariantID,
				Name:         name,
				Quantity:     line.Quantity,
				UnitPrice:    unitPrice,
				UnitBuyPrice: buyPrice,
				LineTotal:    unitPrice.Mul(qty).Round(2),
			})
			calcItems = append(calcItems, CalcItem{
				Quantity:     line.Quantity,
				UnitPrice:    unitPrice,
				UnitBuyPrice: buyPrice,
			})
		}

		number, err := NextOrderNumber(ctx, tx, s.now())
		if err != nil {
			return err
		}

		totals := CalculateTotals(calcItems, cfg)

		order := &models.Order{
			ID:            orderID,
			UserID:        userID,
			OrderNumber:   number,
			CustomerID:    input.CustomerID,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			CustomerEmail: input.CustomerEmail,

			DiscountType:       discountTypeOrDefault(input.DiscountType),
			DiscountPercentage: cfg.DiscountPercentage,
			DiscountFlatAmount: cfg.DiscountFlatAmount,
			VATPercentage:      cfg.VATPercentage,

			ApplyPreviousDueToTotal: cfg.ApplyPreviousDueToTotal,
			PreviousDue:             cfg.PreviousDue,
			IncentiveAmount:         cfg.IncentiveAmount,

			Subtotal:       totals.Subtotal,
			DiscountAmount: totals.DiscountAmount,
			VATAmount:      totals.VATAmount,
			TotalAmount:    totals.TotalAmount,
			PaidAmount:     decimal.Zero,
			TotalBuyPrice:  totals.TotalBuyPrice,
			GrossProfit:    totals.GrossProfit,
			NetProfit:      totals.NetProfit,

			Status: enums.OrderStatusPending,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return err
		}
		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, created.OrderNumber), "order created")
	return s.respond(created), nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repo.FindOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return s.respond(order), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListOrders(ctx, userID, params, filters)
}

// AddPayment records a payment and recomputes paid_amount as the sum of all
// payment rows, never as an increment. The order row is locked for the whole
// recomputation so concurrent insertions cannot each sum a snapshot that
// misses the other's row.
func (s *service) AddPayment(ctx context.Context, userID, orderID uuid.UUID, input AddPaymentInput) (*OrderResponse, error) {
	amount, err := parseAmount(input.Amount, "amount")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUpdate(ctx, userID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot pay a cancelled order")
		}

		if err := repo.CreatePayment(ctx, &models.OrderPayment{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Amount:    amount,
			Method:    input.Method,
			Reference: input.Reference,
			PaidAt:    s.now().UTC(),
		}); err != nil {
			return err
		}

		payments, err := repo.ListPayments(ctx, order.ID)
		if err != nil {
			return err
		}
		paid := decimal.Zero
		for _, payment := range payments {
			paid = paid.Add(payment.Amount)
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"paid_amount": paid}); err != nil {
			return err
		}

		items, err := repo.FindOrderItems(ctx, order.ID)
		if err != nil {
			return err
		}

		order.PaidAmount = paid
		order.Payments = payments
		order.Items = items
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, updated.OrderNumber), "order payment recorded")
	return s.respond(updated), nil
}

// Cancel rejects completed orders and otherwise restores stock for every line
// item at the same level it was decremented. It does not reverse ledger
// transactions or recorded payments.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		order, err := repo.FindOrder(ctx, userID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeConflict, "completed orders cannot be cancelled")
		}

		flipped, err := repo.SetStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing},
			enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not cancellable").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		for _, item := range order.Items {
			if err := productRepo.RestoreStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}

		order.Status = enums.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, cancelled.OrderNumber), "order cancelled")
	return s.respond(cancelled), nil
}

func (s *service) respond(order *models.Order) *OrderResponse {
	return &OrderResponse{
		Order:     order,
		DueAmount: order.TotalAmount.Sub(order.PaidAmount),
	}
}

func parseCalcConfig(input CreateOrderInput) (CalcConfig, error) {
	cfg := CalcConfig{
		DiscountType:            discountTypeOrDefault(input.DiscountType),
		ApplyPreviousDueToTotal: input.ApplyPreviousDueToTotal,
	}

	var err error
	if cfg.DiscountPercentage, err = parseAmount(input.DiscountPercentage, "discount_percentage"); err != nil {
		return cfg, err
	}
	if cfg.DiscountFlatAmount, err = parseAmount(input.DiscountFlatAmount, "discount_flat_amount"); err != nil {
		return cfg, err
	}
	if cfg.VATPercentage, err = parseAmount(input.VATPercentage, "vat_percentage"); err != nil {
		return cfg, err
	}
	if cfg.PreviousDue, err = parseAmount(input.PreviousDue, "previous_due"); err != nil {
		return cfg, err
	}
	if cfg.IncentiveAmount, err = parseAmount(input.IncentiveAmount, "incentive_amount"); err != nil {
		return cfg, err
	}

	hundred := decimal.NewFromInt(100)
	if cfg.DiscountPercentage.IsNegative() || cfg.DiscountPercentage.GreaterThan(hundred) {
		return cfg, pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100")
	}
	if cfg.VATPercentage.IsNegative() || cfg.VATPercentage.GreaterThan(hundred) {
		return cfg, pkgerrors.New(pkgerrors.CodeValidation, "vat_percentage must be between 0 and 100")
	}
	if cfg.DiscountFlatAmount.IsNegative() {
		return cfg, pkgerrors.New(pkgerrors.CodeValidation, "discount_flat_amount cannot be negative")
	}
	if cfg.PreviousDue.IsNegative() {
		return cfg, pkgerrors.New(pkgerrors.CodeValidation, "previous_due cannot be negative")
	}
	if cfg.IncentiveAmount.IsNegative() {
		return cfg, pkgerrors.New(pkgerrors.CodeValidation, "incentive_amount cannot be negative")
	}
	return cfg, nil
}

func discountTypeOrDefault(value enums.DiscountType) enums.DiscountType {
	if value.IsValid() {
		return value
	}
	return enums.DiscountTypePercentage
}

func parseAmount(value string, field string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s", field))
	}
	return parsed, nil
}
