package customers

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
	"github.com/rakibulbd/karobar-backend/pkg/pagination"
)

// Service manages the per-user customer directory and its running dues.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, userID uuid.UUID, input CreateCustomerInput) (*models.Customer, error)
	Get(ctx context.Context, userID, customerID uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, userID uuid.UUID, input ListCustomersInput) ([]models.Customer, string, error)
	Update(ctx context.Context, userID, customerID uuid.UUID, input UpdateCustomerInput) (*models.Customer, error)
	SettleDue(ctx context.Context, userID, customerID uuid.UUID, amount decimal.Decimal) (*models.Customer, error)
	AddDue(ctx context.Context, userID, customerID uuid.UUID, amount decimal.Decimal) error
}

type service struct {
	repo Repository
}

// NewService builds the customers service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateCustomerInput) (*models.Customer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	previousDue := decimal.Zero
	if input.PreviousDue != nil {
		if input.PreviousDue.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "previous due cannot be negative")
		}
		previousDue = *input.PreviousDue
	}

	customer := &models.Customer{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Phone:       input.Phone,
		Email:       input.Email,
		PreviousDue: previousDue,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, userID, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindForUser(ctx, userID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, input ListCustomersInput) ([]models.Customer, string, error) {
	rows, err := s.repo.List(ctx, userID, strings.TrimSpace(input.Search), pagination.Params{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(input.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) Update(ctx context.Context, userID, customerID uuid.UUID, input UpdateCustomerInput) (*models.Customer, error) {
	if _, err := s.Get(ctx, userID, customerID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, customerID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customer")
		}
	}
	return s.Get(ctx, userID, customerID)
}

// SettleDue records a repayment against the customer's running due balance.
func (s *service) SettleDue(ctx context.Context, userID, customerID uuid.UUID, amount decimal.Decimal) (*models.Customer, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settlement amount must be positive")
	}
	if _, err := s.Get(ctx, userID, customerID); err != nil {
		return nil, err
	}
	settled, err := s.repo.AdjustPreviousDue(ctx, customerID, amount.Neg())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle customer due")
	}
	if !settled {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "settlement exceeds outstanding due")
	}
	return s.Get(ctx, userID, customerID)
}

// AddDue increases the running due, typically the unpaid remainder of an
// order sold on credit.
func (s *service) AddDue(ctx context.Context, userID, customerID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "due amount must be positive")
	}
	if _, err := s.Get(ctx, userID, customerID); err != nil {
		return err
	}
	if _, err := s.repo.AdjustPreviousDue(ctx, customerID, amount); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add customer due")
	}
	return nil
}
