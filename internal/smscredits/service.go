package smscredits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
)

// Service exposes SMS credit balance operations.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Grant(ctx context.Context, userID uuid.UUID, credits int64) error
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// NewService wires the SMS credits service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sms credits repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Grant(ctx context.Context, userID uuid.UUID, credits int64) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if credits <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credits must be positive")
	}
	return s.repo.Grant(ctx, userID, credits)
}

// Balance returns zero for users that never received a grant.
func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	credit, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return credit.Balance, nil
}
