package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
)

// Service manages subscription activation and lookups.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Activate(ctx context.Context, userID uuid.UUID, plan *models.BillingPlan, now time.Time) (*models.Subscription, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type service struct {
	repo Repository
}

// NewService wires the subscriptions service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

// Activate points the user's single subscription row at the plan and marks
// it active. Re-activation replaces the previous plan; the expiry restarts
// from now.
func (s *service) Activate(ctx context.Context, userID uuid.UUID, plan *models.BillingPlan, now time.Time) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}

	activated := now.UTC()
	expires := activated.AddDate(0, 0, plan.DurationDays)
	sub := &models.Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      plan.ID,
		Status:      enums.SubscriptionStatusActive,
		ActivatedAt: &activated,
		ExpiresAt:   &expires,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription for user")
		}
		return nil, err
	}
	return sub, nil
}
