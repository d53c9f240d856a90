package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/internal/billing"
	"github.com/rakibulbd/karobar-backend/internal/smscredits"
	"github.com/rakibulbd/karobar-backend/internal/subscriptions"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
	"github.com/rakibulbd/karobar-backend/pkg/metrics"
	"github.com/rakibulbd/karobar-backend/pkg/shurjopay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	Initiate(ctx context.Context, req shurjopay.InitiateRequest) (*shurjopay.InitiateResponse, error)
	Verify(ctx context.Context, gatewayOrderID string) (*shurjopay.VerifyResult, error)
}

// Service is the payment application engine.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, input InitiatePaymentInput) (*InitiatePaymentResponse, error)
	VerifyAndApply(ctx context.Context, gatewayOrderID string) (*VerifyAndApplyResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error)
}

type service struct {
	repo     Repository
	catalog  billing.Repository
	subs     subscriptions.Service
	credits  smscredits.Service
	gateway  gatewayClient
	tx       txRunner
	logg     *logger.Logger
	observed *metrics.PaymentMetrics
	now      func() time.Time
}

// NewService wires the payment engine with its collaborators. The metrics
// argument may be nil.
func NewService(
	repo Repository,
	catalog billing.Repository,
	subs subscriptions.Service,
	credits smscredits.Service,
	gateway gatewayClient,
	tx txRunner,
	logg *logger.Logger,
	observed *metrics.PaymentMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if subs == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	if credits == nil {
		return nil, fmt.Errorf("sms credits service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		catalog:  catalog,
		subs:     subs,
		credits:  credits,
		gateway:  gateway,
		tx:       tx,
		logg:     logg,
		observed: observed,
		now:      time.Now,
	}, nil
}

func (s *service) Initiate(ctx context.Context, userID uuid.UUID, input InitiatePaymentInput) (*InitiatePaymentResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	var (
		refID  int64
		amount decimal.Decimal
	)
	switch input.Purpose {
	case enums.PaymentPurposeSubscription:
		plan, err := s.catalog.FindPlan(ctx, input.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing plan not found")
			}
			return nil, err
		}
		if plan.Status != enums.PlanStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "billing plan is not purchasable")
		}
		refID = plan.ID
		amount = plan.PriceAmount
		quantity = 1
	case enums.PaymentPurposeSMSPackage:
		pkg, err := s.catalog.FindSmsPackage(ctx, input.PackageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sms package not found")
			}
			return nil, err
		}
		if pkg.Status != enums.PlanStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sms package is not purchasable")
		}
		refID = pkg.ID
		amount = pkg.PriceAmount.Mul(decimal.NewFromInt(quantity))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment purpose %q", input.Purpose))
	}

	customerOrderID := NewCustomerOrderID(input.Purpose, refID, quantity, s.now())
	txn := &models.PaymentTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		CustomerOrderID: customerOrderID,
		Purpose:         input.Purpose,
		Amount:          amount,
		Currency:        "BDT",
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}

	checkout, err := s.gateway.Initiate(ctx, shurjopay.InitiateRequest{
		Amount:        amount.StringFixed(2),
		OrderID:       customerOrderID,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
		ClientIP:      input.ClientIP,
	})
	if err != nil {
		return nil, err
	}

	// Back-fill the gateway's own order id now that it is known.
	if err := s.repo.Update(ctx, txn.ID, map[string]any{"gateway_order_id": checkout.GatewayOrderID}); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithGatewayOrderID(ctx, checkout.GatewayOrderID), "gateway checkout opened")
	return &InitiatePaymentResponse{
		CheckoutURL:     checkout.CheckoutURL,
		CustomerOrderID: customerOrderID,
		GatewayOrderID:  checkout.GatewayOrderID,
		Amount:          amount,
		Currency:        txn.Currency,
	}, nil
}

// VerifyAndApply asks the gateway for the authoritative status of a payment
// and applies its side effect at most once. The gateway call happens before
// any transaction is opened; a network failure mutates nothing and is safe to
// retry. The raw gateway payload is persisted whatever the outcome.
func (s *service) VerifyAndApply(ctx context.Context, gatewayOrderID string) (*VerifyAndApplyResult, error) {
	started := s.now()
	result, err := s.gateway.Verify(ctx, gatewayOrderID)
	if err != nil {
		s.observed.ObserveVerify("error", s.now().Sub(started))
		return nil, err
	}
	succeeded := result.Succeeded()
	if succeeded {
		s.observed.ObserveVerify("success", s.now().Sub(started))
	} else {
		s.observed.ObserveVerify("declined", s.now().Sub(started))
	}

	txn, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) && result.CustomerOrderID != "" {
		txn, err = s.repo.FindByCustomerOrderID(ctx, result.CustomerOrderID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment").
				WithDetails(map[string]any{"sp_order_id": gatewayOrderID})
		}
		return nil, err
	}

	updates := map[string]any{
		"is_successful": succeeded,
		"raw_response":  []byte(result.Raw),
	}
	if txn.GatewayOrderID == nil {
		updates["gateway_order_id"] = result.GatewayOrderID
	}
	if !succeeded {
		updates["failure_reason"] = result.SpMessage
	}
	if err := s.repo.Update(ctx, txn.ID, updates); err != nil {
		return nil, err
	}
	txn.IsSuccessful = succeeded

	if !succeeded {
		return &VerifyAndApplyResult{
			Transaction: txn,
			Message:     result.SpMessage,
		}, nil
	}
	if txn.IsApplied {
		return &VerifyAndApplyResult{Transaction: txn, AlreadyApplied: true}, nil
	}

	applied, applyErr := s.apply(ctx, txn)
	if applyErr != nil {
		// The side effect failed locally (e.g. the plan disappeared). Leave
		// is_applied false so a later verification can retry, but keep the
		// reason on the record.
		reason := applyErr.Error()
		if updateErr := s.repo.Update(ctx, txn.ID, map[string]any{"failure_reason": reason}); updateErr != nil {
			return nil, updateErr
		}
		txn.FailureReason = &reason
		return &VerifyAndApplyResult{Transaction: txn, Message: reason}, nil
	}
	if !applied {
		s.observed.IncDuplicate()
		stored, err := s.repo.FindByID(ctx, txn.ID)
		if err == nil {
			txn = stored
		}
		return &VerifyAndApplyResult{Transaction: txn, AlreadyApplied: true}, nil
	}

	s.observed.IncApplied(txn.Purpose.String())
	s.logg.Info(s.logg.WithGatewayOrderID(ctx, gatewayOrderID), "payment applied")

	stored, err := s.repo.FindByID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	return &VerifyAndApplyResult{Transaction: stored, Applied: true}, nil
}

// apply performs the purpose-specific side effect and flips is_applied in one
// transaction. Returning (false, nil) means another verification won the
// race; the side effect rolled back with the transaction.
func (s *service) apply(ctx context.Context, txn *models.PaymentTransaction) (bool, error) {
	ref, err := ParsePurposeRef(txn.CustomerOrderID)
	if err != nil {
		return false, err
	}

	won := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		switch ref.Purpose {
		case enums.PaymentPurposeSubscription:
			plan, err := catalog.FindPlan(ctx, ref.RefID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("billing plan %d no longer exists", ref.RefID)
				}
				return err
			}
			if _, err := s.subs.WithTx(tx).Activate(ctx, txn.UserID, plan, s.now()); err != nil {
				return err
			}
		case enums.PaymentPurposeSMSPackage:
			pkg, err := catalog.FindSmsPackage(ctx, ref.RefID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("sms package %d no longer exists", ref.RefID)
				}
				return err
			}
			if err := s.credits.WithTx(tx).Grant(ctx, txn.UserID, pkg.SmsCount*ref.Quantity); err != nil {
				return err
			}
		default:
			return fmt.Errorf("cannot apply purpose %q", ref.Purpose)
		}

		flipped, err := repo.MarkApplied(ctx, txn.ID, s.now().UTC())
		if err != nil {
			return err
		}
		if !flipped {
			// Lost the race: roll the side effect back and report a no-op.
			return errAlreadyApplied
		}
		won = true
		return nil
	})
	if errors.Is(err, errAlreadyApplied) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return won, nil
}

var errAlreadyApplied = errors.New("payment already applied")

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}
