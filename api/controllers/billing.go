package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rakibulbd/karobar-backend/api/responses"
	"github.com/rakibulbd/karobar-backend/api/validators"
	"github.com/rakibulbd/karobar-backend/internal/payments"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
)

// BillingCatalog describes the read-only catalog used by the HTTP controllers.
type BillingCatalog interface {
	ListActivePlans(ctx context.Context) ([]models.BillingPlan, error)
	ListActiveSmsPackages(ctx context.Context) ([]models.SmsPackage, error)
}

// PaymentsService describes the payment engine methods used by the controllers.
type PaymentsService interface {
	Initiate(ctx context.Context, userID uuid.UUID, input payments.InitiatePaymentInput) (*payments.InitiatePaymentResponse, error)
	VerifyAndApply(ctx context.Context, gatewayOrderID string) (*payments.VerifyAndApplyResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error)
}

// SubscriptionReader exposes the per-user subscription row.
type SubscriptionReader interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// SmsCreditReader exposes the per-user SMS credit balance.
type SmsCreditReader interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

func BillingPlanList(catalog BillingCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		plans, err := catalog.ListActivePlans(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"plans": plans})
	}
}

func SmsPackageList(catalog BillingCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		packages, err := catalog.ListActiveSmsPackages(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"packages": packages})
	}
}

// BillingStatus reports the caller's subscription and SMS credit balance.
func BillingStatus(subs SubscriptionReader, credits SmsCreditReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := map[string]any{}
		sub, err := subs.GetForUser(ctx, userID)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		} else {
			payload["subscription"] = sub
		}

		balance, err := credits.Balance(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payload["sms_credits"] = balance

		responses.WriteSuccess(w, payload)
	}
}

func PaymentInitiate(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input payments.InitiatePaymentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.ClientIP = clientAddr(r)

		resp, err := svc.Initiate(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func PaymentList(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListForUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"payments": rows})
	}
}

// PaymentVerify is the public callback the gateway redirects to. It is safe
// to hit repeatedly; the engine applies the payment at most once.
func PaymentVerify(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		gatewayOrderID := strings.TrimSpace(r.URL.Query().Get("sp_order_id"))
		if gatewayOrderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sp_order_id is required"))
			return
		}

		result, err := svc.VerifyAndApply(ctx, gatewayOrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func clientAddr(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
