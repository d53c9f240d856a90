package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/api/responses"
	"github.com/rakibulbd/karobar-backend/api/validators"
	"github.com/rakibulbd/karobar-backend/internal/customers"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
	"github.com/rakibulbd/karobar-backend/pkg/pagination"
)

// CustomersService describes the customer methods used by the HTTP controllers.
type CustomersService interface {
	Create(ctx context.Context, userID uuid.UUID, input customers.CreateCustomerInput) (*models.Customer, error)
	Get(ctx context.Context, userID, customerID uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, userID uuid.UUID, input customers.ListCustomersInput) ([]models.Customer, string, error)
	Update(ctx context.Context, userID, customerID uuid.UUID, input customers.UpdateCustomerInput) (*models.Customer, error)
	SettleDue(ctx context.Context, userID, customerID uuid.UUID, amount decimal.Decimal) (*models.Customer, error)
}

type settleDueRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func CustomerCreate(svc CustomersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input customers.CreateCustomerInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customer, err := svc.Create(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

func CustomerList(svc CustomersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, next, err := svc.List(ctx, userID, customers.ListCustomersInput{
			Search: r.URL.Query().Get("q"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"customers": rows, "next_cursor": next})
	}
}

func CustomerDetail(svc CustomersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customerID, err := pathUUID(r, chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customer, err := svc.Get(ctx, userID, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerUpdate(svc CustomersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customerID, err := pathUUID(r, chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input customers.UpdateCustomerInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customer, err := svc.Update(ctx, userID, customerID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerSettleDue(svc CustomersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		customerID, err := pathUUID(r, chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req settleDueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		customer, err := svc.SettleDue(ctx, userID, customerID, amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
