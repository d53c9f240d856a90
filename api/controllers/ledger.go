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
	"github.com/rakibulbd/karobar-backend/internal/ledger"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
)

// LedgerService describes the ledger methods used by the HTTP controllers.
type LedgerService interface {
	GetOrCreateAccount(ctx context.Context, userID uuid.UUID, name string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
	RecordTransaction(ctx context.Context, input ledger.RecordTransactionInput) (*models.Transaction, error)
	Apply(ctx context.Context, txnID uuid.UUID, verifiedByID *uuid.UUID) (*models.Transaction, error)
	Reverse(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
}

type createAccountRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type recordTransactionRequest struct {
	AccountID     uuid.UUID `json:"account_id" validate:"required"`
	Type          string    `json:"type" validate:"required,oneof=credit debit"`
	Amount        string    `json:"amount" validate:"required"`
	Purpose       string    `json:"purpose,omitempty" validate:"max=240"`
	ReferenceCode string    `json:"reference_code,omitempty" validate:"max=64"`
}

func LedgerAccountCreate(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createAccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, err := svc.GetOrCreateAccount(ctx, userID, strings.TrimSpace(req.Name))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

func LedgerAccountList(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accounts, err := svc.ListAccounts(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"accounts": accounts})
	}
}

func LedgerTransactionCreate(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := currentUserID(r); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req recordTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txnType, err := enums.ParseTransactionType(req.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		txn, err := svc.RecordTransaction(ctx, ledger.RecordTransactionInput{
			AccountID:     req.AccountID,
			Type:          txnType,
			Amount:        amount,
			Purpose:       strings.TrimSpace(req.Purpose),
			ReferenceCode: strings.TrimSpace(req.ReferenceCode),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

func LedgerTransactionVerify(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		txnID, err := pathUUID(r, chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txn, err := svc.Apply(ctx, txnID, &userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

func LedgerTransactionCancel(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := currentUserID(r); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		txnID, err := pathUUID(r, chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txn, err := svc.Reverse(ctx, txnID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

func LedgerTransactionList(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := currentUserID(r); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		accountID, err := pathUUID(r, chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		txns, err := svc.ListTransactions(ctx, accountID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"transactions": txns})
	}
}
