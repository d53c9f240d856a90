package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the account ledger operations.
type Service interface {
	GetOrCreateAccount(ctx context.Context, userID uuid.UUID, name string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error)
	Apply(ctx context.Context, txnID uuid.UUID, verifiedByID *uuid.UUID) (*models.Transaction, error)
	Reverse(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
}

// RecordTransactionInput captures the data a pending transaction requires.
type RecordTransactionInput struct {
	AccountID     uuid.UUID
	Type          enums.TransactionType
	Amount        decimal.Decimal
	Purpose       string
	ReferenceCode string
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService wires a ledger service with the provided repository and tx runner.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) GetOrCreateAccount(ctx context.Context, userID uuid.UUID, name string) (*models.Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account name is required")
	}

	existing, err := s.repo.FindAccountByUserAndName(ctx, userID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Balance:     decimal.Zero,
		IsActive:    true,
		ActivatedAt: &now,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListAccountsByUser(ctx, userID)
}

func (s *service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction amount must be positive")
	}
	reference := strings.TrimSpace(input.ReferenceCode)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference code is required")
	}

	account, err := s.repo.FindAccount(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account is inactive")
	}
	if input.Type == enums.TransactionTypeDebit && account.Balance.LessThan(input.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient balance for debit").
			WithDetails(map[string]any{"balance": account.Balance.StringFixed(2)})
	}

	txn := &models.Transaction{
		ID:            uuid.New(),
		AccountID:     input.AccountID,
		Type:          input.Type,
		Amount:        input.Amount,
		Purpose:       input.Purpose,
		Status:        enums.TransactionStatusPending,
		ReferenceCode: reference,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Apply verifies a pending transaction and moves the account balance. The
// verification flip and the balance adjustment commit together or not at all.
func (s *service) Apply(ctx context.Context, txnID uuid.UUID, verifiedByID *uuid.UUID) (*models.Transaction, error) {
	if txnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	var applied *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txn, err := repo.FindTransaction(ctx, txnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return err
		}

		flipped, err := repo.MarkTransactionVerified(ctx, txnID, verifiedByID)
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeConflict, "transaction is not pending").
				WithDetails(map[string]any{"status": txn.Status.String()})
		}

		delta := txn.Amount
		if txn.Type == enums.TransactionTypeDebit {
			delta = delta.Neg()
		}
		adjusted, err := repo.AdjustBalance(ctx, txn.AccountID, delta)
		if err != nil {
			return err
		}
		if !adjusted {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient balance for debit")
		}

		txn.Status = enums.TransactionStatusVerified
		txn.VerifiedByID = verifiedByID
		applied = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txnID.String(),
		"type":           applied.Type.String(),
	}), "ledger transaction applied")
	return applied, nil
}

// Reverse cancels a transaction. Cancelling a verified transaction applies
// the inverse balance movement; discarding a pending one leaves the balance
// untouched because it never moved.
func (s *service) Reverse(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error) {
	if txnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	var reversed *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txn, err := repo.FindTransaction(ctx, txnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return err
		}

		flipped, err := repo.MarkTransactionCancelled(ctx, txnID, enums.TransactionStatusVerified)
		if err != nil {
			return err
		}
		if flipped {
			delta := txn.Amount
			if txn.Type == enums.TransactionTypeCredit {
				delta = delta.Neg()
			}
			adjusted, err := repo.AdjustBalance(ctx, txn.AccountID, delta)
			if err != nil {
				return err
			}
			if !adjusted {
				return pkgerrors.New(pkgerrors.CodeConflict, "balance cannot cover reversal")
			}
		} else {
			discarded, err := repo.MarkTransactionCancelled(ctx, txnID, enums.TransactionStatusPending)
			if err != nil {
				return err
			}
			if !discarded {
				return pkgerrors.New(pkgerrors.CodeConflict, "transaction is already cancelled").
					WithDetails(map[string]any{"status": txn.Status.String()})
			}
		}

		txn.Status = enums.TransactionStatusCancelled
		reversed = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txnID.String(),
	}), "ledger transaction reversed")
	return reversed, nil
}

func (s *service) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	return s.repo.ListTransactionsByAccount(ctx, accountID)
}
