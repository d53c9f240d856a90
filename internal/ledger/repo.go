package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// Repository manages persistence for accounts and their transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	FindAccountByUserAndName(ctx context.Context, userID uuid.UUID, name string) (*models.Account, error)
	ListAccountsByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransaction(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error)
	FindTransactionByReference(ctx context.Context, referenceCode string) (*models.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
	MarkTransactionVerified(ctx context.Context, txnID uuid.UUID, verifiedByID *uuid.UUID) (bool, error)
	MarkTransactionCancelled(ctx context.Context, txnID uuid.UUID, from enums.TransactionStatus) (bool, error)
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountByUserAndName(ctx context.Context, userID uuid.UUID, name string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListAccountsByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransaction(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", txnID).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindTransactionByReference(ctx context.Context, referenceCode string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("reference_code = ?", referenceCode).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// MarkTransactionVerified flips a pending transaction to verified. The status
// guard in the WHERE clause makes the flip happen at most once even under
// concurrent verification attempts.
func (r *repository) MarkTransactionVerified(ctx context.Context, txnID uuid.UUID, verifiedByID *uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txnID, enums.TransactionStatusPending).
		Updates(map[string]any{
			"status":         enums.TransactionStatusVerified,
			"verified_by_id": verifiedByID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkTransactionCancelled flips a transaction out of the given prior status
// into cancelled, guarded the same way as verification. Callers use the prior
// status to decide whether a balance reversal is owed.
func (r *repository) MarkTransactionCancelled(ctx context.Context, txnID uuid.UUID, from enums.TransactionStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txnID, from).
		Update("status", enums.TransactionStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AdjustBalance applies a signed delta to an account balance. Negative deltas
// only succeed when the balance can cover them.
func (r *repository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", accountID)
	if delta.IsNegative() {
		query = query.Where("balance >= ?", delta.Neg())
	}
	result := query.Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
