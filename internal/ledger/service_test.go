package ledger

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/pkg/db"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  balance NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  activated_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  purpose TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  reference_code TEXT NOT NULL UNIQUE,
  verified_by_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(accounts).Error)
	require.NoError(t, conn.Exec(transactions).Error)
	return conn
}

func newLedgerService(t *testing.T, conn *gorm.DB) (Service, Repository) {
	t.Helper()
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "ledger-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(repo, db.FromGorm(conn), logg)
	require.NoError(t, err)
	return svc, repo
}

func seedAccount(t *testing.T, conn *gorm.DB, balance string) *models.Account {
	t.Helper()
	now := time.Now().UTC()
	account := &models.Account{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Name:        "Cash",
		Balance:     decimal.RequireFromString(balance),
		IsActive:    true,
		ActivatedAt: &now,
	}
	require.NoError(t, conn.Create(account).Error)
	return account
}

func TestGetOrCreateAccountIsIdempotent(t *testing.T) {
	conn := setupLedgerTestDB(t)
	svc, _ := newLedgerService(t, conn)
	userID := uuid.New()

	first, err := svc.GetOrCreateAccount(t.Context(), userID, "Cash")
	require.NoError(t, err)
	second, err := svc.GetOrCreateAccount(t.Context(), userID, "Cash")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Balance.IsZero())
}

func TestApplyCreditMovesBalanceOnce(t *testing.T) {
	conn := setupLedgerTestDB(t)
	svc, repo := newLedgerService(t, conn)
	account := seedAccount(t, conn, "100.00")

	txn, err := svc.RecordTransaction(t.Context(), RecordTransactionInput{
		AccountID:     account.ID,
		Type:          enums.TransactionTypeCredit,
		Amount:        decimal.RequireFromString("50.25"),
		Purpose:       "sale",
		ReferenceCode: "ref-" + uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPending, txn.Status)

	applied, err := svc.Apply(t.Context(), txn.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusVerified, applied.Status)

	// A second apply must be rejected and must not move the balance again.
	_, err = svc.Apply(t.Context(), txn.ID, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	stored, err := repo.FindAccount(t.Context(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("150.25")), "got %s", stored.Balance)
}

func TestDebitRequiresSufficientBalance(t *testing.T) {
	conn := setupLedgerTestDB(t)
	svc, repo := newLedgerService(t, conn)
	account := seedAccount(t, conn, "30.00")

	_, err := svc.RecordTransaction(t.Context(), RecordTransactionInput{
		AccountID:     account.ID,
		Type:          enums.TransactionTypeDebit,
		Amount:        decimal.RequireFromString("31.00"),
		Purpose:       "withdrawal",
		ReferenceCode: "ref-" + uuid.NewString(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	txn, err := svc.RecordTransaction(t.Context(), RecordTransactionInput{
		AccountID:     account.ID,
		Type:          enums.TransactionTypeDebit,
		Amount:        decimal.RequireFromString("30.00"),
		Purpose:       "withdrawal",
		ReferenceCode: "ref-" + uuid.NewString(),
	})
	require.NoError(t, err)

	_, err = svc.Apply(t.Context(), txn.ID, nil)
	require.NoError(t, err)

	stored, err := repo.FindAccount(t.Context(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero(), "got %s", stored.Balance)
}

func TestApplyDebitRacingBalanceIsRolledBack(t *testing.T) {
	conn := setupLedgerTestDB(t)
	svc, repo := newLedgerService(t, conn)
	account := seedAccount(t, conn, "40.00")

	txn, err := svc.RecordTransaction(t.Context(), RecordTransactionInput{
		AccountID:     account.ID,
		Type:          enums.TransactionTypeDebit,
		Amount:        decimal.RequireFromString("40.00"),
		Purpose:       "withdrawal",
		ReferenceCode: "ref-" + uuid.NewString(),
	})
	require.NoError(t, err)

	// Drain the balance between recording and applying.
	require.NoError(t, conn.Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("balance", decimal.RequireFromString("10.00")).Error)

	_, err = svc.Apply(t.Context(), txn.ID, nil)
	require.Error(t, err)

	stored, err := repo.FindTransaction(t.Context(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPending, stored.Status, "failed apply must not leave the transaction verified")
}

func TestReverseRestoresBalance(t *testing.T) {
	conn := setupLedgerTestDB(t)
	svc, repo := newLedgerService(t, conn)
	account := seedAccount(t, conn, "20.00")

	txn, err := svc.RecordTransaction(t.Context(), RecordTransactionInput{
		AccountID:     account.ID,
		Type:          enums.TransactionTypeCredit,
		Amount:        decimal.RequireFromString("80.00"),
		Purpose:       "sale",
		ReferenceCode: "ref-" + uuid.NewString(),
	})
	require.NoError(t, err)

	_, err = svc.Apply(t.Context(), txn.ID, nil)
	require.NoError(t, err)

	reversed, err := svc.Reverse(t.Context(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCancelled, reversed.Status)

	// Reversing twice must fail.
	_, err = svc.Reverse(t.Context(), txn.ID)
	require.Error(t, err)

	stored, err := repo.FindAccount(t.Context(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("20.00")), "got %s", stored.Balance)
}

func TestReverseDiscardsPendingWithoutBalanceEffect(t *testing.T) {
	conn := setupLedgerTestDB(t)
	svc, repo := newLedgerService(t, conn)
	account := seedAccount(t, conn, "10.00")

	txn, err := svc.RecordTransaction(t.Context(), RecordTransactionInput{
		AccountID:     account.ID,
		Type:          enums.TransactionTypeCredit,
		Amount:        decimal.RequireFromString("5.00"),
		Purpose:       "sale",
		ReferenceCode: "ref-" + uuid.NewString(),
	})
	require.NoError(t, err)

	// A pending entry never moved the balance, so discarding it must not
	// move the balance either.
	cancelled, err := svc.Reverse(t.Context(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCancelled, cancelled.Status)

	stored, err := repo.FindAccount(t.Context(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.RequireFromString("10.00")), "got %s", stored.Balance)

	// A discarded entry can no longer be verified or cancelled again.
	_, err = svc.Apply(t.Context(), txn.ID, nil)
	require.Error(t, err)

	_, err = svc.Reverse(t.Context(), txn.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}
