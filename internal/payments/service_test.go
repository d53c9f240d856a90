package payments

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rakibulbd/karobar-backend/internal/billing"
	"github.com/rakibulbd/karobar-backend/internal/smscredits"
	"github.com/rakibulbd/karobar-backend/internal/subscriptions"
	"github.com/rakibulbd/karobar-backend/pkg/db"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
	"github.com/rakibulbd/karobar-backend/pkg/shurjopay"
)

type fakeGateway struct {
	initiateResp *shurjopay.InitiateResponse
	initiateErr  error
	verifyResult *shurjopay.VerifyResult
	verifyErr    error
	verifyCalls  int
}

func (f *fakeGateway) Initiate(_ context.Context, _ shurjopay.InitiateRequest) (*shurjopay.InitiateResponse, error) {
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	return f.initiateResp, nil
}

func (f *fakeGateway) Verify(_ context.Context, _ string) (*shurjopay.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	statements := []string{`
CREATE TABLE IF NOT EXISTS payment_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  customer_order_id TEXT NOT NULL UNIQUE,
  gateway_order_id TEXT UNIQUE,
  purpose TEXT NOT NULL DEFAULT 'unknown',
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'BDT',
  is_successful INTEGER NOT NULL DEFAULT 0,
  is_applied INTEGER NOT NULL DEFAULT 0,
  applied_at DATETIME,
  failure_reason TEXT,
  raw_response TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS billing_plans (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  duration_days INTEGER NOT NULL DEFAULT 30,
  price_amount NUMERIC NOT NULL,
  currency_code TEXT NOT NULL DEFAULT 'BDT',
  features TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS sms_packages (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  sms_count INTEGER NOT NULL,
  price_amount NUMERIC NOT NULL,
  currency_code TEXT NOT NULL DEFAULT 'BDT',
  features TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  plan_id INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'inactive',
  activated_at DATETIME,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS sms_credits (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	for _, table := range []string{"payment_transactions", "billing_plans", "sms_packages", "subscriptions", "sms_credits"} {
		require.NoError(t, conn.Exec("DELETE FROM "+table).Error)
	}
	return conn
}

func newPaymentsService(t *testing.T, conn *gorm.DB, gateway gatewayClient) Service {
	t.Helper()
	subsSvc, err := subscriptions.NewService(subscriptions.NewRepository(conn))
	require.NoError(t, err)
	creditsSvc, err := smscredits.NewService(smscredits.NewRepository(conn))
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(
		NewRepository(conn),
		billing.NewRepository(conn),
		subsSvc,
		creditsSvc,
		gateway,
		db.FromGorm(conn),
		logg,
		nil,
	)
	require.NoError(t, err)
	return svc
}

func seedPlan(t *testing.T, conn *gorm.DB, id int64, price string, days int) {
	t.Helper()
	require.NoError(t, conn.Create(&models.BillingPlan{
		ID:           id,
		Name:         "Plan",
		Status:       enums.PlanStatusActive,
		DurationDays: days,
		PriceAmount:  decimal.RequireFromString(price),
		CurrencyCode: "BDT",
	}).Error)
}

func seedSmsPackage(t *testing.T, conn *gorm.DB, id, smsCount int64, price string) {
	t.Helper()
	require.NoError(t, conn.Create(&models.SmsPackage{
		ID:           id,
		Name:         "Bulk",
		Status:       enums.PlanStatusActive,
		SmsCount:     smsCount,
		PriceAmount:  decimal.RequireFromString(price),
		CurrencyCode: "BDT",
	}).Error)
}

func seedPaymentRecord(t *testing.T, conn *gorm.DB, userID uuid.UUID, customerOrderID, gatewayOrderID string, purpose enums.PaymentPurpose, amount string) *models.PaymentTransaction {
	t.Helper()
	txn := &models.PaymentTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		CustomerOrderID: customerOrderID,
		GatewayOrderID:  &gatewayOrderID,
		Purpose:         purpose,
		Amount:          decimal.RequireFromString(amount),
		Currency:        "BDT",
	}
	require.NoError(t, conn.Create(txn).Error)
	return txn
}

func successVerify(gatewayOrderID, customerOrderID string) *shurjopay.VerifyResult {
	result := &shurjopay.VerifyResult{
		GatewayOrderID:  gatewayOrderID,
		CustomerOrderID: customerOrderID,
		SpCode:          "1000",
		SpMessage:       "Success",
		BankStatus:      "Success",
	}
	raw, _ := json.Marshal(result)
	result.Raw = raw
	return result
}

func TestInitiateSmsPackage(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	seedSmsPackage(t, conn, 3, 5000, "450.00")
	gateway := &fakeGateway{initiateResp: &shurjopay.InitiateResponse{
		CheckoutURL:    "https://sandbox.shurjopayment.com/checkout/abc",
		GatewayOrderID: "SP-INIT-1",
	}}
	svc := newPaymentsService(t, conn, gateway)
	userID := uuid.New()

	resp, err := svc.Initiate(t.Context(), userID, InitiatePaymentInput{
		Purpose:   enums.PaymentPurposeSMSPackage,
		PackageID: 3,
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.shurjopayment.com/checkout/abc", resp.CheckoutURL)
	assert.True(t, resp.Amount.Equal(decimal.RequireFromString("900.00")), "amount %s", resp.Amount)

	var stored models.PaymentTransaction
	require.NoError(t, conn.Where("customer_order_id = ?", resp.CustomerOrderID).First(&stored).Error)
	require.NotNil(t, stored.GatewayOrderID)
	assert.Equal(t, "SP-INIT-1", *stored.GatewayOrderID)
	assert.False(t, stored.IsSuccessful)
	assert.False(t, stored.IsApplied)
}

func TestInitiateRejectsUnknownPlan(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	svc := newPaymentsService(t, conn, &fakeGateway{})

	_, err := svc.Initiate(t.Context(), uuid.New(), InitiatePaymentInput{
		Purpose: enums.PaymentPurposeSubscription,
		PlanID:  99,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestVerifyAndApplyActivatesSubscriptionOnce(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	seedPlan(t, conn, 1, "299.00", 30)
	userID := uuid.New()
	seedPaymentRecord(t, conn, userID, "SUB-1-1750000000", "SP-100", enums.PaymentPurposeSubscription, "299.00")
	gateway := &fakeGateway{verifyResult: successVerify("SP-100", "SUB-1-1750000000")}
	svc := newPaymentsService(t, conn, gateway)

	first, err := svc.VerifyAndApply(t.Context(), "SP-100")
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.False(t, first.AlreadyApplied)
	require.NotNil(t, first.Transaction.AppliedAt)

	second, err := svc.VerifyAndApply(t.Context(), "SP-100")
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.True(t, second.AlreadyApplied)

	var subCount int64
	require.NoError(t, conn.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&subCount).Error)
	assert.EqualValues(t, 1, subCount)

	var sub models.Subscription
	require.NoError(t, conn.Where("user_id = ?", userID).First(&sub).Error)
	assert.Equal(t, enums.SubscriptionStatusActive, sub.Status)
	assert.EqualValues(t, 1, sub.PlanID)
}

func TestVerifyAndApplyGrantsCreditsByQuantity(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	seedSmsPackage(t, conn, 3, 5000, "450.00")
	userID := uuid.New()
	// Legacy order id without a timestamp segment still resolves quantity.
	seedPaymentRecord(t, conn, userID, "SMS-3-Q2", "SP-200", enums.PaymentPurposeSMSPackage, "900.00")
	gateway := &fakeGateway{verifyResult: successVerify("SP-200", "SMS-3-Q2")}
	svc := newPaymentsService(t, conn, gateway)

	first, err := svc.VerifyAndApply(t.Context(), "SP-200")
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := svc.VerifyAndApply(t.Context(), "SP-200")
	require.NoError(t, err)
	assert.True(t, second.AlreadyApplied)

	var credit models.SmsCredit
	require.NoError(t, conn.Where("user_id = ?", userID).First(&credit).Error)
	assert.EqualValues(t, 10000, credit.Balance)
}

func TestVerifyDeclinedLeavesNoSideEffect(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	seedPlan(t, conn, 1, "299.00", 30)
	userID := uuid.New()
	seedPaymentRecord(t, conn, userID, "SUB-1-1750000100", "SP-300", enums.PaymentPurposeSubscription, "299.00")
	declined := &shurjopay.VerifyResult{
		GatewayOrderID:  "SP-300",
		CustomerOrderID: "SUB-1-1750000100",
		SpCode:          "1002",
		SpMessage:       "Cancelled by customer",
		BankStatus:      "Cancel",
	}
	raw, _ := json.Marshal(declined)
	declined.Raw = raw
	svc := newPaymentsService(t, conn, &fakeGateway{verifyResult: declined})

	result, err := svc.VerifyAndApply(t.Context(), "SP-300")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, "Cancelled by customer", result.Message)

	var stored models.PaymentTransaction
	require.NoError(t, conn.Where("gateway_order_id = ?", "SP-300").First(&stored).Error)
	assert.False(t, stored.IsSuccessful)
	assert.False(t, stored.IsApplied)
	require.NotNil(t, stored.FailureReason)
	assert.NotEmpty(t, stored.RawResponse)

	var subCount int64
	require.NoError(t, conn.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&subCount).Error)
	assert.Zero(t, subCount)
}

func TestVerifyGatewayErrorMutatesNothing(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	userID := uuid.New()
	seedPaymentRecord(t, conn, userID, "SUB-1-1750000200", "SP-400", enums.PaymentPurposeSubscription, "299.00")
	gatewayErr := pkgerrors.New(pkgerrors.CodeGateway, "verification request failed")
	svc := newPaymentsService(t, conn, &fakeGateway{verifyErr: gatewayErr})

	_, err := svc.VerifyAndApply(t.Context(), "SP-400")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsRetryable(err))

	var stored models.PaymentTransaction
	require.NoError(t, conn.Where("gateway_order_id = ?", "SP-400").First(&stored).Error)
	assert.False(t, stored.IsSuccessful)
	assert.Nil(t, stored.RawResponse)
}

func TestVerifyUnknownOrderIsNotFound(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	gateway := &fakeGateway{verifyResult: successVerify("SP-999", "SUB-1-1750000300")}
	svc := newPaymentsService(t, conn, gateway)

	_, err := svc.VerifyAndApply(t.Context(), "SP-999")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestVerifyMissingPackageStaysUnapplied(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	userID := uuid.New()
	seedPaymentRecord(t, conn, userID, "SMS-7-Q1-1750000400", "SP-500", enums.PaymentPurposeSMSPackage, "450.00")
	gateway := &fakeGateway{verifyResult: successVerify("SP-500", "SMS-7-Q1-1750000400")}
	svc := newPaymentsService(t, conn, gateway)

	result, err := svc.VerifyAndApply(t.Context(), "SP-500")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Contains(t, result.Message, "no longer exists")

	var stored models.PaymentTransaction
	require.NoError(t, conn.Where("gateway_order_id = ?", "SP-500").First(&stored).Error)
	assert.True(t, stored.IsSuccessful)
	assert.False(t, stored.IsApplied)

	// Once the package exists a later verification applies normally.
	seedSmsPackage(t, conn, 7, 1000, "450.00")
	retried, err := svc.VerifyAndApply(t.Context(), "SP-500")
	require.NoError(t, err)
	assert.True(t, retried.Applied)

	var credit models.SmsCredit
	require.NoError(t, conn.Where("user_id = ?", userID).First(&credit).Error)
	assert.EqualValues(t, 1000, credit.Balance)
}

func TestVerifyBackfillsGatewayOrderIDByCustomerLookup(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	seedPlan(t, conn, 2, "2499.00", 365)
	userID := uuid.New()
	// Record created before the gateway assigned its own order id.
	txn := &models.PaymentTransaction{
		ID:              uuid.New(),
		UserID:          userID,
		CustomerOrderID: "SUB-2-1750000500",
		Purpose:         enums.PaymentPurposeSubscription,
		Amount:          decimal.RequireFromString("2499.00"),
		Currency:        "BDT",
	}
	require.NoError(t, conn.Create(txn).Error)
	gateway := &fakeGateway{verifyResult: successVerify("SP-600", "SUB-2-1750000500")}
	svc := newPaymentsService(t, conn, gateway)

	result, err := svc.VerifyAndApply(t.Context(), "SP-600")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Transaction.GatewayOrderID)
	assert.Equal(t, "SP-600", *result.Transaction.GatewayOrderID)
}

func TestApplyDurationFollowsPlan(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	seedPlan(t, conn, 3, "2499.00", 365)
	userID := uuid.New()
	seedPaymentRecord(t, conn, userID, "SUB-3-1750000600", "SP-700", enums.PaymentPurposeSubscription, "2499.00")
	gateway := &fakeGateway{verifyResult: successVerify("SP-700", "SUB-3-1750000600")}
	svc := newPaymentsService(t, conn, gateway).(*service)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	result, err := svc.VerifyAndApply(t.Context(), "SP-700")
	require.NoError(t, err)
	assert.True(t, result.Applied)

	var sub models.Subscription
	require.NoError(t, conn.Where("user_id = ?", userID).First(&sub).Error)
	require.NotNil(t, sub.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 365), sub.ExpiresAt.UTC())
}
