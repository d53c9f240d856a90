package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rakibulbd/karobar-backend/api/middleware"
	"github.com/rakibulbd/karobar-backend/internal/payments"
	"github.com/rakibulbd/karobar-backend/pkg/db/models"
)

type stubPaymentsService struct {
	initiated    *payments.InitiatePaymentInput
	initiateResp *payments.InitiatePaymentResponse
	verifiedID   string
	verifyResult *payments.VerifyAndApplyResult
	verifyErr    error
	listed       []models.PaymentTransaction
}

func (s *stubPaymentsService) Initiate(_ context.Context, _ uuid.UUID, input payments.InitiatePaymentInput) (*payments.InitiatePaymentResponse, error) {
	s.initiated = &input
	return s.initiateResp, nil
}

func (s *stubPaymentsService) VerifyAndApply(_ context.Context, gatewayOrderID string) (*payments.VerifyAndApplyResult, error) {
	s.verifiedID = gatewayOrderID
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyResult, nil
}

func (s *stubPaymentsService) ListForUser(_ context.Context, _ uuid.UUID) ([]models.PaymentTransaction, error) {
	return s.listed, nil
}

func TestPaymentVerifyRequiresOrderID(t *testing.T) {
	service := &stubPaymentsService{}
	handler := PaymentVerify(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/payments/verify", nil)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if service.verifiedID != "" {
		t.Fatalf("verify must not be called without sp_order_id")
	}
}

func TestPaymentVerifyPassesGatewayOrderID(t *testing.T) {
	service := &stubPaymentsService{
		verifyResult: &payments.VerifyAndApplyResult{Applied: true},
	}
	handler := PaymentVerify(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/payments/verify?sp_order_id=SP-42", nil)
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if service.verifiedID != "SP-42" {
		t.Fatalf("expected verify called with SP-42, got %q", service.verifiedID)
	}

	var envelope struct {
		Data payments.VerifyAndApplyResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Applied {
		t.Fatalf("expected applied=true in response")
	}
}

func TestPaymentInitiateRequiresAuth(t *testing.T) {
	handler := PaymentInitiate(&stubPaymentsService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/payments", strings.NewReader(`{"purpose":"subscription","plan_id":1}`))
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestPaymentInitiateForwardsInput(t *testing.T) {
	service := &stubPaymentsService{
		initiateResp: &payments.InitiatePaymentResponse{CheckoutURL: "https://gateway/checkout"},
	}
	handler := PaymentInitiate(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/payments", strings.NewReader(`{"purpose":"sms_package","package_id":3,"quantity":2}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if service.initiated == nil {
		t.Fatalf("expected initiate to be called")
	}
	if service.initiated.PackageID != 3 || service.initiated.Quantity != 2 {
		t.Fatalf("unexpected input %+v", service.initiated)
	}
	if service.initiated.ClientIP != "203.0.113.9" {
		t.Fatalf("expected client ip from X-Forwarded-For, got %q", service.initiated.ClientIP)
	}
}
