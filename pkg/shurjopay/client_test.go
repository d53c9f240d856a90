package shurjopay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rakibulbd/karobar-backend/pkg/config"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, verifyBody string) (*httptest.Server, *int) {
	t.Helper()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["username"] != "merchant" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1","store_id":7,"token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc(verificationPath, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(verifyBody))
	})
	mux.HandleFunc(initiatePath, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "tok-1", payload["token"])
		_, _ = w.Write([]byte(`{"checkout_url":"https://pay.example/checkout/abc","sp_order_id":"KBR68ab1c2d3e4f5","customer_order_id":"SUB-2-1750000000","amount":"299.00","currency":"BDT"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func testConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:     baseURL,
		Username:    "merchant",
		Password:    "secret",
		StorePrefix: "KBR",
		Currency:    "BDT",
		ReturnURL:   "https://karobar.example/billing/return",
		CancelURL:   "https://karobar.example/billing/cancel",
		Timeout:     5 * time.Second,
	}
}

func TestVerifySuccessRecord(t *testing.T) {
	srv, tokenCalls := newTestServer(t, `[{"order_id":"KBR68ab1c2d3e4f5","customer_order_id":"SMS-3-Q2","amount":5000,"currency":"BDT","sp_code":"1000","sp_message":"Success","method":"bkash","bank_status":"Success"}]`)
	client := New(testConfig(srv.URL), nil)

	result, err := client.Verify(t.Context(), "KBR68ab1c2d3e4f5")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "SMS-3-Q2", result.CustomerOrderID)
	assert.Equal(t, float64(5000), result.Amount)
	assert.NotEmpty(t, result.Raw)

	// Second call reuses the cached token.
	_, err = client.Verify(t.Context(), "KBR68ab1c2d3e4f5")
	require.NoError(t, err)
	assert.Equal(t, 1, *tokenCalls)
}

func TestSucceededAcceptsAnyRecognizedSignal(t *testing.T) {
	cases := []struct {
		name   string
		result VerifyResult
		want   bool
	}{
		{"sp code", VerifyResult{SpCode: "1000"}, true},
		{"verified flag", VerifyResult{SpCode: "1011", Verified: true}, true},
		{"success message", VerifyResult{SpCode: "1011", SpMessage: "Success"}, true},
		{"bank status", VerifyResult{SpCode: "1011", BankStatus: "success"}, true},
		{"no signal", VerifyResult{SpCode: "1005", SpMessage: "Cancelled", BankStatus: "Cancel"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.result.Succeeded())
		})
	}
}

func TestVerifyDeclinedRecordIsNotAnError(t *testing.T) {
	srv, _ := newTestServer(t, `[{"order_id":"KBR68ab1c2d3e4f5","customer_order_id":"SUB-2-1750000000","amount":299,"sp_code":"1005","sp_message":"Cancelled","bank_status":"Cancel"}]`)
	client := New(testConfig(srv.URL), nil)

	result, err := client.Verify(t.Context(), "KBR68ab1c2d3e4f5")
	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Equal(t, "Cancelled", result.SpMessage)
}

func TestVerifyUnreachableGateway(t *testing.T) {
	client := New(testConfig("http://127.0.0.1:1"), nil)

	_, err := client.Verify(t.Context(), "KBR68ab1c2d3e4f5")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGateway, typed.Code())
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestVerifyRequiresOrderID(t *testing.T) {
	client := New(testConfig("http://unused"), nil)

	_, err := client.Verify(t.Context(), "  ")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestInitiateReturnsCheckoutURL(t *testing.T) {
	srv, _ := newTestServer(t, `[]`)
	client := New(testConfig(srv.URL), nil)

	resp, err := client.Initiate(t.Context(), InitiateRequest{
		Amount:        "299.00",
		OrderID:       "SUB-2-1750000000",
		CustomerName:  "Rahim Traders",
		CustomerPhone: "+8801712345678",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout/abc", resp.CheckoutURL)
	assert.Equal(t, "KBR68ab1c2d3e4f5", resp.GatewayOrderID)
}

func TestTokenFailure(t *testing.T) {
	srv, _ := newTestServer(t, `[]`)
	cfg := testConfig(srv.URL)
	cfg.Username = "wrong"
	client := New(cfg, nil)

	_, err := client.Verify(t.Context(), "KBR68ab1c2d3e4f5")
	require.Error(t, err)
}
