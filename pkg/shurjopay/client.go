package shurjopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rakibulbd/karobar-backend/pkg/config"
	pkgerrors "github.com/rakibulbd/karobar-backend/pkg/errors"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
)

const (
	tokenPath        = "/api/get_token"
	initiatePath     = "/api/secret-pay"
	verificationPath = "/api/verification"

	// spCodeSuccess is the gateway's code for a completed payment.
	spCodeSuccess = "1000"
)

// Client talks to the shurjoPay HTTP API.
type Client struct {
	httpClient *http.Client
	cfg        config.GatewayConfig
	logg       *logger.Logger

	mu          sync.Mutex
	token       string
	storeID     int
	tokenExpiry time.Time
}

// New builds a gateway client from configuration.
func New(cfg config.GatewayConfig, logg *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logg:       logg,
	}
}

// InitiateRequest carries the fields needed to open a checkout session.
type InitiateRequest struct {
	Amount          string
	OrderID         string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	CustomerCity    string
	ClientIP        string
}

// InitiateResponse is the subset of the checkout response callers need.
type InitiateResponse struct {
	CheckoutURL     string `json:"checkout_url"`
	GatewayOrderID  string `json:"sp_order_id"`
	CustomerOrderID string `json:"customer_order_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// VerifyResult is one verification record returned by the gateway.
type VerifyResult struct {
	GatewayOrderID  string  `json:"order_id"`
	CustomerOrderID string  `json:"customer_order_id"`
	Amount          float64 `json:"amount"`
	PayableAmount   float64 `json:"payable_amount"`
	Currency        string  `json:"currency"`
	SpCode          string  `json:"sp_code"`
	SpMessage       string  `json:"sp_message"`
	Verified        bool    `json:"is_verified"`
	Method          string  `json:"method"`
	BankStatus      string  `json:"bank_status"`
	BankTrxID       string  `json:"bank_trx_id"`
	DateTime        string  `json:"date_time"`

	// Raw holds the verification record exactly as the gateway returned it.
	Raw json.RawMessage `json:"-"`
}

// Succeeded reports whether the gateway considers the payment completed.
// Sandbox and production responses disagree on which field carries the
// outcome, so any recognized signal counts.
func (r *VerifyResult) Succeeded() bool {
	if r == nil {
		return false
	}
	if r.SpCode == spCodeSuccess || r.Verified {
		return true
	}
	if strings.EqualFold(r.SpMessage, "success") {
		return true
	}
	return strings.EqualFold(r.BankStatus, "Success")
}

type tokenResponse struct {
	Token     string `json:"token"`
	StoreID   int    `json:"store_id"`
	TokenType string `json:"token_type"`
	SpCode    any    `json:"sp_code"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

// Initiate opens a checkout session and returns the redirect URL.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	token, storeID, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"token":            token,
		"store_id":         storeID,
		"prefix":           c.cfg.StorePrefix,
		"amount":           req.Amount,
		"order_id":         req.OrderID,
		"currency":         c.cfg.Currency,
		"customer_name":    req.CustomerName,
		"customer_phone":   req.CustomerPhone,
		"customer_email":   req.CustomerEmail,
		"customer_address": req.CustomerAddress,
		"customer_city":    req.CustomerCity,
		"client_ip":        req.ClientIP,
		"return_url":       c.cfg.ReturnURL,
		"cancel_url":       c.cfg.CancelURL,
	}

	body, err := c.post(ctx, initiatePath, payload, token)
	if err != nil {
		return nil, err
	}

	var out InitiateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway returned malformed checkout response")
	}
	if out.CheckoutURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway did not return a checkout url").
			WithDetails(map[string]any{"order_id": req.OrderID})
	}
	return &out, nil
}

// Verify fetches the verification record for a gateway order id.
func (c *Client) Verify(ctx context.Context, gatewayOrderID string) (*VerifyResult, error) {
	if strings.TrimSpace(gatewayOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}

	token, _, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, verificationPath, map[string]any{"order_id": gatewayOrderID}, token)
	if err != nil {
		return nil, err
	}

	// The gateway wraps the record in a single-element array.
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		var single json.RawMessage
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway returned malformed verification response")
		}
		records = []json.RawMessage{single}
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no verification record for order").
			WithDetails(map[string]any{"sp_order_id": gatewayOrderID})
	}

	var result VerifyResult
	if err := json.Unmarshal(records[0], &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway returned malformed verification record")
	}
	result.Raw = records[0]
	if result.GatewayOrderID == "" {
		result.GatewayOrderID = gatewayOrderID
	}
	return &result, nil
}

func (c *Client) ensureToken(ctx context.Context) (string, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, c.storeID, nil
	}

	body, err := c.post(ctx, tokenPath, map[string]any{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}, "")
	if err != nil {
		return "", 0, err
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway returned malformed token response")
	}
	if tok.Token == "" {
		return "", 0, pkgerrors.New(pkgerrors.CodeGateway, "gateway authentication failed").
			WithDetails(map[string]any{"message": tok.Message})
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c.token = tok.Token
	c.storeID = tok.StoreID
	// Refresh a minute early so in-flight calls never carry a stale token.
	c.tokenExpiry = time.Now().Add(ttl - time.Minute)
	return c.token, c.storeID, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, token string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway payload: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "reading gateway response")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "payment gateway error").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway rejected request").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})
	}
	return body, nil
}
