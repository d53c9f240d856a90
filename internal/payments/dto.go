package payments

import (
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// InitiatePaymentInput starts a gateway checkout for a plan or SMS package.
type InitiatePaymentInput struct {
	Purpose   enums.PaymentPurpose `json:"purpose" validate:"required,oneof=subscription sms_package"`
	PlanID    int64                `json:"plan_id,omitempty"`
	PackageID int64                `json:"package_id,omitempty"`
	Quantity  int64                `json:"quantity,omitempty" validate:"omitempty,gt=0"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty" validate:"omitempty,email"`
	ClientIP      string `json:"-"`
}

// InitiatePaymentResponse points the client at the gateway checkout page.
type InitiatePaymentResponse struct {
	CheckoutURL     string          `json:"checkout_url"`
	CustomerOrderID string          `json:"customer_order_id"`
	GatewayOrderID  string          `json:"gateway_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// VerifyAndApplyResult reports what a verification attempt changed.
type VerifyAndApplyResult struct {
	Transaction    *models.PaymentTransaction `json:"transaction"`
	Applied        bool                       `json:"applied"`
	AlreadyApplied bool                       `json:"already_applied"`
	Message        string                     `json:"message,omitempty"`
}
