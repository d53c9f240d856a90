package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rakibulbd/karobar-backend/pkg/db/models"
	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
	UnitPrice string     `json:"unit_price" validate:"required"`
}

// CreateOrderInput carries everything order creation needs.
type CreateOrderInput struct {
	Items []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`

	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	CustomerPhone *string    `json:"customer_phone,omitempty"`
	CustomerEmail *string    `json:"customer_email,omitempty" validate:"omitempty,email"`

	DiscountType       enums.DiscountType `json:"discount_type" validate:"omitempty,oneof=percentage flat"`
	DiscountPercentage string             `json:"discount_percentage,omitempty"`
	DiscountFlatAmount string             `json:"discount_flat_amount,omitempty"`
	VATPercentage      string             `json:"vat_percentage,omitempty"`

	ApplyPreviousDueToTotal bool   `json:"apply_previous_due_to_total"`
	PreviousDue             string `json:"previous_due,omitempty"`
	IncentiveAmount         string `json:"incentive_amount,omitempty"`
}

// AddPaymentInput records one collected payment against an order.
type AddPaymentInput struct {
	Amount    string              `json:"amount" validate:"required"`
	Method    enums.PaymentMethod `json:"method" validate:"required,oneof=cash card bkash nagad bank_transfer"`
	Reference *string             `json:"reference,omitempty"`
}

// OrderFilters describe the inputs supported by the order list.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Query    string
}

// OrderSummary exposes the aggregated fields returned in the order list.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	CreatedAt   time.Time         `json:"created_at"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	PaidAmount  decimal.Decimal   `json:"paid_amount"`
	DueAmount   decimal.Decimal   `json:"due_amount"`
	TotalItems  int               `json:"total_items"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderResponse is the full order resource returned after mutations.
type OrderResponse struct {
	Order     *models.Order   `json:"order"`
	DueAmount decimal.Decimal `json:"due_amount"`
}
