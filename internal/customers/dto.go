package customers

import "github.com/shopspring/decimal"

// CreateCustomerInput holds the fields accepted when registering a customer.
type CreateCustomerInput struct {
	Name        string           `json:"name" validate:"required,min=1,max=160"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email"`
	PreviousDue *decimal.Decimal `json:"previous_due,omitempty"`
}

// UpdateCustomerInput carries partial updates; nil fields are left untouched.
type UpdateCustomerInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=160"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// ListCustomersInput filters and pages the customer directory.
type ListCustomersInput struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}
