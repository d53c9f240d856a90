package enums

import (
	"fmt"
	"strings"
)

// PaymentPurpose classifies what a gateway payment pays for. It is resolved
// once when the customer order id is ingested; the legacy id convention
// ("SUB-..." / "SMS-...") is parsed only at that boundary.
type PaymentPurpose string

const (
	PaymentPurposeSubscription PaymentPurpose = "subscription"
	PaymentPurposeSMSPackage   PaymentPurpose = "sms_package"
	PaymentPurposeUnknown      PaymentPurpose = "unknown"
)

var validPaymentPurposes = []PaymentPurpose{
	PaymentPurposeSubscription,
	PaymentPurposeSMSPackage,
	PaymentPurposeUnknown,
}

// String implements fmt.Stringer.
func (p PaymentPurpose) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentPurpose.
func (p PaymentPurpose) IsValid() bool {
	for _, candidate := range validPaymentPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPurpose converts raw input into a PaymentPurpose.
func ParsePaymentPurpose(value string) (PaymentPurpose, error) {
	for _, candidate := range validPaymentPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment purpose %q", value)
}

// PurposeFromCustomerOrderID resolves the purpose embedded in a merchant
// customer order id. Ids issued historically carry a "SUB-" or "SMS-" prefix;
// anything else is unknown.
func PurposeFromCustomerOrderID(customerOrderID string) PaymentPurpose {
	switch {
	case strings.HasPrefix(customerOrderID, "SUB-"):
		return PaymentPurposeSubscription
	case strings.HasPrefix(customerOrderID, "SMS-"):
		return PaymentPurposeSMSPackage
	default:
		return PaymentPurposeUnknown
	}
}
