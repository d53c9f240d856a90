package payments

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

// PurposeRef is the purchasable reference embedded in a customer order id.
type PurposeRef struct {
	Purpose  enums.PaymentPurpose
	RefID    int64
	Quantity int64
}

// NewCustomerOrderID mints a customer order id carrying the purpose prefix, the
// plan or package id, an optional quantity, and a timestamp segment that keeps
// repeat purchases distinct.
func NewCustomerOrderID(purpose enums.PaymentPurpose, refID, quantity int64, now time.Time) string {
	switch purpose {
	case enums.PaymentPurposeSubscription:
		return fmt.Sprintf("SUB-%d-%d", refID, now.Unix())
	case enums.PaymentPurposeSMSPackage:
		if quantity > 1 {
			return fmt.Sprintf("SMS-%d-Q%d-%d", refID, quantity, now.Unix())
		}
		return fmt.Sprintf("SMS-%d-%d", refID, now.Unix())
	default:
		return fmt.Sprintf("PAY-%d", now.UnixNano())
	}
}

// ParsePurposeRef extracts the plan/package reference from a customer order
// id. The format is prefix, reference id, then optional segments: a quantity
// segment written as Q<n> and a timestamp. Legacy ids without the timestamp
// segment ("SMS-3-Q2") parse the same way; unrecognized trailing segments are
// ignored.
func ParsePurposeRef(customerOrderID string) (PurposeRef, error) {
	ref := PurposeRef{
		Purpose:  enums.PurposeFromCustomerOrderID(customerOrderID),
		Quantity: 1,
	}
	if ref.Purpose == enums.PaymentPurposeUnknown {
		return ref, fmt.Errorf("no purpose prefix in order id %q", customerOrderID)
	}

	parts := strings.Split(customerOrderID, "-")
	if len(parts) < 2 || parts[1] == "" {
		return ref, fmt.Errorf("missing reference id in order id %q", customerOrderID)
	}
	refID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ref, fmt.Errorf("invalid reference id %q in order id %q", parts[1], customerOrderID)
	}
	ref.RefID = refID

	for _, part := range parts[2:] {
		if len(part) > 1 && (part[0] == 'Q' || part[0] == 'q') {
			if qty, err := strconv.ParseInt(part[1:], 10, 64); err == nil && qty > 0 {
				ref.Quantity = qty
			}
		}
	}
	return ref, nil
}
