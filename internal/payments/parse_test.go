package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakibulbd/karobar-backend/pkg/enums"
)

func TestParsePurposeRef(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		want    PurposeRef
		wantErr bool
	}{
		{
			name:    "subscription with timestamp",
			orderID: "SUB-2-1750000000",
			want:    PurposeRef{Purpose: enums.PaymentPurposeSubscription, RefID: 2, Quantity: 1},
		},
		{
			name:    "legacy sms with quantity and no timestamp",
			orderID: "SMS-3-Q2",
			want:    PurposeRef{Purpose: enums.PaymentPurposeSMSPackage, RefID: 3, Quantity: 2},
		},
		{
			name:    "sms with quantity and timestamp",
			orderID: "SMS-3-Q2-1750000000",
			want:    PurposeRef{Purpose: enums.PaymentPurposeSMSPackage, RefID: 3, Quantity: 2},
		},
		{
			name:    "sms without quantity defaults to one",
			orderID: "SMS-7-1750000000",
			want:    PurposeRef{Purpose: enums.PaymentPurposeSMSPackage, RefID: 7, Quantity: 1},
		},
		{
			name:    "no recognized prefix",
			orderID: "ORD202506150001",
			wantErr: true,
		},
		{
			name:    "missing reference id",
			orderID: "SUB-",
			wantErr: true,
		},
		{
			name:    "non numeric reference id",
			orderID: "SUB-abc-123",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePurposeRef(tc.orderID)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewCustomerOrderIDRoundTrips(t *testing.T) {
	now := time.Unix(1750000000, 0)

	sub := NewCustomerOrderID(enums.PaymentPurposeSubscription, 2, 1, now)
	assert.Equal(t, "SUB-2-1750000000", sub)
	parsed, err := ParsePurposeRef(sub)
	require.NoError(t, err)
	assert.EqualValues(t, 2, parsed.RefID)

	sms := NewCustomerOrderID(enums.PaymentPurposeSMSPackage, 3, 2, now)
	assert.Equal(t, "SMS-3-Q2-1750000000", sms)
	parsed, err = ParsePurposeRef(sms)
	require.NoError(t, err)
	assert.EqualValues(t, 3, parsed.RefID)
	assert.EqualValues(t, 2, parsed.Quantity)
}
