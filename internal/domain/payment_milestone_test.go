package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentMilestone_ComputeAmount(t *testing.T) {
	tests := []struct {
		name      string
		milestone PaymentMilestone
		final     string
		expected  string
	}{
		{"percent", PaymentMilestone{AmountType: AmountTypePercent, Percent: decPtr("60")}, "9500.00", "5700.00"},
		{"percent rounds half up", PaymentMilestone{AmountType: AmountTypePercent, Percent: decPtr("50")}, "0.05", "0.03"},
		{"percent truncates residue", PaymentMilestone{AmountType: AmountTypePercent, Percent: decPtr("33.33")}, "1000.01", "333.30"},
		{"fixed ignores total", PaymentMilestone{AmountType: AmountTypeFixed, FixedAmount: decPtr("1200.00")}, "500.00", "1200.00"},
		{"percent missing value", PaymentMilestone{AmountType: AmountTypePercent}, "500.00", "0.00"},
		{"unknown type", PaymentMilestone{AmountType: "installment", FixedAmount: decPtr("10")}, "500.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.milestone.ComputeAmount(dec(tt.final))
			assert.Equal(t, tt.expected, got.StringFixed(2))
		})
	}
}

func TestPaymentMilestone_Validate(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		milestone PaymentMilestone
		wantErr   error
	}{
		{"valid percent", PaymentMilestone{BillingDate: day, AmountType: AmountTypePercent, Percent: decPtr("30")}, nil},
		{"valid fixed", PaymentMilestone{BillingDate: day, AmountType: AmountTypeFixed, FixedAmount: decPtr("300")}, nil},
		{"missing date", PaymentMilestone{AmountType: AmountTypeFixed, FixedAmount: decPtr("300")}, ErrMilestoneBillingDateMissing},
		{"unknown type", PaymentMilestone{BillingDate: day, AmountType: "other"}, ErrMilestoneAmountTypeInvalid},
		{"percent over 100", PaymentMilestone{BillingDate: day, AmountType: AmountTypePercent, Percent: decPtr("101")}, ErrMilestonePercentInvalid},
		{"percent missing", PaymentMilestone{BillingDate: day, AmountType: AmountTypePercent}, ErrMilestonePercentInvalid},
		{"fixed negative", PaymentMilestone{BillingDate: day, AmountType: AmountTypeFixed, FixedAmount: decPtr("-5")}, ErrMilestoneFixedAmountInvalid},
		{"fixed with percent", PaymentMilestone{BillingDate: day, AmountType: AmountTypeFixed, FixedAmount: decPtr("5"), Percent: decPtr("5")}, ErrMilestonePercentInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.milestone.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
