package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AmountType tells how a milestone's due amount is expressed
type AmountType string

const (
	AmountTypePercent AmountType = "percent"
	AmountTypeFixed   AmountType = "fixed"
)

// IsValid reports whether t is a known amount type
func (t AmountType) IsValid() bool {
	return t == AmountTypePercent || t == AmountTypeFixed
}

var (
	ErrMilestoneNotFound           = errors.New("payment milestone not found")
	ErrMilestoneAmountTypeInvalid  = errors.New("amount type must be percent or fixed")
	ErrMilestonePercentInvalid     = errors.New("percent must be between 0 and 100")
	ErrMilestoneFixedAmountInvalid = errors.New("fixed amount must not be negative")
	ErrMilestoneBillingDateMissing = errors.New("billing date is required")
	ErrMilestoneLabelTooLong       = errors.New("milestone label exceeds maximum length")
)

// PaymentMilestone is one billing event of a quote's payment schedule
type PaymentMilestone struct {
	ID          int32            `json:"id"`
	QuoteID     int32            `json:"quoteId"`
	Label       *string          `json:"label,omitempty"`
	BillingDate time.Time        `json:"billingDate"`
	AmountType  AmountType       `json:"amountType"`
	Percent     *decimal.Decimal `json:"percent,omitempty"`
	FixedAmount *decimal.Decimal `json:"fixedAmount,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Validate checks a single milestone. Over-allocation across milestones is not an
// error here; it shows up in the quote's coverage check.
func (m *PaymentMilestone) Validate() error {
	if m.BillingDate.IsZero() {
		return ErrMilestoneBillingDateMissing
	}
	if m.Label != nil && len(*m.Label) > MaxNameLength {
		return ErrMilestoneLabelTooLong
	}
	switch m.AmountType {
	case AmountTypePercent:
		if m.Percent == nil || m.Percent.IsNegative() || m.Percent.GreaterThan(hundred) {
			return ErrMilestonePercentInvalid
		}
		if m.FixedAmount != nil {
			return ErrMilestoneFixedAmountInvalid
		}
	case AmountTypeFixed:
		if m.FixedAmount == nil || m.FixedAmount.IsNegative() {
			return ErrMilestoneFixedAmountInvalid
		}
		if m.Percent != nil {
			return ErrMilestonePercentInvalid
		}
	default:
		return ErrMilestoneAmountTypeInvalid
	}
	return nil
}

// ComputeAmount returns the amount due for this milestone given the quote's final total
func (m *PaymentMilestone) ComputeAmount(quoteFinalTotal decimal.Decimal) decimal.Decimal {
	switch m.AmountType {
	case AmountTypeFixed:
		return RoundMoney(valueOrZero(m.FixedAmount))
	case AmountTypePercent:
		return PercentOf(quoteFinalTotal, valueOrZero(m.Percent))
	}
	return decimal.Zero
}
