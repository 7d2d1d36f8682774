package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidDecimal is returned when a decimal string cannot be parsed
var ErrInvalidDecimal = errors.New("invalid decimal value")

const (
	// MoneyScale is the scale of every currency amount
	MoneyScale int32 = 2
	// RateScale is the scale of intermediate rates and ratios
	RateScale int32 = 4
)

var (
	hundred = decimal.NewFromInt(100)

	// FallbackCostRatio is applied to a profile's default daily rate when it has no cost rate
	FallbackCostRatio = decimal.RequireFromString("0.7")
)

// RoundMoney rounds to MoneyScale, half away from zero
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// PercentOf returns amount × (percent / 100) rounded to MoneyScale
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(percent).Div(hundred))
}

// ParseDecimal parses a decimal string. Empty strings are rejected.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidDecimal
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidDecimal
	}
	return d, nil
}

// ParseOptionalDecimal parses a pointer to a decimal string.
// nil and blank strings yield nil.
func ParseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := ParseDecimal(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FormatMoney formats an amount with exactly MoneyScale digits
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// FormatOptionalMoney formats an optional amount; nil stays nil
func FormatOptionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(MoneyScale)
	return &s
}

// valueOrZero dereferences an optional decimal
func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
