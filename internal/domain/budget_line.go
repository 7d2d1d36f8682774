package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LineKind determines how a budget line computes its amount
type LineKind string

const (
	LineKindService     LineKind = "service"
	LineKindPurchase    LineKind = "purchase"
	LineKindFixedAmount LineKind = "fixed_amount"
)

// IsValid reports whether k is a known line kind
func (k LineKind) IsValid() bool {
	switch k {
	case LineKindService, LineKindPurchase, LineKindFixedAmount:
		return true
	}
	return false
}

// HoursPerDay converts sold days into task hours
var HoursPerDay = decimal.NewFromInt(8)

var (
	ErrLineNotFound             = errors.New("budget line not found")
	ErrLineKindInvalid          = errors.New("line kind must be service, purchase or fixed_amount")
	ErrLineDescriptionTooLong   = errors.New("line description exceeds maximum length")
	ErrLineNegativeValue        = errors.New("line amounts, rates and days cannot be negative")
	ErrLineDirectAmountRequired = errors.New("purchase and fixed amount lines require a direct amount")
	ErrLineServiceFieldsOnly    = errors.New("profile, daily rate, days and attached purchase only apply to service lines")
	ErrLineDirectAmountOnly     = errors.New("direct amount does not apply to service lines")
	ErrLineVATRateInvalid       = errors.New("VAT rate must be between 0 and 100")
)

// BudgetLine is one billable or purchased item of a quote section.
// Arithmetic methods never fail: a line being edited with missing inputs computes to zero.
type BudgetLine struct {
	ID                     int32            `json:"id"`
	SectionID              int32            `json:"sectionId"`
	Description            string           `json:"description"`
	Position               int32            `json:"position"`
	Kind                   LineKind         `json:"kind"`
	ProfileID              *int32           `json:"profileId,omitempty"`
	AssigneeID             *int32           `json:"assigneeId,omitempty"`
	DailyRate              *decimal.Decimal `json:"dailyRate,omitempty"`
	Days                   *decimal.Decimal `json:"days,omitempty"`
	DirectAmount           *decimal.Decimal `json:"directAmount,omitempty"`
	AttachedPurchaseAmount *decimal.Decimal `json:"attachedPurchaseAmount,omitempty"`
	VATRate                *decimal.Decimal `json:"vatRate,omitempty"`
	CreatedAt              time.Time        `json:"createdAt"`
	UpdatedAt              time.Time        `json:"updatedAt"`

	// Profile is the resolved RateProfile for ProfileID, loaded by the repository layer
	Profile *RateProfile `json:"-"`
}

// Validate checks the caller contract of a line before it is persisted
func (l *BudgetLine) Validate() error {
	if !l.Kind.IsValid() {
		return ErrLineKindInvalid
	}
	if len(l.Description) > MaxDescriptionLength {
		return ErrLineDescriptionTooLong
	}
	for _, d := range []*decimal.Decimal{l.DailyRate, l.Days, l.DirectAmount, l.AttachedPurchaseAmount} {
		if d != nil && d.IsNegative() {
			return ErrLineNegativeValue
		}
	}
	if l.VATRate != nil && (l.VATRate.IsNegative() || l.VATRate.GreaterThan(hundred)) {
		return ErrLineVATRateInvalid
	}

	if l.Kind == LineKindService {
		if l.DirectAmount != nil {
			return ErrLineDirectAmountOnly
		}
		return nil
	}

	if l.ProfileID != nil || l.DailyRate != nil || l.Days != nil || l.AttachedPurchaseAmount != nil {
		return ErrLineServiceFieldsOnly
	}
	if l.DirectAmount == nil {
		return ErrLineDirectAmountRequired
	}
	return nil
}

// isPricedService reports whether a service line has everything needed to be priced
func (l *BudgetLine) isPricedService() bool {
	return l.Kind == LineKindService && l.ProfileID != nil && l.DailyRate != nil && l.Days != nil
}

// TotalAmount returns the amount the line contributes to its section
func (l *BudgetLine) TotalAmount() decimal.Decimal {
	switch l.Kind {
	case LineKindService:
		if !l.isPricedService() {
			return decimal.Zero
		}
		return RoundMoney(l.DailyRate.Mul(*l.Days).Add(valueOrZero(l.AttachedPurchaseAmount)))
	case LineKindPurchase, LineKindFixedAmount:
		return RoundMoney(valueOrZero(l.DirectAmount))
	}
	return decimal.Zero
}

// ServiceOnlyAmount returns dailyRate × days, excluding any attached purchase
func (l *BudgetLine) ServiceOnlyAmount() decimal.Decimal {
	if !l.isPricedService() {
		return decimal.Zero
	}
	return RoundMoney(l.DailyRate.Mul(*l.Days))
}

// PurchaseAmount returns the purchase-bearing part of the line total
func (l *BudgetLine) PurchaseAmount() decimal.Decimal {
	switch l.Kind {
	case LineKindService:
		if !l.isPricedService() {
			return decimal.Zero
		}
		return RoundMoney(valueOrZero(l.AttachedPurchaseAmount))
	case LineKindPurchase, LineKindFixedAmount:
		return RoundMoney(valueOrZero(l.DirectAmount))
	}
	return decimal.Zero
}

// IsCountableForProfitability is false for purchases, which are passed through at cost
func (l *BudgetLine) IsCountableForProfitability() bool {
	return l.Kind != LineKindPurchase
}

// EstimatedCost estimates what delivering the sold days costs the agency.
// A line that cannot be priced costs nothing either.
func (l *BudgetLine) EstimatedCost() decimal.Decimal {
	if !l.isPricedService() || l.Profile == nil {
		return decimal.Zero
	}
	dailyCost, ok := l.Profile.DailyCost()
	if !ok {
		return decimal.Zero
	}
	return RoundMoney(l.Days.Mul(dailyCost))
}

// GrossMargin returns ServiceOnlyAmount minus EstimatedCost
func (l *BudgetLine) GrossMargin() decimal.Decimal {
	if l.Kind != LineKindService {
		return decimal.Zero
	}
	return l.ServiceOnlyAmount().Sub(l.EstimatedCost())
}

// MarginRate returns the gross margin as a percentage of the service amount
func (l *BudgetLine) MarginRate() decimal.Decimal {
	return marginRate(l.GrossMargin(), l.ServiceOnlyAmount())
}

// VATAmount returns the informational VAT on the line total
func (l *BudgetLine) VATAmount() decimal.Decimal {
	if l.VATRate == nil {
		return decimal.Zero
	}
	return PercentOf(l.TotalAmount(), *l.VATRate)
}

// DeriveTask builds the execution task for a service line.
// ok is false for non-service lines and for lines without a profile or days.
// The task is not persisted here.
func (l *BudgetLine) DeriveTask(quoteID int32) (task *ExecutionTask, ok bool) {
	if l.Kind != LineKindService || l.ProfileID == nil || l.Days == nil {
		return nil, false
	}
	return &ExecutionTask{
		DerivationKey:  TaskDerivationKey(quoteID, l.ID),
		QuoteID:        quoteID,
		LineID:         l.ID,
		Description:    l.Description,
		AssigneeID:     l.AssigneeID,
		ProfileID:      *l.ProfileID,
		EstimatedHours: l.Days.Mul(HoursPerDay),
		DailyRate:      valueOrZero(l.DailyRate),
	}, true
}

// marginRate returns margin / base × 100, using a RateScale ratio rounded to MoneyScale
func marginRate(margin, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	ratio := margin.DivRound(base, RateScale)
	return RoundMoney(ratio.Mul(hundred))
}
