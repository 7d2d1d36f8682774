package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrRateProfileNotFound           = errors.New("rate profile not found")
	ErrRateProfileRateNegative       = errors.New("rates cannot be negative")
	ErrRateProfileCoefficientInvalid = errors.New("margin coefficient must be positive")
	ErrRateProfileInUse              = errors.New("rate profile is referenced by budget lines and cannot be changed")
)

// DefaultMarginCoefficient is used when a profile is created without a coefficient
var DefaultMarginCoefficient = decimal.NewFromInt(1)

// RateProfile is a role sold by the agency (developer, project manager, ...).
// CostPerDay is the daily cost to the company (CJM).
// Profiles are not versioned, so a profile is frozen once a budget line references it;
// a new rate means a new profile.
type RateProfile struct {
	ID                int32            `json:"id"`
	WorkspaceID       int32            `json:"workspaceId"`
	Name              string           `json:"name"`
	DefaultDailyRate  *decimal.Decimal `json:"defaultDailyRate,omitempty"`
	CostPerDay        *decimal.Decimal `json:"costPerDay,omitempty"`
	MarginCoefficient decimal.Decimal  `json:"marginCoefficient"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func (p *RateProfile) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if p.DefaultDailyRate != nil && p.DefaultDailyRate.IsNegative() {
		return ErrRateProfileRateNegative
	}
	if p.CostPerDay != nil && p.CostPerDay.IsNegative() {
		return ErrRateProfileRateNegative
	}
	if !p.MarginCoefficient.IsPositive() {
		return ErrRateProfileCoefficientInvalid
	}
	return nil
}

// DailyCost returns the daily cost used for margin estimation.
// An explicit cost rate wins (costPerDay × marginCoefficient); otherwise 70% of the
// default daily rate is assumed. ok is false when neither is available.
func (p *RateProfile) DailyCost() (cost decimal.Decimal, ok bool) {
	if p.CostPerDay != nil {
		return p.CostPerDay.Mul(p.MarginCoefficient), true
	}
	if p.DefaultDailyRate != nil {
		return p.DefaultDailyRate.Mul(FallbackCostRatio), true
	}
	return decimal.Zero, false
}

type RateProfileRepository interface {
	Create(profile *RateProfile) (*RateProfile, error)
	GetByID(workspaceID int32, id int32) (*RateProfile, error)
	GetByIDs(workspaceID int32, ids []int32) (map[int32]*RateProfile, error)
	GetAllByWorkspace(workspaceID int32) ([]*RateProfile, error)
	Update(profile *RateProfile) (*RateProfile, error)
	IsReferenced(workspaceID int32, id int32) (bool, error)
}
