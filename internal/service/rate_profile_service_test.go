package service

import (
	"testing"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateProfileService_CreateProfile(t *testing.T) {
	repo := testutil.NewMockRateProfileRepository()
	publisher := testutil.NewMockEventPublisher()
	svc := NewRateProfileService(repo)
	svc.SetEventPublisher(publisher)

	profile, err := svc.CreateProfile(testWorkspaceID, RateProfileInput{
		Name:             " Project manager ",
		DefaultDailyRate: decp("700"),
		CostPerDay:       decp("420"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Project manager", profile.Name)
	assert.Equal(t, testWorkspaceID, profile.WorkspaceID)
	assert.True(t, profile.MarginCoefficient.Equal(domain.DefaultMarginCoefficient))
	assert.Equal(t, []string{"rate_profile.created"}, publisher.Types())
}

func TestRateProfileService_CreateProfile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   RateProfileInput
		wantErr error
	}{
		{"empty name", RateProfileInput{Name: ""}, domain.ErrNameRequired},
		{"negative rate", RateProfileInput{Name: "Dev", DefaultDailyRate: decp("-1")}, domain.ErrRateProfileRateNegative},
		{"negative cost", RateProfileInput{Name: "Dev", CostPerDay: decp("-0.01")}, domain.ErrRateProfileRateNegative},
		{"zero coefficient", RateProfileInput{Name: "Dev", MarginCoefficient: decp("0")}, domain.ErrRateProfileCoefficientInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRateProfileService(testutil.NewMockRateProfileRepository())
			_, err := svc.CreateProfile(testWorkspaceID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRateProfileService_UpdateProfile(t *testing.T) {
	repo := testutil.NewMockRateProfileRepository()
	svc := NewRateProfileService(repo)

	created, err := svc.CreateProfile(testWorkspaceID, RateProfileInput{Name: "Designer", DefaultDailyRate: decp("550")})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(testWorkspaceID, created.ID, RateProfileInput{
		Name:              "Senior designer",
		DefaultDailyRate:  decp("650"),
		MarginCoefficient: decp("1.15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Senior designer", updated.Name)
	assert.Equal(t, "1.15", updated.MarginCoefficient.String())

	_, err = svc.UpdateProfile(2, created.ID, RateProfileInput{Name: "Other tenant"})
	assert.ErrorIs(t, err, domain.ErrRateProfileNotFound)
}

func TestRateProfileService_GetProfiles(t *testing.T) {
	repo := testutil.NewMockRateProfileRepository()
	svc := NewRateProfileService(repo)

	for _, name := range []string{"QA", "Architect"} {
		_, err := svc.CreateProfile(testWorkspaceID, RateProfileInput{Name: name})
		require.NoError(t, err)
	}
	_, err := svc.CreateProfile(2, RateProfileInput{Name: "Elsewhere"})
	require.NoError(t, err)

	profiles, err := svc.GetProfiles(testWorkspaceID)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Architect", profiles[0].Name)
}

func TestRateProfileService_ReferencedProfileIsFrozen(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeTimeAndMaterials)
	_, err := f.workflow.ChangeStatus(testWorkspaceID, quote.ID, domain.QuoteStatusSigned)
	require.NoError(t, err)

	before, err := f.calculation.GetBreakdown(testWorkspaceID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "3000.00", domain.FormatMoney(before.Profitability.EstimatedCost))
	assert.Equal(t, "2000.00", domain.FormatMoney(before.Profitability.GrossMargin))

	profiles := NewRateProfileService(f.profileRepo)
	_, err = profiles.UpdateProfile(testWorkspaceID, f.developer.ID, RateProfileInput{
		Name:             "Developer",
		DefaultDailyRate: decp("500"),
		CostPerDay:       decp("450"),
	})
	assert.ErrorIs(t, err, domain.ErrRateProfileInUse)
	assert.Equal(t, "300", f.profileRepo.Profiles[f.developer.ID].CostPerDay.String())

	after, err := f.calculation.GetBreakdown(testWorkspaceID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "3000.00", domain.FormatMoney(after.Profitability.EstimatedCost))
	assert.Equal(t, "2000.00", domain.FormatMoney(after.Profitability.GrossMargin))
	assert.Equal(t, "6200.00", domain.FormatMoney(after.Quote.TotalFromSections()))
}
