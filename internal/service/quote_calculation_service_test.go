package service

import (
	"errors"
	"testing"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteCalculationService_ComputeTotals(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)
	quote = f.addPercentMilestones(t, quote.ID, "30", "70")

	totals := f.calculation.ComputeTotals(quote)

	assert.Equal(t, "6200.00", domain.FormatMoney(totals.SectionsTotal))
	assert.Equal(t, "5000.00", domain.FormatMoney(totals.ServiceSubtotal))
	assert.Equal(t, "1200.00", domain.FormatMoney(totals.PurchaseSubtotal))
	assert.Equal(t, "620.00", domain.FormatMoney(totals.ContingencyAmount))
	assert.Equal(t, "5580.00", domain.FormatMoney(totals.FinalAmount))
	assert.Equal(t, "5580.00", domain.FormatMoney(totals.ScheduledTotal))
	assert.True(t, totals.ScheduleCovered)
}

func TestQuoteCalculationService_ComputeTotals_Idempotent(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)

	first := f.calculation.ComputeTotals(quote)
	second := f.calculation.ComputeTotals(quote)

	assert.True(t, first.FinalAmount.Equal(second.FinalAmount))
	assert.True(t, first.SectionsTotal.Equal(second.SectionsTotal))
	assert.Equal(t, first.ScheduleCovered, second.ScheduleCovered)
}

func TestQuoteCalculationService_Breakdown(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)

	b, err := f.calculation.GetBreakdown(testWorkspaceID, quote.ID)
	require.NoError(t, err)

	require.Len(t, b.Sections, 1)
	require.Len(t, b.Sections[0].Lines, 2)
	assert.Equal(t, "6200.00", domain.FormatMoney(b.Sections[0].TotalAmount))
	assert.Equal(t, "10", b.Sections[0].TotalSoldDays.String())

	service := b.Sections[0].Lines[0]
	assert.Equal(t, "5200.00", domain.FormatMoney(service.TotalAmount))
	assert.Equal(t, "5000.00", domain.FormatMoney(service.ServiceOnlyAmount))
	assert.Equal(t, "3000.00", domain.FormatMoney(service.EstimatedCost))
	assert.Equal(t, "2000.00", domain.FormatMoney(service.GrossMargin))
	assert.Equal(t, "40.00", domain.FormatMoney(service.MarginRate))
	assert.Equal(t, "1040.00", domain.FormatMoney(service.VATAmount))

	purchase := b.Sections[0].Lines[1]
	assert.True(t, purchase.EstimatedCost.IsZero())
	assert.True(t, purchase.MarginRate.IsZero())

	assert.Equal(t, "1040.00", domain.FormatMoney(b.VATTotal))
	assert.Equal(t, "3000.00", domain.FormatMoney(b.Profitability.EstimatedCost))
	assert.Equal(t, "2000.00", domain.FormatMoney(b.Profitability.GrossMargin))
	assert.Equal(t, "40.00", domain.FormatMoney(b.Profitability.MarginRate))
	assert.False(t, b.TotalStale)
}

func TestQuoteCalculationService_Breakdown_FallbackCost(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)

	// without an explicit cost rate the cost is 70% of the default daily rate
	f.developer.CostPerDay = nil

	b, err := f.calculation.GetBreakdown(testWorkspaceID, quote.ID)
	require.NoError(t, err)

	assert.Equal(t, "3500.00", domain.FormatMoney(b.Profitability.EstimatedCost))
	assert.Equal(t, "30.00", domain.FormatMoney(b.Profitability.MarginRate))
}

func TestQuoteCalculationService_ScheduleResidue(t *testing.T) {
	f := newQuoteFixture()
	quote, err := f.quotes.CreateQuote(testWorkspaceID, CreateQuoteInput{Name: "Odd cents", ContractType: domain.ContractTypeFixedPrice})
	require.NoError(t, err)
	quote, err = f.quotes.AddSection(testWorkspaceID, quote.ID, AddSectionInput{Title: "Flat"})
	require.NoError(t, err)
	_, err = f.quotes.AddLine(testWorkspaceID, quote.ID, quote.Sections[0].ID, LineInput{
		Description:  "Audit",
		Kind:         domain.LineKindFixedAmount,
		DirectAmount: decp("1000.01"),
	})
	require.NoError(t, err)
	f.addPercentMilestones(t, quote.ID, "50", "50")

	b, err := f.calculation.GetBreakdown(testWorkspaceID, quote.ID)
	require.NoError(t, err)

	require.Len(t, b.Schedule, 2)
	assert.Equal(t, "500.01", domain.FormatMoney(b.Schedule[0].Amount))
	assert.Equal(t, "500.00", domain.FormatMoney(b.Schedule[1].Amount))
	assert.Equal(t, "-0.01", domain.FormatMoney(b.Schedule[1].Residue))
	assert.True(t, b.Totals.ScheduleCovered)
}

func TestQuoteCalculationService_Recompute_RepairsDrift(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)
	f.quoteRepo.SetCachedTotal(quote.ID, *decp("1"))

	b, err := f.calculation.GetBreakdown(testWorkspaceID, quote.ID)
	require.NoError(t, err)
	assert.True(t, b.TotalStale)

	recomputed, err := f.calculation.Recompute(testWorkspaceID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "6200.00", domain.FormatMoney(recomputed.TotalAmount))
	assert.Equal(t, "6200.00", domain.FormatMoney(f.quoteRepo.StoredTotal(quote.ID)))
}

func TestQuoteCalculationService_RecomputeAndStore_Error(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)
	f.quoteRepo.UpdateTotalErr = errors.New("connection reset")

	_, err := f.calculation.Recompute(testWorkspaceID, quote.ID)
	assert.ErrorContains(t, err, "connection reset")
}

func TestQuoteCalculationService_GetTotals_NotFound(t *testing.T) {
	f := newQuoteFixture()

	_, _, err := f.calculation.GetTotals(testWorkspaceID, 404)
	assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
}
