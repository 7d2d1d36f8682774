package service

import (
	"testing"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.QuoteStatus
		want     bool
	}{
		{domain.QuoteStatusToSign, domain.QuoteStatusWon, true},
		{domain.QuoteStatusToSign, domain.QuoteStatusSigned, true},
		{domain.QuoteStatusToSign, domain.QuoteStatusLost, true},
		{domain.QuoteStatusToSign, domain.QuoteStatusStandby, true},
		{domain.QuoteStatusToSign, domain.QuoteStatusAbandoned, true},
		{domain.QuoteStatusToSign, domain.QuoteStatusCompleted, false},
		{domain.QuoteStatusStandby, domain.QuoteStatusToSign, true},
		{domain.QuoteStatusStandby, domain.QuoteStatusWon, false},
		{domain.QuoteStatusWon, domain.QuoteStatusSigned, true},
		{domain.QuoteStatusWon, domain.QuoteStatusCompleted, true},
		{domain.QuoteStatusWon, domain.QuoteStatusToSign, false},
		{domain.QuoteStatusSigned, domain.QuoteStatusCompleted, true},
		{domain.QuoteStatusSigned, domain.QuoteStatusWon, false},
		{domain.QuoteStatusLost, domain.QuoteStatusToSign, false},
		{domain.QuoteStatusCompleted, domain.QuoteStatusSigned, false},
		{domain.QuoteStatusAbandoned, domain.QuoteStatusStandby, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestAllowedTransitions_Terminal(t *testing.T) {
	for _, s := range []domain.QuoteStatus{domain.QuoteStatusLost, domain.QuoteStatusCompleted, domain.QuoteStatusAbandoned} {
		assert.Empty(t, AllowedTransitions(s), s)
	}
}

func TestQuoteWorkflowService_ChangeStatus(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)
	f.addPercentMilestones(t, quote.ID, "40", "60")

	signed, err := f.workflow.ChangeStatus(testWorkspaceID, quote.ID, domain.QuoteStatusSigned)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusSigned, signed.Status)

	stored, err := f.quotes.GetQuote(testWorkspaceID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusSigned, stored.Status)

	types := f.publisher.Types()
	assert.Equal(t, "quote.status_changed", types[len(types)-1])
}

func TestQuoteWorkflowService_ChangeStatus_CoverageGate(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)
	f.addPercentMilestones(t, quote.ID, "40", "50")

	_, err := f.workflow.ChangeStatus(testWorkspaceID, quote.ID, domain.QuoteStatusWon)
	assert.ErrorIs(t, err, domain.ErrScheduleNotCovered)

	stored, err := f.quotes.GetQuote(testWorkspaceID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusToSign, stored.Status)

	// losing a quote does not need a covering schedule
	_, err = f.workflow.ChangeStatus(testWorkspaceID, quote.ID, domain.QuoteStatusLost)
	assert.NoError(t, err)
}

func TestQuoteWorkflowService_ChangeStatus_TimeAndMaterialsSkipsGate(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeTimeAndMaterials)

	won, err := f.workflow.ChangeStatus(testWorkspaceID, quote.ID, domain.QuoteStatusWon)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusWon, won.Status)
}

func TestQuoteWorkflowService_ChangeStatus_Rejected(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeTimeAndMaterials)

	_, err := f.workflow.ChangeStatus(testWorkspaceID, quote.ID, domain.QuoteStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = f.workflow.ChangeStatus(testWorkspaceID, quote.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrQuoteStatusInvalid)

	_, err = f.workflow.ChangeStatus(testWorkspaceID, 999, domain.QuoteStatusWon)
	assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
}
