package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRecomputeWorker(f *quoteFixture) (*RecomputeWorker, *testutil.MockWorkspaceRepository) {
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: testWorkspaceID, Name: "Atelier"})

	worker := NewRecomputeWorker(f.calculation, f.quoteRepo, workspaceRepo, zerolog.Nop(), RecomputeWorkerConfig{
		Interval: 50 * time.Millisecond,
	})
	return worker, workspaceRepo
}

func TestRecomputeWorker_NewRecomputeWorker_DefaultInterval(t *testing.T) {
	f := newQuoteFixture()
	worker := NewRecomputeWorker(f.calculation, f.quoteRepo, testutil.NewMockWorkspaceRepository(), zerolog.Nop(), RecomputeWorkerConfig{})

	assert.Equal(t, 24*time.Hour, worker.interval)
	assert.False(t, worker.IsRunning())
}

func TestRecomputeWorker_SweepWorkspace(t *testing.T) {
	f := newQuoteFixture()
	stale := f.seedQuote(t, domain.ContractTypeFixedPrice)
	fresh := f.seedQuote(t, domain.ContractTypeFixedPrice)
	f.quoteRepo.SetCachedTotal(stale.ID, decimal.NewFromInt(12))

	worker, _ := setupRecomputeWorker(f)

	result, err := worker.SweepWorkspace(testWorkspaceID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Repaired)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, "6200.00", domain.FormatMoney(f.quoteRepo.StoredTotal(stale.ID)))
	assert.Equal(t, "6200.00", domain.FormatMoney(f.quoteRepo.StoredTotal(fresh.ID)))

	again, err := worker.SweepWorkspace(testWorkspaceID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Repaired)
}

func TestRecomputeWorker_StartStop(t *testing.T) {
	f := newQuoteFixture()
	quote := f.seedQuote(t, domain.ContractTypeFixedPrice)
	f.quoteRepo.SetCachedTotal(quote.ID, decimal.Zero)

	worker, _ := setupRecomputeWorker(f)
	worker.Start(context.Background())
	assert.True(t, worker.IsRunning())

	assert.Eventually(t, func() bool {
		return worker.IsRunning() && !f.quoteRepo.StoredTotal(quote.ID).IsZero()
	}, time.Second, 10*time.Millisecond)

	worker.Stop()
	assert.False(t, worker.IsRunning())

	// stopping twice is a no-op
	worker.Stop()
}

func TestRecomputeWorker_StopsOnContextCancel(t *testing.T) {
	f := newQuoteFixture()
	worker, _ := setupRecomputeWorker(f)

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return !worker.IsRunning() }, time.Second, 10*time.Millisecond)
}
