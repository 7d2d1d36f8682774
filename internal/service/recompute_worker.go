package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/rs/zerolog"
)

// RecomputeWorker periodically repairs quotes whose cached total drifted from
// the live aggregation of their sections
type RecomputeWorker struct {
	calculation   *QuoteCalculationService
	quoteRepo     domain.QuoteRepository
	workspaceRepo domain.WorkspaceRepository
	logger        zerolog.Logger
	interval      time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
	mu            sync.Mutex
	running       bool
}

// RecomputeWorkerConfig holds configuration for the recompute worker
type RecomputeWorkerConfig struct {
	Interval time.Duration
}

// DefaultRecomputeWorkerConfig runs the sweep nightly
func DefaultRecomputeWorkerConfig() RecomputeWorkerConfig {
	return RecomputeWorkerConfig{Interval: 24 * time.Hour}
}

// SweepResult counts what one sweep did
type SweepResult struct {
	Checked  int
	Repaired int
	Errors   int
}

// NewRecomputeWorker creates a new recompute worker
func NewRecomputeWorker(
	calculation *QuoteCalculationService,
	quoteRepo domain.QuoteRepository,
	workspaceRepo domain.WorkspaceRepository,
	logger zerolog.Logger,
	config RecomputeWorkerConfig,
) *RecomputeWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultRecomputeWorkerConfig().Interval
	}

	return &RecomputeWorker{
		calculation:   calculation,
		quoteRepo:     quoteRepo,
		workspaceRepo: workspaceRepo,
		logger:        logger.With().Str("component", "recompute_worker").Logger(),
		interval:      config.Interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the background sweep
func (w *RecomputeWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting recompute worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker and waits for the current sweep to end
func (w *RecomputeWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping recompute worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Recompute worker stopped")
}

func (w *RecomputeWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.sweepAllWorkspaces(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweepAllWorkspaces(ctx)
		}
	}
}

func (w *RecomputeWorker) sweepAllWorkspaces(ctx context.Context) {
	startTime := time.Now()

	workspaces, err := w.workspaceRepo.GetAllWorkspaces()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to get workspaces for recompute sweep")
		return
	}

	var total SweepResult
	for _, ws := range workspaces {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Context cancelled, stopping sweep")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("Stop signal received, stopping sweep")
			return
		default:
		}

		result, err := w.SweepWorkspace(ws.ID)
		if err != nil {
			w.logger.Error().Err(err).Int32("workspace_id", ws.ID).Msg("Failed to sweep workspace")
			total.Errors++
			continue
		}
		total.Checked += result.Checked
		total.Repaired += result.Repaired
		total.Errors += result.Errors
	}

	w.logger.Info().
		Int("workspaces", len(workspaces)).
		Int("checked", total.Checked).
		Int("repaired", total.Repaired).
		Int("errors", total.Errors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed recompute sweep")
}

// SweepWorkspace recomputes every quote of a workspace whose cached total is stale
func (w *RecomputeWorker) SweepWorkspace(workspaceID int32) (*SweepResult, error) {
	quotes, err := w.quoteRepo.GetAllByWorkspace(workspaceID, nil)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, header := range quotes {
		quote, err := w.calculation.LoadQuote(workspaceID, header.ID)
		if err != nil {
			w.logger.Warn().Err(err).Int32("quote_id", header.ID).Msg("Failed to load quote")
			result.Errors++
			continue
		}
		result.Checked++

		if !quote.IsTotalStale() {
			continue
		}

		stale := quote.TotalAmount
		if _, err := w.calculation.RecomputeAndStore(quote); err != nil {
			w.logger.Warn().Err(err).Int32("quote_id", quote.ID).Msg("Failed to store recomputed total")
			result.Errors++
			continue
		}
		result.Repaired++

		w.logger.Warn().
			Int32("workspace_id", workspaceID).
			Int32("quote_id", quote.ID).
			Str("cached_total", domain.FormatMoney(stale)).
			Str("live_total", domain.FormatMoney(quote.TotalAmount)).
			Msg("Repaired stale quote total")
	}
	return result, nil
}

// IsRunning returns whether the worker is currently running
func (w *RecomputeWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
