package service

import (
	"fmt"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// QuoteCalculationService derives quote totals and keeps the cached quote total in sync
type QuoteCalculationService struct {
	quoteRepo   domain.QuoteRepository
	profileRepo domain.RateProfileRepository
}

// NewQuoteCalculationService creates a new QuoteCalculationService
func NewQuoteCalculationService(quoteRepo domain.QuoteRepository, profileRepo domain.RateProfileRepository) *QuoteCalculationService {
	return &QuoteCalculationService{
		quoteRepo:   quoteRepo,
		profileRepo: profileRepo,
	}
}

// QuoteTotals is the consolidated money breakdown of a quote
type QuoteTotals struct {
	SectionsTotal     decimal.Decimal
	ServiceSubtotal   decimal.Decimal
	PurchaseSubtotal  decimal.Decimal
	ContingencyAmount decimal.Decimal
	FinalAmount       decimal.Decimal
	ScheduledTotal    decimal.Decimal
	ScheduleCovered   bool
}

// LineFigures holds the computed amounts of one budget line
type LineFigures struct {
	Line              *domain.BudgetLine
	TotalAmount       decimal.Decimal
	ServiceOnlyAmount decimal.Decimal
	PurchaseAmount    decimal.Decimal
	EstimatedCost     decimal.Decimal
	GrossMargin       decimal.Decimal
	MarginRate        decimal.Decimal
	VATAmount         decimal.Decimal
}

// SectionFigures holds the computed amounts of one section and its lines in display order
type SectionFigures struct {
	Section       *domain.BudgetSection
	TotalAmount   decimal.Decimal
	TotalSoldDays decimal.Decimal
	Lines         []LineFigures
}

// Profitability summarizes the estimated margin of a quote
type Profitability struct {
	TotalSoldDays decimal.Decimal
	EstimatedCost decimal.Decimal
	GrossMargin   decimal.Decimal
	MarginRate    decimal.Decimal
}

// QuoteBreakdown is everything a presentation layer needs to render a quote
type QuoteBreakdown struct {
	Quote         *domain.Quote
	Totals        QuoteTotals
	Sections      []SectionFigures
	Schedule      []domain.ScheduledMilestone
	Profitability Profitability
	VATTotal      decimal.Decimal
	TotalStale    bool
}

// ComputeTotals aggregates the quote without side effects.
// Calling it twice on an unmodified quote yields identical results.
func (s *QuoteCalculationService) ComputeTotals(quote *domain.Quote) QuoteTotals {
	serviceSubtotal := decimal.Zero
	purchaseSubtotal := decimal.Zero
	for _, line := range quote.Lines() {
		serviceSubtotal = serviceSubtotal.Add(line.ServiceOnlyAmount())
		purchaseSubtotal = purchaseSubtotal.Add(line.PurchaseAmount())
	}

	sectionsTotal := quote.TotalFromSections()
	covered, scheduled := quote.ValidatePaymentScheduleCoverage()

	return QuoteTotals{
		SectionsTotal:     sectionsTotal,
		ServiceSubtotal:   domain.RoundMoney(serviceSubtotal),
		PurchaseSubtotal:  domain.RoundMoney(purchaseSubtotal),
		ContingencyAmount: quote.ContingencyAmount(sectionsTotal),
		FinalAmount:       quote.FinalAmount(),
		ScheduledTotal:    scheduled,
		ScheduleCovered:   covered,
	}
}

// Breakdown computes the totals along with per-section, per-line and schedule figures
func (s *QuoteCalculationService) Breakdown(quote *domain.Quote) *QuoteBreakdown {
	breakdown := &QuoteBreakdown{
		Quote:      quote,
		Totals:     s.ComputeTotals(quote),
		Schedule:   quote.ScheduledAmounts(),
		TotalStale: quote.IsTotalStale(),
		Profitability: Profitability{
			TotalSoldDays: quote.TotalSoldDays(),
			EstimatedCost: quote.EstimatedCost(),
			GrossMargin:   quote.GrossMargin(),
			MarginRate:    quote.MarginRate(),
		},
	}

	vatTotal := decimal.Zero
	for _, section := range quote.SortedSections() {
		figures := SectionFigures{
			Section:       section,
			TotalAmount:   section.TotalAmount(),
			TotalSoldDays: section.TotalSoldDays(),
		}
		for _, line := range section.SortedLines() {
			lf := LineFigures{
				Line:              line,
				TotalAmount:       line.TotalAmount(),
				ServiceOnlyAmount: line.ServiceOnlyAmount(),
				PurchaseAmount:    line.PurchaseAmount(),
				EstimatedCost:     line.EstimatedCost(),
				GrossMargin:       line.GrossMargin(),
				MarginRate:        line.MarginRate(),
				VATAmount:         line.VATAmount(),
			}
			vatTotal = vatTotal.Add(lf.VATAmount)
			figures.Lines = append(figures.Lines, lf)
		}
		breakdown.Sections = append(breakdown.Sections, figures)
	}
	breakdown.VATTotal = vatTotal

	return breakdown
}

// RecomputeAndStore refreshes the cached total of the quote and persists it.
// It must run after every section or line mutation.
func (s *QuoteCalculationService) RecomputeAndStore(quote *domain.Quote) (decimal.Decimal, error) {
	return s.recomputeAndStore(quote, func(total decimal.Decimal) error {
		return s.quoteRepo.UpdateTotalAmount(quote.WorkspaceID, quote.ID, total)
	})
}

// RecomputeAndStoreTx is RecomputeAndStore within the transaction that mutated the quote
func (s *QuoteCalculationService) RecomputeAndStoreTx(tx interface{}, quote *domain.Quote) (decimal.Decimal, error) {
	return s.recomputeAndStore(quote, func(total decimal.Decimal) error {
		return s.quoteRepo.UpdateTotalAmountTx(tx, quote.WorkspaceID, quote.ID, total)
	})
}

func (s *QuoteCalculationService) recomputeAndStore(quote *domain.Quote, store func(decimal.Decimal) error) (decimal.Decimal, error) {
	previous := quote.TotalAmount
	total := quote.RecomputeTotal()

	if err := store(total); err != nil {
		quote.TotalAmount = previous
		return decimal.Zero, fmt.Errorf("store quote total: %w", err)
	}

	if !previous.Equal(total) {
		log.Debug().
			Int32("workspace_id", quote.WorkspaceID).
			Int32("quote_id", quote.ID).
			Str("previous_total", domain.FormatMoney(previous)).
			Str("total", domain.FormatMoney(total)).
			Msg("Quote total recomputed")
	}
	return total, nil
}

// LoadQuote fetches a quote tree and resolves the rate profiles its lines reference
func (s *QuoteCalculationService) LoadQuote(workspaceID int32, quoteID int32) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(quote)
}

// LoadQuoteTx is LoadQuote reading through a transaction
func (s *QuoteCalculationService) LoadQuoteTx(tx interface{}, workspaceID int32, quoteID int32) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByIDTx(tx, workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(quote)
}

func (s *QuoteCalculationService) attachProfiles(quote *domain.Quote) (*domain.Quote, error) {
	ids := quote.ProfileIDs()
	if len(ids) == 0 {
		return quote, nil
	}

	profiles, err := s.profileRepo.GetByIDs(quote.WorkspaceID, ids)
	if err != nil {
		return nil, fmt.Errorf("load rate profiles: %w", err)
	}
	quote.AttachProfiles(profiles)
	return quote, nil
}

// GetTotals loads a quote and computes its totals
func (s *QuoteCalculationService) GetTotals(workspaceID int32, quoteID int32) (*domain.Quote, QuoteTotals, error) {
	quote, err := s.LoadQuote(workspaceID, quoteID)
	if err != nil {
		return nil, QuoteTotals{}, err
	}
	return quote, s.ComputeTotals(quote), nil
}

// GetBreakdown loads a quote and computes its full breakdown
func (s *QuoteCalculationService) GetBreakdown(workspaceID int32, quoteID int32) (*QuoteBreakdown, error) {
	quote, err := s.LoadQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	return s.Breakdown(quote), nil
}

// Recompute loads a quote and refreshes its cached total
func (s *QuoteCalculationService) Recompute(workspaceID int32, quoteID int32) (*domain.Quote, error) {
	quote, err := s.LoadQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.RecomputeAndStore(quote); err != nil {
		return nil, err
	}
	return quote, nil
}
