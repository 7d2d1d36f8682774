package service

import (
	"fmt"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// quoteTransitions lists the statuses reachable from each status.
// Lost, completed and abandoned quotes are terminal.
var quoteTransitions = map[domain.QuoteStatus][]domain.QuoteStatus{
	domain.QuoteStatusToSign: {
		domain.QuoteStatusWon,
		domain.QuoteStatusSigned,
		domain.QuoteStatusLost,
		domain.QuoteStatusStandby,
		domain.QuoteStatusAbandoned,
	},
	domain.QuoteStatusStandby: {domain.QuoteStatusToSign, domain.QuoteStatusAbandoned},
	domain.QuoteStatusWon:     {domain.QuoteStatusSigned, domain.QuoteStatusCompleted},
	domain.QuoteStatusSigned:  {domain.QuoteStatusCompleted},
}

// AllowedTransitions returns the statuses a quote in status from may move to
func AllowedTransitions(from domain.QuoteStatus) []domain.QuoteStatus {
	return quoteTransitions[from]
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to domain.QuoteStatus) bool {
	for _, next := range quoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// QuoteWorkflowService moves quotes through their lifecycle
type QuoteWorkflowService struct {
	quoteRepo      domain.QuoteRepository
	calculation    *QuoteCalculationService
	eventPublisher websocket.EventPublisher
}

// NewQuoteWorkflowService creates a new QuoteWorkflowService
func NewQuoteWorkflowService(quoteRepo domain.QuoteRepository, calculation *QuoteCalculationService) *QuoteWorkflowService {
	return &QuoteWorkflowService{
		quoteRepo:   quoteRepo,
		calculation: calculation,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *QuoteWorkflowService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *QuoteWorkflowService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// ChangeStatus moves a quote to status to.
// A fixed-price quote can only be won or signed once its payment schedule
// rebuilds the final amount to the cent.
func (s *QuoteWorkflowService) ChangeStatus(workspaceID int32, quoteID int32, to domain.QuoteStatus) (*domain.Quote, error) {
	if !to.IsValid() {
		return nil, domain.ErrQuoteStatusInvalid
	}

	quote, err := s.calculation.LoadQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}

	from := quote.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, from, to)
	}

	if requiresCoverage(quote, to) {
		covered, scheduled := quote.ValidatePaymentScheduleCoverage()
		if !covered {
			return nil, fmt.Errorf("%w: scheduled %s, final %s", domain.ErrScheduleNotCovered,
				domain.FormatMoney(scheduled), domain.FormatMoney(quote.FinalAmount()))
		}
	}

	updated, err := s.quoteRepo.UpdateStatus(workspaceID, quoteID, to)
	if err != nil {
		return nil, fmt.Errorf("update quote status: %w", err)
	}
	quote.Status = updated.Status
	quote.UpdatedAt = updated.UpdatedAt

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", quoteID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Quote status changed")

	s.publishEvent(workspaceID, websocket.QuoteStatusChanged(quoteID, map[string]interface{}{
		"quoteId":     quoteID,
		"orderNumber": quote.OrderNumber,
		"from":        from,
		"to":          to,
	}))
	return quote, nil
}

// requiresCoverage reports whether moving quote to status to is gated on schedule coverage.
// Time and materials quotes are billed on actuals.
func requiresCoverage(quote *domain.Quote, to domain.QuoteStatus) bool {
	if quote.ContractType != domain.ContractTypeFixedPrice {
		return false
	}
	return to == domain.QuoteStatusSigned || to == domain.QuoteStatusWon
}
