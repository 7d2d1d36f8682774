package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// QuoteService is the editing unit of work for quotes, their sections, lines and milestones.
// Every mutation and the refresh of the cached quote total commit together.
type QuoteService struct {
	quoteRepo      domain.QuoteRepository
	profileRepo    domain.RateProfileRepository
	calculation    *QuoteCalculationService
	eventPublisher websocket.EventPublisher
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(quoteRepo domain.QuoteRepository, profileRepo domain.RateProfileRepository, calculation *QuoteCalculationService) *QuoteService {
	return &QuoteService{
		quoteRepo:   quoteRepo,
		profileRepo: profileRepo,
		calculation: calculation,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *QuoteService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *QuoteService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// QuoteTotalsEvent is the payload of quote.totals_updated
type QuoteTotalsEvent struct {
	QuoteID         int32  `json:"quoteId"`
	OrderNumber     string `json:"orderNumber"`
	TotalAmount     string `json:"totalAmount"`
	FinalAmount     string `json:"finalAmount"`
	ScheduledTotal  string `json:"scheduledTotal"`
	ScheduleCovered bool   `json:"scheduleCovered"`
}

// CreateQuoteInput contains input for creating a quote
type CreateQuoteInput struct {
	Name                  string
	ContractType          domain.ContractType
	ContingencyPercentage *decimal.Decimal
}

// CreateQuote creates an empty quote in the to_sign status.
// The order number is allocated by the repository.
func (s *QuoteService) CreateQuote(workspaceID int32, input CreateQuoteInput) (*domain.Quote, error) {
	quote := &domain.Quote{
		WorkspaceID:           workspaceID,
		Name:                  strings.TrimSpace(input.Name),
		ContractType:          input.ContractType,
		ContingencyPercentage: input.ContingencyPercentage,
		Status:                domain.QuoteStatusToSign,
		TotalAmount:           decimal.Zero,
	}
	if err := quote.Validate(); err != nil {
		return nil, err
	}

	created, err := s.quoteRepo.Create(quote)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", created.ID).
		Str("order_number", created.OrderNumber).
		Msg("Quote created")

	s.publishEvent(workspaceID, websocket.QuoteCreated(created.ID, map[string]interface{}{
		"quoteId":     created.ID,
		"orderNumber": created.OrderNumber,
	}))
	return created, nil
}

// GetQuote returns a quote tree with its rate profiles resolved
func (s *QuoteService) GetQuote(workspaceID int32, id int32) (*domain.Quote, error) {
	return s.calculation.LoadQuote(workspaceID, id)
}

// ListQuotes returns the quotes of a workspace, optionally filtered by status
func (s *QuoteService) ListQuotes(workspaceID int32, status *domain.QuoteStatus) ([]*domain.Quote, error) {
	if status != nil && !status.IsValid() {
		return nil, domain.ErrQuoteStatusInvalid
	}
	return s.quoteRepo.GetAllByWorkspace(workspaceID, status)
}

// UpdateQuoteInput contains input for updating a quote header
type UpdateQuoteInput struct {
	Name                  string
	ContractType          domain.ContractType
	ContingencyPercentage *decimal.Decimal
}

// UpdateQuote changes the name, contract type and contingency of an editable quote
func (s *QuoteService) UpdateQuote(workspaceID int32, id int32, input UpdateQuoteInput) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, id)
	if err != nil {
		return nil, err
	}

	quote.Name = strings.TrimSpace(input.Name)
	quote.ContractType = input.ContractType
	quote.ContingencyPercentage = input.ContingencyPercentage
	if err := quote.Validate(); err != nil {
		return nil, err
	}

	return s.withinTx(workspaceID, id, func(tx interface{}) error {
		if _, err := s.quoteRepo.UpdateTx(tx, quote); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		return nil
	})
}

// DeleteQuote removes a quote with its sections, lines and milestones
func (s *QuoteService) DeleteQuote(workspaceID int32, id int32) error {
	quote, err := s.quoteRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	if err := s.quoteRepo.Delete(workspaceID, id); err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("quote_id", id).Msg("Quote deleted")
	s.publishEvent(workspaceID, websocket.QuoteDeleted(id, map[string]interface{}{
		"quoteId":     id,
		"orderNumber": quote.OrderNumber,
	}))
	return nil
}

// AddSectionInput contains input for adding a section
type AddSectionInput struct {
	Title    string
	Position *int32
}

// AddSection appends a section to an editable quote.
// Without an explicit position the section goes after the last one.
func (s *QuoteService) AddSection(workspaceID int32, quoteID int32, input AddSectionInput) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}

	section := &domain.BudgetSection{
		QuoteID:  quoteID,
		Title:    strings.TrimSpace(input.Title),
		Position: quote.NextSectionPosition(),
	}
	if input.Position != nil {
		section.Position = *input.Position
	}
	if err := section.Validate(); err != nil {
		return nil, err
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if _, err := s.quoteRepo.CreateSectionTx(tx, section); err != nil {
			return fmt.Errorf("create section: %w", err)
		}
		return nil
	})
}

// DeleteSection removes a section and its lines
func (s *QuoteService) DeleteSection(workspaceID int32, quoteID int32, sectionID int32) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	if _, ok := quote.FindSection(sectionID); !ok {
		return nil, domain.ErrSectionNotFound
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if err := s.quoteRepo.DeleteSectionTx(tx, quoteID, sectionID); err != nil {
			return fmt.Errorf("delete section: %w", err)
		}
		return nil
	})
}

// LineInput contains the editable fields of a budget line
type LineInput struct {
	Description            string
	Position               *int32
	Kind                   domain.LineKind
	ProfileID              *int32
	AssigneeID             *int32
	DailyRate              *decimal.Decimal
	Days                   *decimal.Decimal
	DirectAmount           *decimal.Decimal
	AttachedPurchaseAmount *decimal.Decimal
	VATRate                *decimal.Decimal
}

// AddLine adds a line to a section of an editable quote
func (s *QuoteService) AddLine(workspaceID int32, quoteID int32, sectionID int32, input LineInput) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	section, ok := quote.FindSection(sectionID)
	if !ok {
		return nil, domain.ErrSectionNotFound
	}

	line := &domain.BudgetLine{
		SectionID: sectionID,
		Position:  section.NextLinePosition(),
	}
	if err := s.applyLineInput(workspaceID, line, input); err != nil {
		return nil, err
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if _, err := s.quoteRepo.CreateLineTx(tx, line); err != nil {
			return fmt.Errorf("create line: %w", err)
		}
		return nil
	})
}

// UpdateLine replaces the editable fields of a line
func (s *QuoteService) UpdateLine(workspaceID int32, quoteID int32, lineID int32, input LineInput) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	existing, ok := quote.FindLine(lineID)
	if !ok {
		return nil, domain.ErrLineNotFound
	}

	line := &domain.BudgetLine{
		ID:        existing.ID,
		SectionID: existing.SectionID,
		Position:  existing.Position,
	}
	if err := s.applyLineInput(workspaceID, line, input); err != nil {
		return nil, err
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if _, err := s.quoteRepo.UpdateLineTx(tx, line); err != nil {
			return fmt.Errorf("update line: %w", err)
		}
		return nil
	})
}

// DeleteLine removes a line from an editable quote
func (s *QuoteService) DeleteLine(workspaceID int32, quoteID int32, lineID int32) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	if _, ok := quote.FindLine(lineID); !ok {
		return nil, domain.ErrLineNotFound
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if err := s.quoteRepo.DeleteLineTx(tx, quoteID, lineID); err != nil {
			return fmt.Errorf("delete line: %w", err)
		}
		return nil
	})
}

// MilestoneInput contains input for adding a payment milestone
type MilestoneInput struct {
	Label       *string
	BillingDate time.Time
	AmountType  domain.AmountType
	Percent     *decimal.Decimal
	FixedAmount *decimal.Decimal
}

// AddMilestone adds a billing event to the payment schedule of an editable quote.
// Over-allocation is accepted here and reported by the coverage check.
func (s *QuoteService) AddMilestone(workspaceID int32, quoteID int32, input MilestoneInput) (*domain.Quote, error) {
	if _, err := s.editableQuote(workspaceID, quoteID); err != nil {
		return nil, err
	}

	milestone := &domain.PaymentMilestone{
		QuoteID:     quoteID,
		Label:       trimOptional(input.Label),
		BillingDate: input.BillingDate,
		AmountType:  input.AmountType,
		Percent:     input.Percent,
		FixedAmount: input.FixedAmount,
	}
	if err := milestone.Validate(); err != nil {
		return nil, err
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if _, err := s.quoteRepo.CreateMilestoneTx(tx, milestone); err != nil {
			return fmt.Errorf("create milestone: %w", err)
		}
		return nil
	})
}

// DeleteMilestone removes a billing event from an editable quote
func (s *QuoteService) DeleteMilestone(workspaceID int32, quoteID int32, milestoneID int32) (*domain.Quote, error) {
	quote, err := s.editableQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, m := range quote.Milestones {
		if m.ID == milestoneID {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrMilestoneNotFound
	}

	return s.withinTx(workspaceID, quoteID, func(tx interface{}) error {
		if err := s.quoteRepo.DeleteMilestoneTx(tx, quoteID, milestoneID); err != nil {
			return fmt.Errorf("delete milestone: %w", err)
		}
		return nil
	})
}

// editableQuote loads a quote and rejects it unless it is to_sign or on standby
func (s *QuoteService) editableQuote(workspaceID int32, quoteID int32) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	if !quote.IsEditable() {
		return nil, domain.ErrQuoteLocked
	}
	return quote, nil
}

// applyLineInput copies and validates input onto line.
// A service line with a profile but no daily rate takes the profile's default rate.
func (s *QuoteService) applyLineInput(workspaceID int32, line *domain.BudgetLine, input LineInput) error {
	line.Description = strings.TrimSpace(input.Description)
	line.Kind = input.Kind
	line.ProfileID = input.ProfileID
	line.AssigneeID = input.AssigneeID
	line.DailyRate = input.DailyRate
	line.Days = input.Days
	line.DirectAmount = input.DirectAmount
	line.AttachedPurchaseAmount = input.AttachedPurchaseAmount
	line.VATRate = input.VATRate
	if input.Position != nil {
		line.Position = *input.Position
	}

	if err := line.Validate(); err != nil {
		return err
	}

	if line.ProfileID == nil {
		return nil
	}
	profile, err := s.profileRepo.GetByID(workspaceID, *line.ProfileID)
	if err != nil {
		if errors.Is(err, domain.ErrRateProfileNotFound) {
			return err
		}
		return fmt.Errorf("load rate profile: %w", err)
	}
	if line.DailyRate == nil && profile.DefaultDailyRate != nil {
		rate := *profile.DefaultDailyRate
		line.DailyRate = &rate
	}
	return nil
}

// withinTx runs write, reloads the quote and stores its recomputed total in one
// transaction, then notifies the workspace. Nothing is persisted when any step fails.
func (s *QuoteService) withinTx(workspaceID int32, quoteID int32, write func(tx interface{}) error) (*domain.Quote, error) {
	ctx := context.Background()
	tx, err := s.quoteRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := write(tx); err != nil {
		return nil, err
	}
	quote, err := s.calculation.LoadQuoteTx(tx, workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.calculation.RecomputeAndStoreTx(tx, quote); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	covered, scheduled := quote.ValidatePaymentScheduleCoverage()
	s.publishEvent(workspaceID, websocket.QuoteTotalsUpdated(quote.ID, QuoteTotalsEvent{
		QuoteID:         quote.ID,
		OrderNumber:     quote.OrderNumber,
		TotalAmount:     domain.FormatMoney(quote.TotalAmount),
		FinalAmount:     domain.FormatMoney(quote.FinalAmount()),
		ScheduledTotal:  domain.FormatMoney(scheduled),
		ScheduleCovered: covered,
	}))
	return quote, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
