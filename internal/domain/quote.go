package domain

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ContractType is the commercial model of a quote
type ContractType string

const (
	ContractTypeFixedPrice       ContractType = "fixed_price"
	ContractTypeTimeAndMaterials ContractType = "time_and_materials"
)

// IsValid reports whether t is a known contract type
func (t ContractType) IsValid() bool {
	return t == ContractTypeFixedPrice || t == ContractTypeTimeAndMaterials
}

// QuoteStatus is a plain tag. Allowed transitions are owned by the workflow service.
type QuoteStatus string

const (
	QuoteStatusToSign    QuoteStatus = "to_sign"
	QuoteStatusWon       QuoteStatus = "won"
	QuoteStatusSigned    QuoteStatus = "signed"
	QuoteStatusLost      QuoteStatus = "lost"
	QuoteStatusCompleted QuoteStatus = "completed"
	QuoteStatusStandby   QuoteStatus = "standby"
	QuoteStatusAbandoned QuoteStatus = "abandoned"
)

// IsValid reports whether s is a known status
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusToSign, QuoteStatusWon, QuoteStatusSigned, QuoteStatusLost,
		QuoteStatusCompleted, QuoteStatusStandby, QuoteStatusAbandoned:
		return true
	}
	return false
}

var (
	ErrQuoteNotFound             = errors.New("quote not found")
	ErrQuoteNameRequired         = errors.New("quote name is required")
	ErrQuoteNameTooLong          = errors.New("quote name exceeds maximum length")
	ErrQuoteContractTypeInvalid  = errors.New("contract type must be fixed_price or time_and_materials")
	ErrQuoteStatusInvalid        = errors.New("invalid quote status")
	ErrQuoteContingencyInvalid   = errors.New("contingency percentage must be between 0 and 100")
	ErrQuoteLocked               = errors.New("quote can only be edited while to sign or on standby")
	ErrInvalidStatusTransition   = errors.New("status transition not allowed")
	ErrScheduleNotCovered        = errors.New("payment schedule does not cover the quote final amount")
	ErrTasksRequireAcceptedQuote = errors.New("tasks can only be derived from a won or signed quote")
	ErrOrderNumberInvalid        = errors.New("invalid order number")
)

// Quote is the aggregate root of the quote computation: sections, lines and the payment schedule.
// TotalAmount is a cached copy of TotalFromSections, refreshed by the calculation service.
type Quote struct {
	ID                    int32               `json:"id"`
	WorkspaceID           int32               `json:"workspaceId"`
	OrderNumber           string              `json:"orderNumber"`
	Name                  string              `json:"name"`
	ContractType          ContractType        `json:"contractType"`
	ContingencyPercentage *decimal.Decimal    `json:"contingencyPercentage,omitempty"`
	Status                QuoteStatus         `json:"status"`
	Sections              []*BudgetSection    `json:"sections"`
	Milestones            []*PaymentMilestone `json:"milestones"`
	TotalAmount           decimal.Decimal     `json:"totalAmount"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

func (q *Quote) Validate() error {
	if q.Name == "" {
		return ErrQuoteNameRequired
	}
	if len(q.Name) > MaxNameLength {
		return ErrQuoteNameTooLong
	}
	if !q.ContractType.IsValid() {
		return ErrQuoteContractTypeInvalid
	}
	if q.Status != "" && !q.Status.IsValid() {
		return ErrQuoteStatusInvalid
	}
	if c := q.ContingencyPercentage; c != nil && (c.IsNegative() || c.GreaterThan(hundred)) {
		return ErrQuoteContingencyInvalid
	}
	return nil
}

// IsEditable reports whether sections, lines and milestones may still change
func (q *Quote) IsEditable() bool {
	return q.Status == QuoteStatusToSign || q.Status == QuoteStatusStandby
}

// TotalFromSections sums the section totals
func (q *Quote) TotalFromSections() decimal.Decimal {
	total := decimal.Zero
	for _, section := range q.Sections {
		total = total.Add(section.TotalAmount())
	}
	return RoundMoney(total)
}

// ContingencyAmount returns the contingency deducted from total
func (q *Quote) ContingencyAmount(total decimal.Decimal) decimal.Decimal {
	if q.ContingencyPercentage == nil {
		return decimal.Zero
	}
	return PercentOf(total, *q.ContingencyPercentage)
}

// FinalAmount is the sections total minus the contingency
func (q *Quote) FinalAmount() decimal.Decimal {
	total := q.TotalFromSections()
	return total.Sub(q.ContingencyAmount(total))
}

// TotalSoldDays sums the sold days of every section
func (q *Quote) TotalSoldDays() decimal.Decimal {
	total := decimal.Zero
	for _, section := range q.Sections {
		total = total.Add(section.TotalSoldDays())
	}
	return total
}

// EstimatedCost sums the estimated cost of the profitability-bearing lines
func (q *Quote) EstimatedCost() decimal.Decimal {
	total := decimal.Zero
	for _, line := range q.Lines() {
		if line.IsCountableForProfitability() {
			total = total.Add(line.EstimatedCost())
		}
	}
	return total
}

// GrossMargin sums the gross margin of the profitability-bearing lines
func (q *Quote) GrossMargin() decimal.Decimal {
	total := decimal.Zero
	for _, line := range q.Lines() {
		if line.IsCountableForProfitability() {
			total = total.Add(line.GrossMargin())
		}
	}
	return total
}

// MarginRate is GrossMargin as a percentage of the service amounts
func (q *Quote) MarginRate() decimal.Decimal {
	base := decimal.Zero
	for _, line := range q.Lines() {
		base = base.Add(line.ServiceOnlyAmount())
	}
	return marginRate(q.GrossMargin(), base)
}

// ScheduledAmounts returns the due amount of every milestone in billing order.
//
// Residue policy: when every milestone is a percentage and the percentages add up to
// exactly 100, the last milestone with a positive percentage absorbs the rounding residue
// so the schedule rebuilds the final amount to the cent. The absorbed amount never goes
// below zero; when it would, the schedule is left uncovered. Any other schedule is
// computed milestone by milestone.
func (q *Quote) ScheduledAmounts() []ScheduledMilestone {
	milestones := q.SortedMilestones()
	final := q.FinalAmount()

	scheduled := make([]ScheduledMilestone, len(milestones))
	allocated := decimal.Zero
	for i, m := range milestones {
		amount := m.ComputeAmount(final)
		scheduled[i] = ScheduledMilestone{Milestone: m, Amount: amount}
		allocated = allocated.Add(amount)
	}

	if i := residueAbsorber(milestones); i >= 0 {
		absorber := scheduled[i]
		others := allocated.Sub(absorber.Amount)
		adjusted := decimal.Max(final.Sub(others), decimal.Zero)
		scheduled[i].Residue = adjusted.Sub(absorber.Amount)
		scheduled[i].Amount = adjusted
	}
	return scheduled
}

// residueAbsorber returns the index of the milestone taking the rounding residue, or -1
func residueAbsorber(milestones []*PaymentMilestone) int {
	absorber := -1
	percentTotal := decimal.Zero
	for i, m := range milestones {
		if m.AmountType != AmountTypePercent || m.Percent == nil {
			return -1
		}
		percentTotal = percentTotal.Add(*m.Percent)
		if m.Percent.IsPositive() {
			absorber = i
		}
	}
	if !percentTotal.Equal(hundred) {
		return -1
	}
	return absorber
}

// ValidatePaymentScheduleCoverage reports whether the schedule adds up exactly to the
// final amount, along with the scheduled total
func (q *Quote) ValidatePaymentScheduleCoverage() (bool, decimal.Decimal) {
	scheduledTotal := decimal.Zero
	for _, s := range q.ScheduledAmounts() {
		scheduledTotal = scheduledTotal.Add(s.Amount)
	}
	scheduledTotal = RoundMoney(scheduledTotal)
	return scheduledTotal.Equal(q.FinalAmount()), scheduledTotal
}

// RecomputeTotal refreshes the cached TotalAmount from the sections
func (q *Quote) RecomputeTotal() decimal.Decimal {
	q.TotalAmount = q.TotalFromSections()
	return q.TotalAmount
}

// IsTotalStale reports whether the cached total differs from the live aggregation
func (q *Quote) IsTotalStale() bool {
	return !q.TotalAmount.Equal(q.TotalFromSections())
}

// SortedSections returns the sections by ascending position
func (q *Quote) SortedSections() []*BudgetSection {
	sections := make([]*BudgetSection, len(q.Sections))
	copy(sections, q.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Position != sections[j].Position {
			return sections[i].Position < sections[j].Position
		}
		return sections[i].ID < sections[j].ID
	})
	return sections
}

// SortedMilestones returns the milestones by ascending billing date
func (q *Quote) SortedMilestones() []*PaymentMilestone {
	milestones := make([]*PaymentMilestone, len(q.Milestones))
	copy(milestones, q.Milestones)
	sort.SliceStable(milestones, func(i, j int) bool {
		if !milestones[i].BillingDate.Equal(milestones[j].BillingDate) {
			return milestones[i].BillingDate.Before(milestones[j].BillingDate)
		}
		return milestones[i].ID < milestones[j].ID
	})
	return milestones
}

// Lines returns every line of the quote in display order
func (q *Quote) Lines() []*BudgetLine {
	var lines []*BudgetLine
	for _, section := range q.SortedSections() {
		lines = append(lines, section.SortedLines()...)
	}
	return lines
}

// FindSection returns the section with the given ID
func (q *Quote) FindSection(sectionID int32) (*BudgetSection, bool) {
	for _, section := range q.Sections {
		if section.ID == sectionID {
			return section, true
		}
	}
	return nil, false
}

// FindLine returns the line with the given ID
func (q *Quote) FindLine(lineID int32) (*BudgetLine, bool) {
	for _, section := range q.Sections {
		for _, line := range section.Lines {
			if line.ID == lineID {
				return line, true
			}
		}
	}
	return nil, false
}

// NextSectionPosition returns the position after the last section
func (q *Quote) NextSectionPosition() int32 {
	var maxPos int32
	for _, section := range q.Sections {
		if section.Position > maxPos {
			maxPos = section.Position
		}
	}
	return maxPos + 1
}

// ProfileIDs returns the distinct profile IDs referenced by the lines
func (q *Quote) ProfileIDs() []int32 {
	seen := make(map[int32]bool)
	var ids []int32
	for _, line := range q.Lines() {
		if line.ProfileID != nil && !seen[*line.ProfileID] {
			seen[*line.ProfileID] = true
			ids = append(ids, *line.ProfileID)
		}
	}
	return ids
}

// AttachProfiles resolves each line's Profile from the given map
func (q *Quote) AttachProfiles(profiles map[int32]*RateProfile) {
	for _, section := range q.Sections {
		for _, line := range section.Lines {
			if line.ProfileID != nil {
				line.Profile = profiles[*line.ProfileID]
			}
		}
	}
}

// ScheduledMilestone pairs a milestone with its due amount.
// Residue is the rounding adjustment applied to it, zero for most milestones.
type ScheduledMilestone struct {
	Milestone *PaymentMilestone
	Amount    decimal.Decimal
	Residue   decimal.Decimal
}

// Tx is a database transaction handed out by QuoteRepository.Begin
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// QuoteRepository persists quote trees. Edits of a quote and of its cached total go
// through the ...Tx methods so they commit or roll back together.
type QuoteRepository interface {
	Begin(ctx context.Context) (Tx, error)

	Create(quote *Quote) (*Quote, error)
	GetByID(workspaceID int32, id int32) (*Quote, error)
	GetAllByWorkspace(workspaceID int32, status *QuoteStatus) ([]*Quote, error)
	UpdateTotalAmount(workspaceID int32, id int32, total decimal.Decimal) error
	UpdateStatus(workspaceID int32, id int32, status QuoteStatus) (*Quote, error)
	Delete(workspaceID int32, id int32) error

	GetByIDTx(tx interface{}, workspaceID int32, id int32) (*Quote, error)
	UpdateTx(tx interface{}, quote *Quote) (*Quote, error)
	UpdateTotalAmountTx(tx interface{}, workspaceID int32, id int32, total decimal.Decimal) error
	CreateSectionTx(tx interface{}, section *BudgetSection) (*BudgetSection, error)
	DeleteSectionTx(tx interface{}, quoteID int32, sectionID int32) error
	CreateLineTx(tx interface{}, line *BudgetLine) (*BudgetLine, error)
	UpdateLineTx(tx interface{}, line *BudgetLine) (*BudgetLine, error)
	DeleteLineTx(tx interface{}, quoteID int32, lineID int32) error
	CreateMilestoneTx(tx interface{}, milestone *PaymentMilestone) (*PaymentMilestone, error)
	DeleteMilestoneTx(tx interface{}, quoteID int32, milestoneID int32) error
}
