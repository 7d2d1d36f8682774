package handler

import (
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
)

const dateLayout = "2006-01-02"

// QuoteSummaryResponse is a quote header as listed
type QuoteSummaryResponse struct {
	ID                    int32   `json:"id"`
	OrderNumber           string  `json:"orderNumber"`
	Name                  string  `json:"name"`
	ContractType          string  `json:"contractType"`
	Status                string  `json:"status"`
	ContingencyPercentage *string `json:"contingencyPercentage,omitempty"`
	TotalAmount           string  `json:"totalAmount"`
	CreatedAt             string  `json:"createdAt"`
	UpdatedAt             string  `json:"updatedAt"`
}

// QuoteResponse is a quote with its sections, lines and payment milestones
type QuoteResponse struct {
	QuoteSummaryResponse
	FinalAmount     string              `json:"finalAmount"`
	ScheduleCovered bool                `json:"scheduleCovered"`
	Sections        []SectionResponse   `json:"sections"`
	Milestones      []MilestoneResponse `json:"milestones"`
}

// SectionResponse represents a budget section in API responses
type SectionResponse struct {
	ID          int32          `json:"id"`
	Title       string         `json:"title"`
	Position    int32          `json:"position"`
	TotalAmount string         `json:"totalAmount"`
	Lines       []LineResponse `json:"lines"`
}

// LineResponse represents a budget line in API responses
type LineResponse struct {
	ID                     int32   `json:"id"`
	SectionID              int32   `json:"sectionId"`
	Description            string  `json:"description"`
	Position               int32   `json:"position"`
	Kind                   string  `json:"kind"`
	ProfileID              *int32  `json:"profileId,omitempty"`
	AssigneeID             *int32  `json:"assigneeId,omitempty"`
	DailyRate              *string `json:"dailyRate,omitempty"`
	Days                   *string `json:"days,omitempty"`
	DirectAmount           *string `json:"directAmount,omitempty"`
	AttachedPurchaseAmount *string `json:"attachedPurchaseAmount,omitempty"`
	VATRate                *string `json:"vatRate,omitempty"`
	TotalAmount            string  `json:"totalAmount"`
}

// MilestoneResponse represents a payment milestone in API responses
type MilestoneResponse struct {
	ID          int32   `json:"id"`
	Label       *string `json:"label,omitempty"`
	BillingDate string  `json:"billingDate"`
	AmountType  string  `json:"amountType"`
	Percent     *string `json:"percent,omitempty"`
	FixedAmount *string `json:"fixedAmount,omitempty"`
}

// TotalsResponse represents the aggregated amounts of a quote
type TotalsResponse struct {
	QuoteID           int32  `json:"quoteId"`
	SectionsTotal     string `json:"sectionsTotal"`
	ServiceSubtotal   string `json:"serviceSubtotal"`
	PurchaseSubtotal  string `json:"purchaseSubtotal"`
	ContingencyAmount string `json:"contingencyAmount"`
	FinalAmount       string `json:"finalAmount"`
	ScheduledTotal    string `json:"scheduledTotal"`
	ScheduleCovered   bool   `json:"scheduleCovered"`
	CachedTotal       string `json:"cachedTotal"`
}

// CoverageResponse reports whether the payment schedule adds up to the final amount
type CoverageResponse struct {
	QuoteID        int32                        `json:"quoteId"`
	Covered        bool                         `json:"covered"`
	FinalAmount    string                       `json:"finalAmount"`
	ScheduledTotal string                       `json:"scheduledTotal"`
	Difference     string                       `json:"difference"`
	Milestones     []ScheduledMilestoneResponse `json:"milestones"`
}

// ScheduledMilestoneResponse is a milestone with its computed amount
type ScheduledMilestoneResponse struct {
	MilestoneResponse
	Amount  string `json:"amount"`
	Residue string `json:"residue"`
}

// BreakdownResponse represents the full computation of a quote
type BreakdownResponse struct {
	Quote         QuoteSummaryResponse         `json:"quote"`
	Totals        TotalsResponse               `json:"totals"`
	Sections      []SectionFiguresResponse     `json:"sections"`
	Schedule      []ScheduledMilestoneResponse `json:"schedule"`
	Profitability ProfitabilityResponse        `json:"profitability"`
	VATTotal      string                       `json:"vatTotal"`
	TotalStale    bool                         `json:"totalStale"`
}

// SectionFiguresResponse is a section with its per-line figures
type SectionFiguresResponse struct {
	ID            int32                 `json:"id"`
	Title         string                `json:"title"`
	TotalAmount   string                `json:"totalAmount"`
	TotalSoldDays string                `json:"totalSoldDays"`
	Lines         []LineFiguresResponse `json:"lines"`
}

// LineFiguresResponse holds the computed amounts of one line
type LineFiguresResponse struct {
	LineID            int32  `json:"lineId"`
	Description       string `json:"description"`
	Kind              string `json:"kind"`
	TotalAmount       string `json:"totalAmount"`
	ServiceOnlyAmount string `json:"serviceOnlyAmount"`
	PurchaseAmount    string `json:"purchaseAmount"`
	EstimatedCost     string `json:"estimatedCost"`
	GrossMargin       string `json:"grossMargin"`
	MarginRate        string `json:"marginRate"`
	VATAmount         string `json:"vatAmount"`
}

// ProfitabilityResponse holds the quote-level margin figures
type ProfitabilityResponse struct {
	TotalSoldDays string `json:"totalSoldDays"`
	EstimatedCost string `json:"estimatedCost"`
	GrossMargin   string `json:"grossMargin"`
	MarginRate    string `json:"marginRate"`
}

// TaskResponse represents an execution task derived from a service line
type TaskResponse struct {
	ID             int32  `json:"id"`
	DerivationKey  string `json:"derivationKey"`
	QuoteID        int32  `json:"quoteId"`
	LineID         int32  `json:"lineId"`
	Description    string `json:"description"`
	AssigneeID     *int32 `json:"assigneeId,omitempty"`
	ProfileID      int32  `json:"profileId"`
	EstimatedHours string `json:"estimatedHours"`
	DailyRate      string `json:"dailyRate"`
}

// TaskDerivationResponse reports what a derivation run wrote
type TaskDerivationResponse struct {
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Skipped int            `json:"skipped"`
	Tasks   []TaskResponse `json:"tasks"`
}

func toQuoteSummaryResponse(q *domain.Quote) QuoteSummaryResponse {
	return QuoteSummaryResponse{
		ID:                    q.ID,
		OrderNumber:           q.OrderNumber,
		Name:                  q.Name,
		ContractType:          string(q.ContractType),
		Status:                string(q.Status),
		ContingencyPercentage: domain.FormatOptionalMoney(q.ContingencyPercentage),
		TotalAmount:           domain.FormatMoney(q.TotalAmount),
		CreatedAt:             q.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             q.UpdatedAt.Format(time.RFC3339),
	}
}

func toQuoteResponse(q *domain.Quote) QuoteResponse {
	covered, _ := q.ValidatePaymentScheduleCoverage()
	resp := QuoteResponse{
		QuoteSummaryResponse: toQuoteSummaryResponse(q),
		FinalAmount:          domain.FormatMoney(q.FinalAmount()),
		ScheduleCovered:      covered,
		Sections:             make([]SectionResponse, 0, len(q.Sections)),
		Milestones:           make([]MilestoneResponse, 0, len(q.Milestones)),
	}
	for _, section := range q.SortedSections() {
		sr := SectionResponse{
			ID:          section.ID,
			Title:       section.Title,
			Position:    section.Position,
			TotalAmount: domain.FormatMoney(section.TotalAmount()),
			Lines:       make([]LineResponse, 0, len(section.Lines)),
		}
		for _, line := range section.SortedLines() {
			sr.Lines = append(sr.Lines, toLineResponse(line))
		}
		resp.Sections = append(resp.Sections, sr)
	}
	for _, m := range q.SortedMilestones() {
		resp.Milestones = append(resp.Milestones, toMilestoneResponse(m))
	}
	return resp
}

func toLineResponse(l *domain.BudgetLine) LineResponse {
	return LineResponse{
		ID:                     l.ID,
		SectionID:              l.SectionID,
		Description:            l.Description,
		Position:               l.Position,
		Kind:                   string(l.Kind),
		ProfileID:              l.ProfileID,
		AssigneeID:             l.AssigneeID,
		DailyRate:              domain.FormatOptionalMoney(l.DailyRate),
		Days:                   domain.FormatOptionalMoney(l.Days),
		DirectAmount:           domain.FormatOptionalMoney(l.DirectAmount),
		AttachedPurchaseAmount: domain.FormatOptionalMoney(l.AttachedPurchaseAmount),
		VATRate:                domain.FormatOptionalMoney(l.VATRate),
		TotalAmount:            domain.FormatMoney(l.TotalAmount()),
	}
}

func toMilestoneResponse(m *domain.PaymentMilestone) MilestoneResponse {
	return MilestoneResponse{
		ID:          m.ID,
		Label:       m.Label,
		BillingDate: m.BillingDate.Format(dateLayout),
		AmountType:  string(m.AmountType),
		Percent:     domain.FormatOptionalMoney(m.Percent),
		FixedAmount: domain.FormatOptionalMoney(m.FixedAmount),
	}
}

func toScheduleResponse(schedule []domain.ScheduledMilestone) []ScheduledMilestoneResponse {
	resp := make([]ScheduledMilestoneResponse, 0, len(schedule))
	for _, sm := range schedule {
		resp = append(resp, ScheduledMilestoneResponse{
			MilestoneResponse: toMilestoneResponse(sm.Milestone),
			Amount:            domain.FormatMoney(sm.Amount),
			Residue:           domain.FormatMoney(sm.Residue),
		})
	}
	return resp
}

func toTotalsResponse(q *domain.Quote, t service.QuoteTotals) TotalsResponse {
	return TotalsResponse{
		QuoteID:           q.ID,
		SectionsTotal:     domain.FormatMoney(t.SectionsTotal),
		ServiceSubtotal:   domain.FormatMoney(t.ServiceSubtotal),
		PurchaseSubtotal:  domain.FormatMoney(t.PurchaseSubtotal),
		ContingencyAmount: domain.FormatMoney(t.ContingencyAmount),
		FinalAmount:       domain.FormatMoney(t.FinalAmount),
		ScheduledTotal:    domain.FormatMoney(t.ScheduledTotal),
		ScheduleCovered:   t.ScheduleCovered,
		CachedTotal:       domain.FormatMoney(q.TotalAmount),
	}
}

func toBreakdownResponse(b *service.QuoteBreakdown) BreakdownResponse {
	resp := BreakdownResponse{
		Quote:    toQuoteSummaryResponse(b.Quote),
		Totals:   toTotalsResponse(b.Quote, b.Totals),
		Sections: make([]SectionFiguresResponse, 0, len(b.Sections)),
		Schedule: toScheduleResponse(b.Schedule),
		Profitability: ProfitabilityResponse{
			TotalSoldDays: domain.FormatMoney(b.Profitability.TotalSoldDays),
			EstimatedCost: domain.FormatMoney(b.Profitability.EstimatedCost),
			GrossMargin:   domain.FormatMoney(b.Profitability.GrossMargin),
			MarginRate:    domain.FormatMoney(b.Profitability.MarginRate),
		},
		VATTotal:   domain.FormatMoney(b.VATTotal),
		TotalStale: b.TotalStale,
	}
	for _, sf := range b.Sections {
		section := SectionFiguresResponse{
			ID:            sf.Section.ID,
			Title:         sf.Section.Title,
			TotalAmount:   domain.FormatMoney(sf.TotalAmount),
			TotalSoldDays: domain.FormatMoney(sf.TotalSoldDays),
			Lines:         make([]LineFiguresResponse, 0, len(sf.Lines)),
		}
		for _, lf := range sf.Lines {
			section.Lines = append(section.Lines, LineFiguresResponse{
				LineID:            lf.Line.ID,
				Description:       lf.Line.Description,
				Kind:              string(lf.Line.Kind),
				TotalAmount:       domain.FormatMoney(lf.TotalAmount),
				ServiceOnlyAmount: domain.FormatMoney(lf.ServiceOnlyAmount),
				PurchaseAmount:    domain.FormatMoney(lf.PurchaseAmount),
				EstimatedCost:     domain.FormatMoney(lf.EstimatedCost),
				GrossMargin:       domain.FormatMoney(lf.GrossMargin),
				MarginRate:        domain.FormatMoney(lf.MarginRate),
				VATAmount:         domain.FormatMoney(lf.VATAmount),
			})
		}
		resp.Sections = append(resp.Sections, section)
	}
	return resp
}

func toTaskResponse(t *domain.ExecutionTask) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		DerivationKey:  t.DerivationKey.String(),
		QuoteID:        t.QuoteID,
		LineID:         t.LineID,
		Description:    t.Description,
		AssigneeID:     t.AssigneeID,
		ProfileID:      t.ProfileID,
		EstimatedHours: t.EstimatedHours.String(),
		DailyRate:      domain.FormatMoney(t.DailyRate),
	}
}

func toTaskResponses(tasks []*domain.ExecutionTask) []TaskResponse {
	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	return resp
}
