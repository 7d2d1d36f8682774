package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// QuoteHandler handles quote, budget and payment schedule HTTP requests
type QuoteHandler struct {
	quoteService *service.QuoteService
	calculation  *service.QuoteCalculationService
	workflow     *service.QuoteWorkflowService
	tasks        *service.TaskDerivationService
	export       *service.QuoteExportService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(
	quoteService *service.QuoteService,
	calculation *service.QuoteCalculationService,
	workflow *service.QuoteWorkflowService,
	tasks *service.TaskDerivationService,
	export *service.QuoteExportService,
) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		calculation:  calculation,
		workflow:     workflow,
		tasks:        tasks,
		export:       export,
	}
}

// QuoteRequest represents the create and update quote request body
type QuoteRequest struct {
	Name                  string  `json:"name"`
	ContractType          string  `json:"contractType"`
	ContingencyPercentage *string `json:"contingencyPercentage,omitempty"`
}

// SectionRequest represents the add section request body
type SectionRequest struct {
	Title    string `json:"title"`
	Position *int32 `json:"position,omitempty"`
}

// LineRequest represents the add and update budget line request body.
// Amounts are decimal strings.
type LineRequest struct {
	Description            string  `json:"description"`
	Position               *int32  `json:"position,omitempty"`
	Kind                   string  `json:"kind"`
	ProfileID              *int32  `json:"profileId,omitempty"`
	AssigneeID             *int32  `json:"assigneeId,omitempty"`
	DailyRate              *string `json:"dailyRate,omitempty"`
	Days                   *string `json:"days,omitempty"`
	DirectAmount           *string `json:"directAmount,omitempty"`
	AttachedPurchaseAmount *string `json:"attachedPurchaseAmount,omitempty"`
	VATRate                *string `json:"vatRate,omitempty"`
}

// MilestoneRequest represents the add payment milestone request body
type MilestoneRequest struct {
	Label       *string `json:"label,omitempty"`
	BillingDate string  `json:"billingDate"`
	AmountType  string  `json:"amountType"`
	Percent     *string `json:"percent,omitempty"`
	FixedAmount *string `json:"fixedAmount,omitempty"`
}

// decimalField binds an optional decimal string of a request to its parsed value
type decimalField struct {
	name string
	raw  *string
	dst  **decimal.Decimal
}

// parseDecimalFields parses every field and reports the ones that are not decimals
func parseDecimalFields(fields ...decimalField) []ValidationError {
	var errs []ValidationError
	for _, f := range fields {
		d, err := domain.ParseOptionalDecimal(f.raw)
		if err != nil {
			errs = append(errs, ValidationError{Field: f.name, Message: "Must be a valid decimal number"})
			continue
		}
		*f.dst = d
	}
	return errs
}

// paramID parses a positive int32 path parameter
func paramID(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

// quoteRequestInput converts a quote body to the fields shared by create and update
func quoteRequestInput(req QuoteRequest) (string, domain.ContractType, *decimal.Decimal, []ValidationError) {
	var contingency *decimal.Decimal
	errs := parseDecimalFields(decimalField{"contingencyPercentage", req.ContingencyPercentage, &contingency})
	return req.Name, domain.ContractType(req.ContractType), contingency, errs
}

// CreateQuote creates an empty quote
// @Summary Create quote
// @Description Creates a quote in the to_sign status and allocates its order number
// @Tags quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body QuoteRequest true "Quote"
// @Success 201 {object} QuoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /quotes [post]
func (h *QuoteHandler) CreateQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	name, contractType, contingency, errs := quoteRequestInput(req)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	quote, err := h.quoteService.CreateQuote(workspaceID, service.CreateQuoteInput{
		Name:                  name,
		ContractType:          contractType,
		ContingencyPercentage: contingency,
	})
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to create quote")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("quote_id", quote.ID).Str("order_number", quote.OrderNumber).Msg("Quote created")

	return c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// ListQuotes returns the quotes of the workspace
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {array} QuoteSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /quotes [get]
func (h *QuoteHandler) ListQuotes(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var status *domain.QuoteStatus
	if s := c.QueryParam("status"); s != "" {
		qs := domain.QuoteStatus(s)
		status = &qs
	}

	quotes, err := h.quoteService.ListQuotes(workspaceID, status)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to list quotes")
	}

	resp := make([]QuoteSummaryResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, toQuoteSummaryResponse(q))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetQuote handles GET /api/v1/quotes/:id
func (h *QuoteHandler) GetQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	quote, err := h.quoteService.GetQuote(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to get quote")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// UpdateQuote handles PUT /api/v1/quotes/:id
func (h *QuoteHandler) UpdateQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	name, contractType, contingency, errs := quoteRequestInput(req)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	quote, err := h.quoteService.UpdateQuote(workspaceID, id, service.UpdateQuoteInput{
		Name:                  name,
		ContractType:          contractType,
		ContingencyPercentage: contingency,
	})
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to update quote")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("quote_id", id).Msg("Quote updated")

	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// DeleteQuote handles DELETE /api/v1/quotes/:id
func (h *QuoteHandler) DeleteQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	if err := h.quoteService.DeleteQuote(workspaceID, id); err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to delete quote")
	}

	return c.NoContent(http.StatusNoContent)
}

// AddSection appends a budget section to a quote
// @Summary Add section
// @Tags quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Param request body SectionRequest true "Section"
// @Success 201 {object} QuoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /quotes/{id}/sections [post]
func (h *QuoteHandler) AddSection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	var req SectionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	quote, err := h.quoteService.AddSection(workspaceID, id, service.AddSectionInput{
		Title:    req.Title,
		Position: req.Position,
	})
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to add section")
	}
	return c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// DeleteSection handles DELETE /api/v1/quotes/:id/sections/:sectionId
func (h *QuoteHandler) DeleteSection(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}
	sectionID, ok := paramID(c, "sectionId")
	if !ok {
		return NewValidationError(c, "Invalid section ID", nil)
	}

	quote, err := h.quoteService.DeleteSection(workspaceID, id, sectionID)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to delete section")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// lineInput converts a line body to service input
func lineInput(req LineRequest) (service.LineInput, []ValidationError) {
	input := service.LineInput{
		Description: req.Description,
		Position:    req.Position,
		Kind:        domain.LineKind(req.Kind),
		ProfileID:   req.ProfileID,
		AssigneeID:  req.AssigneeID,
	}
	errs := parseDecimalFields(
		decimalField{"dailyRate", req.DailyRate, &input.DailyRate},
		decimalField{"days", req.Days, &input.Days},
		decimalField{"directAmount", req.DirectAmount, &input.DirectAmount},
		decimalField{"attachedPurchaseAmount", req.AttachedPurchaseAmount, &input.AttachedPurchaseAmount},
		decimalField{"vatRate", req.VATRate, &input.VATRate},
	)
	return input, errs
}

// AddLine adds a budget line to a section
// @Summary Add budget line
// @Tags quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Param sectionId path int true "Section ID"
// @Param request body LineRequest true "Budget line"
// @Success 201 {object} QuoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /quotes/{id}/sections/{sectionId}/lines [post]
func (h *QuoteHandler) AddLine(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}
	sectionID, ok := paramID(c, "sectionId")
	if !ok {
		return NewValidationError(c, "Invalid section ID", nil)
	}

	var req LineRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := lineInput(req)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	quote, err := h.quoteService.AddLine(workspaceID, id, sectionID, input)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to add line")
	}
	return c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// UpdateLine handles PUT /api/v1/quotes/:id/lines/:lineId
func (h *QuoteHandler) UpdateLine(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}
	lineID, ok := paramID(c, "lineId")
	if !ok {
		return NewValidationError(c, "Invalid line ID", nil)
	}

	var req LineRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := lineInput(req)
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	quote, err := h.quoteService.UpdateLine(workspaceID, id, lineID, input)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to update line")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// DeleteLine handles DELETE /api/v1/quotes/:id/lines/:lineId
func (h *QuoteHandler) DeleteLine(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}
	lineID, ok := paramID(c, "lineId")
	if !ok {
		return NewValidationError(c, "Invalid line ID", nil)
	}

	quote, err := h.quoteService.DeleteLine(workspaceID, id, lineID)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to delete line")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// AddMilestone adds a payment milestone to a quote
// @Summary Add payment milestone
// @Tags quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Param request body MilestoneRequest true "Payment milestone"
// @Success 201 {object} QuoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /quotes/{id}/milestones [post]
func (h *QuoteHandler) AddMilestone(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	var req MilestoneRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.MilestoneInput{
		Label:      req.Label,
		AmountType: domain.AmountType(req.AmountType),
	}
	if req.BillingDate != "" {
		date, err := time.Parse(dateLayout, req.BillingDate)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "billingDate", Message: "Must be a date in YYYY-MM-DD format"},
			})
		}
		input.BillingDate = date
	}
	if errs := parseDecimalFields(
		decimalField{"percent", req.Percent, &input.Percent},
		decimalField{"fixedAmount", req.FixedAmount, &input.FixedAmount},
	); len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	quote, err := h.quoteService.AddMilestone(workspaceID, id, input)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to add milestone")
	}
	return c.JSON(http.StatusCreated, toQuoteResponse(quote))
}

// DeleteMilestone handles DELETE /api/v1/quotes/:id/milestones/:milestoneId
func (h *QuoteHandler) DeleteMilestone(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}
	milestoneID, ok := paramID(c, "milestoneId")
	if !ok {
		return NewValidationError(c, "Invalid milestone ID", nil)
	}

	quote, err := h.quoteService.DeleteMilestone(workspaceID, id, milestoneID)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to delete milestone")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}
