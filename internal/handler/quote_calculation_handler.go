package handler

import (
	"net/http"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// GetTotals returns the aggregated amounts of a quote
// @Summary Quote totals
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Success 200 {object} TotalsResponse
// @Failure 404 {object} ProblemDetails
// @Router /quotes/{id}/totals [get]
func (h *QuoteHandler) GetTotals(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	quote, totals, err := h.calculation.GetTotals(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to compute quote totals")
	}
	return c.JSON(http.StatusOK, toTotalsResponse(quote, totals))
}

// GetBreakdown returns per-section, per-line, schedule and margin figures
// @Summary Quote breakdown
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Success 200 {object} BreakdownResponse
// @Failure 404 {object} ProblemDetails
// @Router /quotes/{id}/breakdown [get]
func (h *QuoteHandler) GetBreakdown(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	breakdown, err := h.calculation.GetBreakdown(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to compute quote breakdown")
	}
	return c.JSON(http.StatusOK, toBreakdownResponse(breakdown))
}

// GetCoverage handles GET /api/v1/quotes/:id/coverage
func (h *QuoteHandler) GetCoverage(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	quote, err := h.calculation.LoadQuote(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to check payment schedule")
	}

	covered, scheduled := quote.ValidatePaymentScheduleCoverage()
	final := quote.FinalAmount()
	return c.JSON(http.StatusOK, CoverageResponse{
		QuoteID:        quote.ID,
		Covered:        covered,
		FinalAmount:    domain.FormatMoney(final),
		ScheduledTotal: domain.FormatMoney(scheduled),
		Difference:     domain.FormatMoney(final.Sub(scheduled)),
		Milestones:     toScheduleResponse(quote.ScheduledAmounts()),
	})
}

// Recompute refreshes the cached total of a quote from its sections
// @Summary Recompute quote total
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Success 200 {object} TotalsResponse
// @Failure 404 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Router /quotes/{id}/recompute [post]
func (h *QuoteHandler) Recompute(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	quote, err := h.calculation.Recompute(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to recompute quote")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", id).
		Str("total", domain.FormatMoney(quote.TotalAmount)).
		Msg("Quote recomputed")

	return c.JSON(http.StatusOK, toTotalsResponse(quote, h.calculation.ComputeTotals(quote)))
}

// ExportQuote renders the breakdown workbook and returns a download URL
// @Summary Export quote
// @Description Uploads an XLSX breakdown of the quote and returns a presigned download URL
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Success 201 {object} service.ExportResult
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /quotes/{id}/export [post]
func (h *QuoteHandler) ExportQuote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	result, err := h.export.Export(c.Request().Context(), workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to export quote")
	}
	return c.JSON(http.StatusCreated, result)
}
