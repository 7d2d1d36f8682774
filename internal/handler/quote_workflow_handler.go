package handler

import (
	"net/http"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ChangeStatusRequest represents the status change request body
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus moves a quote along its workflow
// @Summary Change quote status
// @Description Fixed price quotes can only be won or signed once the payment schedule covers the final amount
// @Tags quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Param request body ChangeStatusRequest true "Target status"
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /quotes/{id}/status [patch]
func (h *QuoteHandler) ChangeStatus(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	var req ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	quote, err := h.workflow.ChangeStatus(workspaceID, id, domain.QuoteStatus(req.Status))
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to change quote status")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(quote))
}

// DeriveTasks projects the service lines of an accepted quote into execution tasks
// @Summary Derive execution tasks
// @Tags quotes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quote ID"
// @Success 200 {object} TaskDerivationResponse
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /quotes/{id}/tasks [post]
func (h *QuoteHandler) DeriveTasks(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	result, err := h.tasks.DeriveTasks(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to derive tasks")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", id).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Tasks derived")

	return c.JSON(http.StatusOK, TaskDerivationResponse{
		Created: result.Created,
		Updated: result.Updated,
		Skipped: result.Skipped,
		Tasks:   toTaskResponses(result.Tasks),
	})
}

// GetTasks handles GET /api/v1/quotes/:id/tasks
func (h *QuoteHandler) GetTasks(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := paramID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid quote ID", nil)
	}

	tasks, err := h.tasks.GetTasks(workspaceID, id)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to get tasks")
	}
	return c.JSON(http.StatusOK, toTaskResponses(tasks))
}
