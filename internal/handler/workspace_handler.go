package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// WorkspaceHandler handles workspace-related HTTP requests
type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(workspaceService *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// WorkspaceResponse represents the agency workspace of the caller
type WorkspaceResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Member    string `json:"member"`
	CreatedAt string `json:"createdAt"`
}

// GetWorkspace handles GET /api/v1/workspace
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	workspace, err := h.workspaceService.GetWorkspaceByID(workspaceID)
	if err != nil {
		return writeDomainError(c, err, workspaceID, "Failed to get workspace")
	}

	return c.JSON(http.StatusOK, WorkspaceResponse{
		ID:        workspace.ID,
		Name:      workspace.Name,
		Member:    middleware.GetAuth0ID(c),
		CreatedAt: workspace.CreatedAt.Format(time.RFC3339),
	})
}
