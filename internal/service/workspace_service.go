package service

import (
	"github.com/dafibh/atelier/atelier-backend/internal/domain"
)

// WorkspaceService resolves the agency workspace of an authenticated member
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(workspaceRepo domain.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// GetWorkspaceByAuth0ID retrieves the workspace a member belongs to
func (s *WorkspaceService) GetWorkspaceByAuth0ID(auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByMemberAuth0ID(auth0ID)
}

// GetWorkspaceByID retrieves a workspace by its ID
func (s *WorkspaceService) GetWorkspaceByID(id int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(id)
}
