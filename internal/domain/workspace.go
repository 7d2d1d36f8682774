package domain

import "time"

// Workspace is one agency (tenant). Every quote, profile and task belongs to one.
type Workspace struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByID(id int32) (*Workspace, error)
	GetByMemberAuth0ID(auth0ID string) (*Workspace, error)
	GetAllWorkspaces() ([]*Workspace, error)
}
