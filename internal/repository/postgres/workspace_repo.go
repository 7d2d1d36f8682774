package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// GetByID retrieves a workspace by its ID
func (r *WorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT id, name, created_at, updated_at FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

// GetByMemberAuth0ID retrieves the workspace an Auth0 subject is a member of
func (r *WorkspaceRepository) GetByMemberAuth0ID(auth0ID string) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT w.id, w.name, w.created_at, w.updated_at
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.auth0_id = $1`, auth0ID)
	return scanWorkspace(row)
}

// GetAllWorkspaces returns every workspace, used by the recompute worker
func (r *WorkspaceRepository) GetAllWorkspaces() ([]*domain.Workspace, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT id, name, created_at, updated_at FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*domain.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := row.Scan(&ws.ID, &ws.Name, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}
