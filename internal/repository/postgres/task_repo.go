package postgres

import (
	"context"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, workspace_id, derivation_key, quote_id, line_id, description, assignee_id, profile_id,
	estimated_hours, daily_rate, created_at, updated_at`

// TaskRepository implements domain.TaskRepository using PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// UpsertByKey inserts a task or refreshes the row holding the same derivation key.
// xmax is zero only for a row version created by an INSERT, which tells the two cases apart.
func (r *TaskRepository) UpsertByKey(task *domain.ExecutionTask) (*domain.ExecutionTask, bool, error) {
	hours, err := decimalToPgNumeric(task.EstimatedHours)
	if err != nil {
		return nil, false, err
	}
	rate, err := decimalToPgNumeric(task.DailyRate)
	if err != nil {
		return nil, false, err
	}

	var inserted bool
	stored, err := scanTask(r.pool.QueryRow(context.Background(),
		`INSERT INTO execution_tasks (workspace_id, derivation_key, quote_id, line_id, description, assignee_id,
			profile_id, estimated_hours, daily_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (derivation_key) DO UPDATE SET
			description = EXCLUDED.description,
			assignee_id = EXCLUDED.assignee_id,
			profile_id = EXCLUDED.profile_id,
			estimated_hours = EXCLUDED.estimated_hours,
			daily_rate = EXCLUDED.daily_rate,
			updated_at = NOW()
		 RETURNING `+taskColumns+`, (xmax = 0)`,
		task.WorkspaceID, pgtype.UUID{Bytes: task.DerivationKey, Valid: true}, task.QuoteID, task.LineID,
		task.Description, task.AssigneeID, task.ProfileID, hours, rate,
	), &inserted)
	if err != nil {
		return nil, false, err
	}
	return stored, inserted, nil
}

// GetByQuote returns the tasks derived from a quote
func (r *TaskRepository) GetByQuote(workspaceID int32, quoteID int32) ([]*domain.ExecutionTask, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+taskColumns+` FROM execution_tasks
		 WHERE workspace_id = $1 AND quote_id = $2
		 ORDER BY line_id`,
		workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.ExecutionTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// scanTask scans the task columns followed by any extra destinations
func scanTask(row pgx.Row, extra ...any) (*domain.ExecutionTask, error) {
	var t domain.ExecutionTask
	var key pgtype.UUID
	var hours, rate pgtype.Numeric
	dest := []any{&t.ID, &t.WorkspaceID, &key, &t.QuoteID, &t.LineID, &t.Description, &t.AssigneeID,
		&t.ProfileID, &hours, &rate, &t.CreatedAt, &t.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.DerivationKey = uuid.UUID(key.Bytes)
	t.EstimatedHours = pgNumericToDecimal(hours)
	t.DailyRate = pgNumericToDecimal(rate)
	return &t, nil
}
