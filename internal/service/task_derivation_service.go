package service

import (
	"fmt"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// TaskDerivationService projects the sold service lines of an accepted quote into execution tasks
type TaskDerivationService struct {
	taskRepo       domain.TaskRepository
	calculation    *QuoteCalculationService
	eventPublisher websocket.EventPublisher
}

// NewTaskDerivationService creates a new TaskDerivationService
func NewTaskDerivationService(taskRepo domain.TaskRepository, calculation *QuoteCalculationService) *TaskDerivationService {
	return &TaskDerivationService{
		taskRepo:    taskRepo,
		calculation: calculation,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TaskDerivationService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TaskDerivationService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// TaskDerivationResult reports what a derivation run wrote
type TaskDerivationResult struct {
	Tasks   []*domain.ExecutionTask
	Created int
	Updated int
	Skipped int
}

// DeriveTasks upserts one task per priced service line, keyed by quote and line.
// Running it again refreshes the same tasks instead of duplicating them.
func (s *TaskDerivationService) DeriveTasks(workspaceID int32, quoteID int32) (*TaskDerivationResult, error) {
	quote, err := s.calculation.LoadQuote(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusWon && quote.Status != domain.QuoteStatusSigned {
		return nil, domain.ErrTasksRequireAcceptedQuote
	}

	result := &TaskDerivationResult{}
	for _, line := range quote.Lines() {
		task, ok := line.DeriveTask(quote.ID)
		if !ok {
			result.Skipped++
			continue
		}
		task.WorkspaceID = workspaceID

		stored, inserted, err := s.taskRepo.UpsertByKey(task)
		if err != nil {
			return nil, fmt.Errorf("upsert task for line %d: %w", line.ID, err)
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
		result.Tasks = append(result.Tasks, stored)
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", quoteID).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("Derived execution tasks")

	s.publishEvent(workspaceID, websocket.QuoteTasksDerived(quoteID, map[string]interface{}{
		"quoteId": quoteID,
		"created": result.Created,
		"updated": result.Updated,
	}))
	return result, nil
}

// GetTasks returns the tasks derived from a quote
func (s *TaskDerivationService) GetTasks(workspaceID int32, quoteID int32) ([]*domain.ExecutionTask, error) {
	if _, err := s.calculation.LoadQuote(workspaceID, quoteID); err != nil {
		return nil, err
	}
	return s.taskRepo.GetByQuote(workspaceID, quoteID)
}
