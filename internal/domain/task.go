package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// taskDerivationNamespace scopes the UUIDv5 keys of derived tasks
var taskDerivationNamespace = uuid.MustParse("6f1c2e0a-5d4b-4c8e-9a61-3b7d2f9e8c14")

// TaskDerivationKey returns the stable key of the task derived from a quote line.
// Deriving the same line twice yields the same key, so projection can upsert.
func TaskDerivationKey(quoteID, lineID int32) uuid.UUID {
	return uuid.NewSHA1(taskDerivationNamespace, []byte(fmt.Sprintf("quote:%d/line:%d", quoteID, lineID)))
}

// ExecutionTask is the delivery-tracking record projected from a sold service line
type ExecutionTask struct {
	ID             int32           `json:"id"`
	WorkspaceID    int32           `json:"workspaceId"`
	DerivationKey  uuid.UUID       `json:"derivationKey"`
	QuoteID        int32           `json:"quoteId"`
	LineID         int32           `json:"lineId"`
	Description    string          `json:"description"`
	AssigneeID     *int32          `json:"assigneeId,omitempty"`
	ProfileID      int32           `json:"profileId"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	DailyRate      decimal.Decimal `json:"dailyRate"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type TaskRepository interface {
	// UpsertByKey inserts the task or refreshes the one sharing its DerivationKey.
	// The bool is true when a new row was inserted.
	UpsertByKey(task *ExecutionTask) (*ExecutionTask, bool, error)
	GetByQuote(workspaceID int32, quoteID int32) ([]*ExecutionTask, error)
}
