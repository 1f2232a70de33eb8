package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity checks that the posted ledger still balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskInventoryRevaluation replays movement logs and repairs drifted items.
	TaskInventoryRevaluation = "inventory:revaluation"
)

// LedgerIntegrityPayload selects the cut-off date; zero means the run date.
type LedgerIntegrityPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// InventoryRevaluationPayload carries scheduling metadata.
type InventoryRevaluationPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func NewLedgerIntegrityTask(asOf time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerIntegrityPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault)), nil
}

func NewInventoryRevaluationTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(InventoryRevaluationPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInventoryRevaluation, body, asynq.Queue(QueueDefault)), nil
}

// NewTask builds a task by type name with its default payload.
func NewTask(name string, now time.Time) (*asynq.Task, error) {
	switch name {
	case TaskLedgerIntegrity:
		return NewLedgerIntegrityTask(time.Time{})
	case TaskInventoryRevaluation:
		return NewInventoryRevaluationTask(now)
	default:
		return nil, fmt.Errorf("jobs: unsupported task %q", name)
	}
}
