package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// Revaluer recomputes stored item state from movement history.
type Revaluer interface {
	RevalueAll(ctx context.Context) (int, error)
}

// InventoryRevaluationJob replays every item's movements and repairs drift.
type InventoryRevaluationJob struct {
	Inventory Revaluer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewInventoryRevaluationJob(inventory Revaluer, logger *slog.Logger, metrics *jobmetrics.Metrics) *InventoryRevaluationJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryRevaluationJob{Inventory: inventory, Logger: logger, Metrics: metrics}
}

func (j *InventoryRevaluationJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("inventory revaluation: handler not configured")
	}
	tracker := j.Metrics.Track(TaskInventoryRevaluation)
	repaired, err := j.Inventory.RevalueAll(ctx)
	j.Metrics.AddRepairs(TaskInventoryRevaluation, repaired)
	if err != nil {
		j.Logger.Error("inventory revaluation failed", slog.Int("repaired", repaired), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Logger.Info("inventory revaluation finished", slog.Int("repaired", repaired))
	return tracker.End(nil)
}
