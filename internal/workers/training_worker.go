package workers

import (
	"context"
	"time"

	"demandcast/internal/training"
)

// TrainingWorker runs the batch retrain on a fixed schedule. One iteration
// trains every category group; per-group failures are reported in the
// outcome map and never abort the iteration.
type TrainingWorker struct {
	*BaseWorker
	trainer      *training.Trainer
	lookbackDays int
}

// NewTrainingWorker creates the periodic retraining worker
func NewTrainingWorker(trainer *training.Trainer, lookbackDays int, interval time.Duration, enabled bool) *TrainingWorker {
	return &TrainingWorker{
		BaseWorker:   NewBaseWorker("model_training", interval, enabled),
		trainer:      trainer,
		lookbackDays: lookbackDays,
	}
}

// Run executes one full training pass
func (w *TrainingWorker) Run(ctx context.Context) error {
	w.Log().Info("Training run starting")

	outcomes, err := w.trainer.TrainAllGroups(ctx, w.lookbackDays)
	w.RecordRun(err)
	if err != nil {
		return err
	}

	succeeded, failed := 0, 0
	for group, outcome := range outcomes {
		if outcome.Success {
			succeeded++
			continue
		}
		failed++
		w.Log().Warnw("Group not trained", "group", group, "reason", outcome.Reason)
	}

	w.Log().Infow("Training run finished", "succeeded", succeeded, "failed", failed)
	return nil
}
