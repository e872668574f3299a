package training

import (
	"time"

	"demandcast/internal/domain/catalog"
	"demandcast/internal/features"
	"demandcast/internal/ml"
)

// Sample is one (feature vector, observed next-day quantity) training pair.
// Samples are assembled fresh on every run and never persisted.
type Sample struct {
	Vector     features.Vector
	TargetDate time.Time
	Target     float64
	Group      catalog.Group
}

// Outcome is the per-group result of one training run
type Outcome struct {
	Group   catalog.Group `json:"group"`
	Success bool          `json:"success"`

	// Reason explains a skipped or failed group
	Reason string `json:"reason,omitempty"`

	Metrics      ml.EvalMetrics `json:"metrics"`
	TrainSamples int            `json:"train_samples"`
	EvalSamples  int            `json:"eval_samples"`

	// PositionalSplit marks that the date-based split yielded too few
	// evaluation samples and the 80/20 positional fallback applied
	PositionalSplit bool `json:"positional_split"`

	TrainedAt time.Time     `json:"trained_at"`
	Duration  time.Duration `json:"duration"`
}

func skippedOutcome(group catalog.Group, reason string) *Outcome {
	return &Outcome{Group: group, Success: false, Reason: reason}
}
