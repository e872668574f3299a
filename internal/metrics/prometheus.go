package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Training metrics
	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demandcast_training_runs_total",
			Help: "Total number of per-group training outcomes",
		},
		[]string{"group", "status"}, // status: success|skipped|failed
	)

	TrainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demandcast_training_duration_seconds",
			Help:    "Per-group training duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"group"},
	)

	TrainingSamples = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "demandcast_training_samples",
			Help: "Sample count used in the last training run",
			// split: train|eval
		},
		[]string{"group", "split"},
	)

	TrainingPinballLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "demandcast_training_pinball_loss",
			Help: "Held-out pinball loss at the group alpha from the last run",
		},
		[]string{"group"},
	)

	// Prediction metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demandcast_predictions_total",
			Help: "Total number of prediction calls",
		},
		[]string{"group", "status"}, // status: served|unavailable
	)

	ArtifactsLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "demandcast_artifacts_loaded",
			Help: "Whether a model artifact is loaded for the group (1/0)",
		},
		[]string{"group", "scope"}, // scope: store|global
	)

	StaleArtifacts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demandcast_stale_artifacts_total",
			Help: "Artifacts skipped at load time due to schema mismatch",
		},
		[]string{"group"},
	)
)

// Register registers all collectors with the default registry
func Register() {
	prometheus.MustRegister(
		TrainingRuns,
		TrainingDuration,
		TrainingSamples,
		TrainingPinballLoss,
		Predictions,
		ArtifactsLoaded,
		StaleArtifacts,
	)
}
