package modelstore

import (
	"demandcast/internal/domain/catalog"
	"demandcast/internal/features"
	"demandcast/internal/metrics"
)

// Predict serves one demand prediction for a freshly built feature vector.
// The second return is false when no model is loaded for the item's group
// or the vector does not match the schema; callers are expected to fall
// back to a non-ML estimate. Served predictions are clamped to be
// non-negative.
func (s *Store) Predict(vec features.Vector, categoryCode string) (float64, bool) {
	group := catalog.GroupOf(categoryCode)

	s.mu.RLock()
	artifact, ok := s.models[group]
	s.mu.RUnlock()

	if !ok {
		metrics.Predictions.WithLabelValues(group.String(), "unavailable").Inc()
		return 0, false
	}
	if len(vec) != artifact.FeatureCount {
		s.log.Warnw("Prediction refused: vector length mismatch",
			"group", group,
			"got", len(vec),
			"want", artifact.FeatureCount)
		metrics.Predictions.WithLabelValues(group.String(), "unavailable").Inc()
		return 0, false
	}

	pred := artifact.Ensemble.Predict(vec)
	if pred < 0 {
		pred = 0
	}

	metrics.Predictions.WithLabelValues(group.String(), "served").Inc()
	return pred, true
}

// PredictBatch serves predictions for a batch of vectors sharing one
// category code. The ok slice marks which entries were served.
func (s *Store) PredictBatch(vecs []features.Vector, categoryCode string) ([]float64, []bool) {
	preds := make([]float64, len(vecs))
	oks := make([]bool, len(vecs))
	for i, vec := range vecs {
		preds[i], oks[i] = s.Predict(vec, categoryCode)
	}
	return preds, oks
}
