package ml

// Ensemble blends the bagging and boosting regressors for one category
// group with a fixed weight. Immutable once trained; retraining produces a
// new ensemble rather than mutating this one.
type Ensemble struct {
	Bagging  *Bagging  `json:"bagging"`
	Boosting *Boosting `json:"boosting"`

	// BlendWeight is the weight on the bagging output; the boosting output
	// gets 1 - BlendWeight
	BlendWeight float64 `json:"blend_weight"`

	// Alpha echoes the boosting quantile level for evaluation
	Alpha float64 `json:"alpha"`

	// FeatureImportances are normalized split gains per feature, captured at
	// training time
	FeatureImportances []float64 `json:"feature_importances,omitempty"`
}

// Predict returns the weighted blend of both regressors. Output is raw;
// callers clamp to the valid demand range.
func (e *Ensemble) Predict(x []float64) float64 {
	return e.BlendWeight*e.Bagging.Predict(x) + (1-e.BlendWeight)*e.Boosting.Predict(x)
}

// Importances computes normalized feature importances from the split gains
// of both regressors. Returns nil when no split was ever made.
func Importances(bagging *Bagging, boosting *Boosting) []float64 {
	gains := addGains(nil, bagging.FeatureGains())
	gains = addGains(gains, boosting.FeatureGains())
	if gains == nil {
		return nil
	}

	total := 0.0
	for _, g := range gains {
		total += g
	}
	if total == 0 {
		return nil
	}
	for i := range gains {
		gains[i] /= total
	}
	return gains
}
