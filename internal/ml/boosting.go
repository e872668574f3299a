package ml

import (
	"demandcast/pkg/errors"
)

// BoostingParams configures the quantile gradient-boosting ensemble
type BoostingParams struct {
	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	MinLeaf      int     `json:"min_leaf"`

	// Alpha is the pinball-loss quantile level. Above 0.5 the model leans
	// toward over-prediction (under-prediction costs more), below 0.5 the
	// reverse.
	Alpha float64 `json:"alpha"`
}

// DefaultBoostingParams returns the production configuration at the given
// quantile level
func DefaultBoostingParams(alpha float64) BoostingParams {
	return BoostingParams{
		Rounds:       50,
		LearningRate: 0.1,
		MaxDepth:     4,
		MinLeaf:      5,
		Alpha:        alpha,
	}
}

// Boosting is gradient boosting over regression trees with an asymmetric
// pinball loss. Each round fits a tree to the pinball pseudo-gradients and
// replaces leaf values with the alpha-quantile of in-leaf residuals,
// pre-scaled by the learning rate so prediction is a plain sum.
type Boosting struct {
	Params    BoostingParams `json:"params"`
	BaseScore float64        `json:"base_score"`
	Trees     []*Tree        `json:"trees"`
}

// NewBoosting creates an unfitted boosting ensemble
func NewBoosting(params BoostingParams) *Boosting {
	return &Boosting{Params: params}
}

var _ Regressor = (*Boosting)(nil)

// Fit runs Params.Rounds boosting rounds on the training set
func (b *Boosting) Fit(X [][]float64, y []float64) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}
	alpha := b.Params.Alpha
	if alpha <= 0 || alpha >= 1 {
		return errors.Wrapf(errors.ErrInvalidInput, "alpha %v outside (0, 1)", alpha)
	}

	b.BaseScore = quantile(y, alpha)
	b.Trees = make([]*Tree, 0, b.Params.Rounds)

	current := make([]float64, len(y))
	for i := range current {
		current[i] = b.BaseScore
	}

	grads := make([]float64, len(y))
	for round := 0; round < b.Params.Rounds; round++ {
		// Negative pinball gradient: alpha when under-predicting,
		// alpha-1 when over-predicting
		for i := range y {
			if y[i] > current[i] {
				grads[i] = alpha
			} else {
				grads[i] = alpha - 1
			}
		}

		tree := NewTree(b.Params.MaxDepth, b.Params.MinLeaf)
		if err := tree.Fit(X, grads); err != nil {
			return errors.Wrapf(err, "boosting round %d", round)
		}

		b.assignQuantileLeaves(tree, X, y, current)
		b.Trees = append(b.Trees, tree)

		for i := range current {
			current[i] += tree.Predict(X[i])
		}
	}
	return nil
}

// assignQuantileLeaves replaces each leaf's value with the learning-rate
// scaled alpha-quantile of the residuals that land in it
func (b *Boosting) assignQuantileLeaves(tree *Tree, X [][]float64, y, current []float64) {
	residualsByLeaf := make(map[int][]float64)
	for i := range X {
		leaf := tree.Leaf(X[i])
		residualsByLeaf[leaf] = append(residualsByLeaf[leaf], y[i]-current[i])
	}

	for leaf, residuals := range residualsByLeaf {
		tree.SetLeafValue(leaf, b.Params.LearningRate*quantile(residuals, b.Params.Alpha))
	}
}

// Predict returns the boosted prediction for a single vector
func (b *Boosting) Predict(x []float64) float64 {
	pred := b.BaseScore
	for _, tree := range b.Trees {
		pred += tree.Predict(x)
	}
	return pred
}

// FeatureGains returns per-feature split gains summed over all rounds
func (b *Boosting) FeatureGains() []float64 {
	var gains []float64
	for _, tree := range b.Trees {
		gains = addGains(gains, tree.FeatureGains())
	}
	return gains
}
