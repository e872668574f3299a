package ml

import (
	"math/rand"

	"demandcast/pkg/errors"
)

// BaggingParams configures the bootstrap-aggregated tree ensemble
type BaggingParams struct {
	NumTrees int   `json:"num_trees"`
	MaxDepth int   `json:"max_depth"`
	MinLeaf  int   `json:"min_leaf"`
	Seed     int64 `json:"seed"`
}

// DefaultBaggingParams returns the production configuration
func DefaultBaggingParams(seed int64) BaggingParams {
	return BaggingParams{
		NumTrees: 25,
		MaxDepth: 5,
		MinLeaf:  5,
		Seed:     seed,
	}
}

// Bagging is a bootstrap aggregation of regression trees with a default
// squared-error loss. Predictions are the mean tree vote.
type Bagging struct {
	Params BaggingParams `json:"params"`
	Trees  []*Tree       `json:"trees"`
}

// NewBagging creates an unfitted bagging ensemble
func NewBagging(params BaggingParams) *Bagging {
	return &Bagging{Params: params}
}

var _ Regressor = (*Bagging)(nil)

// Fit trains Params.NumTrees trees, each on a seeded bootstrap resample
func (b *Bagging) Fit(X [][]float64, y []float64) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(b.Params.Seed))
	n := len(X)
	b.Trees = make([]*Tree, 0, b.Params.NumTrees)

	for t := 0; t < b.Params.NumTrees; t++ {
		sampleX := make([][]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			sampleX[i] = X[j]
			sampleY[i] = y[j]
		}

		tree := NewTree(b.Params.MaxDepth, b.Params.MinLeaf)
		if err := tree.Fit(sampleX, sampleY); err != nil {
			return errors.Wrapf(err, "bagging tree %d", t)
		}
		b.Trees = append(b.Trees, tree)
	}
	return nil
}

// Predict returns the mean prediction over all trees
func (b *Bagging) Predict(x []float64) float64 {
	if len(b.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range b.Trees {
		sum += tree.Predict(x)
	}
	return sum / float64(len(b.Trees))
}

// FeatureGains returns per-feature split gains summed over all trees
func (b *Bagging) FeatureGains() []float64 {
	var gains []float64
	for _, tree := range b.Trees {
		gains = addGains(gains, tree.FeatureGains())
	}
	return gains
}

func addGains(acc, gains []float64) []float64 {
	if len(gains) == 0 {
		return acc
	}
	if acc == nil {
		acc = make([]float64, len(gains))
	}
	for i, g := range gains {
		acc[i] += g
	}
	return acc
}
