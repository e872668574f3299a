package ml

import (
	"math"
	"sort"
)

const maxSplitCandidates = 32

// TreeNode is one node of a regression tree. Leaves have Feature == -1.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a CART-style regression tree with variance-reduction splits.
// Node storage is a flat array so the fitted tree serializes to JSON as-is.
type Tree struct {
	Nodes    []TreeNode `json:"nodes"`
	MaxDepth int        `json:"max_depth"`
	MinLeaf  int        `json:"min_leaf"`

	gains []float64
}

// NewTree creates an unfitted regression tree
func NewTree(maxDepth, minLeaf int) *Tree {
	return &Tree{MaxDepth: maxDepth, MinLeaf: minLeaf}
}

var _ Regressor = (*Tree)(nil)

// Fit grows the tree on the given training set
func (t *Tree) Fit(X [][]float64, y []float64) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}

	t.Nodes = t.Nodes[:0]
	t.gains = make([]float64, len(X[0]))

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.grow(X, y, indices, 0)
	return nil
}

// Predict routes x down to a leaf and returns its value
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	return t.Nodes[t.Leaf(x)].Value
}

// Leaf returns the index of the leaf node x falls into
func (t *Tree) Leaf(x []float64) int {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return idx
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// SetLeafValue overwrites the value of a leaf node. Used by boosting to
// replace mean leaf values with loss-specific ones.
func (t *Tree) SetLeafValue(idx int, value float64) {
	t.Nodes[idx].Value = value
}

// FeatureGains returns the accumulated squared-error reduction per feature
// from the last Fit call
func (t *Tree) FeatureGains() []float64 {
	return t.gains
}

// grow recursively builds the subtree for the given sample indices and
// returns the new node's index
func (t *Tree) grow(X [][]float64, y []float64, indices []int, depth int) int {
	mean, sse := meanSSE(y, indices)

	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Feature: -1, Left: -1, Right: -1, Value: mean})

	if depth >= t.MaxDepth || len(indices) < 2*t.MinLeaf || sse == 0 {
		return idx
	}

	feature, threshold, gain := t.bestSplit(X, y, indices, sse)
	if feature < 0 {
		return idx
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.MinLeaf || len(right) < t.MinLeaf {
		return idx
	}

	t.gains[feature] += gain
	t.Nodes[idx].Feature = feature
	t.Nodes[idx].Threshold = threshold
	leftIdx := t.grow(X, y, left, depth+1)
	rightIdx := t.grow(X, y, right, depth+1)
	t.Nodes[idx].Left = leftIdx
	t.Nodes[idx].Right = rightIdx
	return idx
}

// bestSplit scans quantile-spaced thresholds per feature and returns the
// split with the largest squared-error reduction, or feature -1 when none
// improves on the parent
func (t *Tree) bestSplit(X [][]float64, y []float64, indices []int, parentSSE float64) (int, float64, float64) {
	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	numFeatures := len(X[indices[0]])
	values := make([]float64, len(indices))

	for f := 0; f < numFeatures; f++ {
		for i, idx := range indices {
			values[i] = X[idx][f]
		}
		for _, threshold := range splitCandidates(values) {
			gain := splitGain(X, y, indices, f, threshold, parentSSE, t.MinLeaf)
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, threshold, gain
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// splitCandidates returns up to maxSplitCandidates thresholds spaced over
// the distinct sorted values, each the midpoint of an adjacent pair
func splitCandidates(values []float64) []float64 {
	distinct := distinctSorted(values)
	if len(distinct) < 2 {
		return nil
	}

	step := 1
	if len(distinct)-1 > maxSplitCandidates {
		step = (len(distinct) - 1) / maxSplitCandidates
	}

	var candidates []float64
	for i := 0; i < len(distinct)-1; i += step {
		candidates = append(candidates, (distinct[i]+distinct[i+1])/2)
	}
	return candidates
}

func splitGain(X [][]float64, y []float64, indices []int, feature int, threshold, parentSSE float64, minLeaf int) float64 {
	var leftN, rightN int
	var leftSum, rightSum, leftSq, rightSq float64

	for _, i := range indices {
		if X[i][feature] <= threshold {
			leftN++
			leftSum += y[i]
			leftSq += y[i] * y[i]
		} else {
			rightN++
			rightSum += y[i]
			rightSq += y[i] * y[i]
		}
	}
	if leftN < minLeaf || rightN < minLeaf {
		return 0
	}

	leftSSE := leftSq - leftSum*leftSum/float64(leftN)
	rightSSE := rightSq - rightSum*rightSum/float64(rightN)
	gain := parentSSE - leftSSE - rightSSE
	if math.IsNaN(gain) || gain < 0 {
		return 0
	}
	return gain
}

func meanSSE(y []float64, indices []int) (float64, float64) {
	if len(indices) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += y[i]
	}
	mean := sum / float64(len(indices))

	sse := 0.0
	for _, i := range indices {
		diff := y[i] - mean
		sse += diff * diff
	}
	return mean, sse
}

func distinctSorted(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	distinct := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	return distinct
}
