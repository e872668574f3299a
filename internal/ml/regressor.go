// Package ml implements the regression learners behind the demand models.
// Learners are in-process and train on flat feature matrices; everything a
// learner needs to predict again later is in its exported, JSON-serializable
// state.
package ml

import (
	"math"
	"sort"

	"demandcast/pkg/errors"
)

// Regressor is the two-operation contract the training and prediction
// pipeline composes. Concrete learning algorithms are substitutable behind
// it without touching feature building, orchestration or persistence.
type Regressor interface {
	// Fit trains the regressor on a feature matrix and target slice
	Fit(X [][]float64, y []float64) error

	// Predict returns the regression output for a single feature vector
	Predict(x []float64) float64
}

func validateFitInput(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "empty training set")
	}
	if len(X) != len(y) {
		return errors.Wrapf(errors.ErrInvalidInput,
			"feature matrix has %d rows, target has %d", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return errors.Wrapf(errors.ErrInvalidInput,
				"row %d has %d features, expected %d", i, len(row), width)
		}
	}
	return nil
}

// quantile returns the q-th linear-interpolated quantile of values
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
