package ml

import "math"

// EvalMetrics summarizes held-out evaluation of one trained ensemble.
// Pinball at the group alpha is the primary fit-for-purpose metric; it
// reflects the intended asymmetric ordering cost.
type EvalMetrics struct {
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
	MAPE    float64 `json:"mape"`
	Pinball float64 `json:"pinball"`
	Alpha   float64 `json:"alpha"`
}

// Evaluate computes evaluation metrics for predictions against observed
// targets at the given quantile level. MAPE is averaged over nonzero
// targets only.
func Evaluate(predicted, observed []float64, alpha float64) EvalMetrics {
	n := float64(len(observed))
	if n == 0 {
		return EvalMetrics{Alpha: alpha}
	}

	var absSum, sqSum, pctSum, pinballSum float64
	pctN := 0.0
	for i := range observed {
		diff := observed[i] - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff

		if observed[i] != 0 {
			pctSum += math.Abs(diff) / math.Abs(observed[i])
			pctN++
		}

		if diff > 0 {
			pinballSum += alpha * diff
		} else {
			pinballSum += (alpha - 1) * diff
		}
	}

	m := EvalMetrics{
		MAE:     absSum / n,
		RMSE:    math.Sqrt(sqSum / n),
		Pinball: pinballSum / n,
		Alpha:   alpha,
	}
	if pctN > 0 {
		m.MAPE = pctSum / pctN * 100
	}
	return m
}
