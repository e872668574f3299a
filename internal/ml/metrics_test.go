package ml

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	predicted := []float64{3, 5, 8}
	observed := []float64{4, 5, 6}

	m := Evaluate(predicted, observed, 0.7)

	// Errors: +1, 0, -2
	if math.Abs(m.MAE-1.0) > 1e-9 {
		t.Errorf("MAE = %v, want 1.0", m.MAE)
	}
	wantRMSE := math.Sqrt((1.0 + 0 + 4.0) / 3.0)
	if math.Abs(m.RMSE-wantRMSE) > 1e-9 {
		t.Errorf("RMSE = %v, want %v", m.RMSE, wantRMSE)
	}
	// MAPE over nonzero targets: (1/4 + 0/5 + 2/6)/3 * 100
	wantMAPE := (0.25 + 0 + 1.0/3.0) / 3.0 * 100
	if math.Abs(m.MAPE-wantMAPE) > 1e-9 {
		t.Errorf("MAPE = %v, want %v", m.MAPE, wantMAPE)
	}
	// Pinball at 0.7: under-prediction 1*0.7, exact 0, over-prediction 2*0.3
	wantPinball := (0.7 + 0 + 0.6) / 3.0
	if math.Abs(m.Pinball-wantPinball) > 1e-9 {
		t.Errorf("Pinball = %v, want %v", m.Pinball, wantPinball)
	}
}

func TestEvaluate_ZeroTargetsExcludedFromMAPE(t *testing.T) {
	m := Evaluate([]float64{1, 2}, []float64{0, 4}, 0.5)
	// Only the nonzero target contributes: |4-2|/4 = 0.5 -> 50%
	if math.Abs(m.MAPE-50.0) > 1e-9 {
		t.Errorf("MAPE = %v, want 50", m.MAPE)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	m := Evaluate(nil, nil, 0.6)
	if m.MAE != 0 || m.RMSE != 0 || m.MAPE != 0 || m.Pinball != 0 {
		t.Errorf("empty evaluation should be all zeros, got %+v", m)
	}
	if m.Alpha != 0.6 {
		t.Errorf("alpha should pass through, got %v", m.Alpha)
	}
}
