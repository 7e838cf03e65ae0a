package agronomy

import (
	"math"
	"testing"
)

func TestSmoothTemperatures_PreservesLength(t *testing.T) {
	values := []float64{18, 19, 25, 17, 20, 21, 16}
	out := SmoothTemperatures(values, 1.0)
	if len(out) != len(values) {
		t.Fatalf("length = %d, want %d", len(out), len(values))
	}
}

func TestSmoothTemperatures_ConstantSeriesUnchanged(t *testing.T) {
	values := []float64{20, 20, 20, 20, 20}
	out := SmoothTemperatures(values, 2.0)
	for i, v := range out {
		if math.Abs(v-20) > 1e-9 {
			t.Errorf("out[%d] = %v, want 20", i, v)
		}
	}
}

func TestSmoothTemperatures_ReducesSpike(t *testing.T) {
	values := []float64{20, 20, 20, 40, 20, 20, 20}
	out := SmoothTemperatures(values, 1.0)

	if out[3] >= 40 {
		t.Errorf("spike not reduced: %v", out[3])
	}
	if out[3] <= 20 {
		t.Errorf("spike over-smoothed: %v", out[3])
	}
	// Neighbors pick up some of the spike
	if out[2] <= 20 || out[4] <= 20 {
		t.Errorf("spike not spread to neighbors: %v", out)
	}
}

func TestSmoothTemperatures_ZeroSigmaIsCopy(t *testing.T) {
	values := []float64{18, 25, 12}
	out := SmoothTemperatures(values, 0)
	for i := range values {
		if out[i] != values[i] {
			t.Fatalf("out = %v, want copy of input", out)
		}
	}
	out[0] = 99
	if values[0] == 99 {
		t.Error("output aliases the input slice")
	}
}

func TestSmoothTemperatures_ShortSeries(t *testing.T) {
	if out := SmoothTemperatures([]float64{21.5}, 1.0); len(out) != 1 || out[0] != 21.5 {
		t.Errorf("single element series altered: %v", out)
	}
	if out := SmoothTemperatures(nil, 1.0); len(out) != 0 {
		t.Errorf("nil series produced output: %v", out)
	}
}
