package agronomy

import "math"

// SmoothTemperatures applies 1-D Gaussian smoothing to a series for the
// dashboard temperature chart. The kernel is truncated at three standard
// deviations and renormalized at the edges so the series keeps its length.
// sigma <= 0 returns an unsmoothed copy.
func SmoothTemperatures(values []float64, sigma float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if sigma <= 0 || len(values) < 2 {
		return out
	}

	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}

	for i := range values {
		var sum, weight float64
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 || j >= len(values) {
				continue
			}
			sum += values[j] * w
			weight += w
		}
		out[i] = sum / weight
	}
	return out
}
