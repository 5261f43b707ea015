package analytics

import "math"

// degenerateEps bounds regression denominators and dispersion measures below which a fit is ill-conditioned.
const degenerateEps = 1e-10

// olsSlope fits y = a + b·x by least squares and returns b.
// ok is false with fewer than two points, a near-zero denominator, or a non-finite slope.
func olsSlope(x, y []float64) (slope float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, false
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}
	n := float64(len(x))
	denom := n*sumX2 - sumX*sumX
	if math.Abs(denom) < degenerateEps {
		return 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom
	if !isFinite(slope) {
		return 0, false
	}
	return slope, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
