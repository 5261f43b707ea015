package analytics

import "math"

const (
	FractalDefault = 1.0
	FractalMin     = 1.0
	FractalMax     = 2.0
)

// FDZone buckets a fractal dimension reading for display.
type FDZone string

const (
	ZoneTrend   FDZone = "trend"
	ZoneWarning FDZone = "warning"
	ZoneChaos   FDZone = "chaos"
)

// Zone boundaries of the fractal dimension histogram.
const (
	zoneChaosAbove   = 1.6
	zoneWarningAbove = 1.5
)

// Zone classifies fd: above 1.6 is chaos, above 1.5 is a warning, anything else is trending.
func Zone(fd float64) FDZone {
	switch {
	case fd > zoneChaosAbove:
		return ZoneChaos
	case fd > zoneWarningAbove:
		return ZoneWarning
	default:
		return ZoneTrend
	}
}

// FractalDimensionEstimator computes the Higuchi fractal dimension of a trailing window of closes.
type FractalDimensionEstimator struct {
	window int
	maxK   int
}

func NewFractalDimensionEstimator(window, maxK int) *FractalDimensionEstimator {
	return &FractalDimensionEstimator{window: window, maxK: maxK}
}

// At estimates the dimension for bar index i of s. Indexes below window-1 return FractalDefault.
func (f *FractalDimensionEstimator) At(s *PriceSeries, i int) float64 {
	if f.window < 2 || i < f.window-1 {
		return FractalDefault
	}
	return f.Estimate(s.Closes(i, f.window))
}

// Estimate runs Higuchi's method over x and returns a dimension clamped to [1, 2].
// A flat or otherwise degenerate curve returns FractalDefault.
func (f *FractalDimensionEstimator) Estimate(x []float64) float64 {
	w := len(x)
	if w < 2 {
		return FractalDefault
	}

	var xs, ys []float64
	for k := 1; k <= f.maxK; k++ {
		sum, valid := 0.0, 0
		for m := 0; m < k; m++ {
			points := (w - m - 1) / k
			if points < 1 {
				continue
			}
			length := 0.0
			for i := 1; i <= points; i++ {
				length += math.Abs(x[m+i*k] - x[m+(i-1)*k])
			}
			norm := float64(w-1) / float64(points*k*k)
			sum += length * norm
			valid++
		}
		if valid == 0 {
			continue
		}
		lk := sum / float64(valid)
		if lk > 0 && isFinite(lk) {
			xs = append(xs, math.Log(1/float64(k)))
			ys = append(ys, math.Log(lk))
		}
	}

	slope, ok := olsSlope(xs, ys)
	if !ok {
		return FractalDefault
	}
	return clamp(slope, FractalMin, FractalMax)
}
