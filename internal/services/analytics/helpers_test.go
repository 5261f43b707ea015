package analytics

import (
	"math"
	"math/rand"
	"time"

	"HydroFlow/internal/domain/models"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func seriesFromBars(bars []models.Bar) *PriceSeries {
	s := NewPriceSeries(len(bars))
	for _, b := range bars {
		s.Append(b)
	}
	return s
}

func seriesFromCloses(closes []float64) *PriceSeries {
	s := NewPriceSeries(len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Append(models.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c})
	}
	return s
}

func constantCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rampCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)*0.1
	}
	return out
}

// randomWalk compounds Gaussian log-returns from 100.
func randomWalk(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		out[i] = p
		p *= math.Exp(r.NormFloat64() * 0.01)
	}
	return out
}
