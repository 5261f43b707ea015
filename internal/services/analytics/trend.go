package analytics

import (
	"math"

	"HydroFlow/internal/domain/models"
)

// TrendReading is the classifier output for one bar.
type TrendReading struct {
	Smoothed float64
	Slope    float64
	Hurst    float64
	State    models.TrendState
}

// TrendClassifier smooths closes with a two-pole SuperSmoother and labels the trend
// from the smoothed slope and the Hurst exponent.
type TrendClassifier struct {
	c1, c2, c3 float64
	threshold  float64
	hurst      *HurstEstimator

	smoothed *IndicatorSeries[float64]
	slope    *IndicatorSeries[float64]
	hurstVal *IndicatorSeries[float64]
	state    *IndicatorSeries[models.TrendState]
}

// NewTrendClassifier builds a classifier with smoothing length L and the given persistence threshold.
func NewTrendClassifier(length int, threshold float64, hurst *HurstEstimator) *TrendClassifier {
	c1, c2, c3 := SuperSmootherCoefficients(length)
	return &TrendClassifier{
		c1: c1, c2: c2, c3: c3,
		threshold: threshold,
		hurst:     hurst,
		smoothed:  NewIndicatorSeries(0.0),
		slope:     NewIndicatorSeries(0.0),
		hurstVal:  NewIndicatorSeries(HurstDefault),
		state:     NewIndicatorSeries(models.TrendFlat),
	}
}

// SuperSmootherCoefficients returns c1, c2, c3 for smoothing length L.
func SuperSmootherCoefficients(length int) (c1, c2, c3 float64) {
	if length < 1 {
		length = 1
	}
	arg := 1.414 * math.Pi / float64(length)
	a1 := math.Exp(-arg)
	c2 = 2 * a1 * math.Cos(arg)
	c3 = -a1 * a1
	c1 = (1 - c2 - c3) / 2
	return c1, c2, c3
}

// Update computes the reading for bar i. Bars 0 and 1 seed the filter with the raw close.
func (t *TrendClassifier) Update(s *PriceSeries, i int) TrendReading {
	if i < 0 || i >= s.Len() {
		return TrendReading{Hurst: HurstDefault, State: models.TrendFlat}
	}
	if i < 2 {
		close := s.At(i).Close
		t.smoothed.Set(i, close)
		t.slope.Set(i, 0)
		t.hurstVal.Set(i, HurstDefault)
		t.state.Set(i, models.TrendFlat)
		return TrendReading{Smoothed: close, Hurst: HurstDefault, State: models.TrendFlat}
	}

	p0, p1 := s.At(i).Close, s.At(i-1).Close
	sm := t.c1*(p0+p1)/2 + t.c2*t.smoothed.At(i-1) + t.c3*t.smoothed.At(i-2)
	slope := sm - t.smoothed.At(i-1)
	h := t.hurst.At(s, i)

	state := models.TrendFlat
	switch {
	case slope > 0 && h > t.threshold:
		state = models.TrendUp
	case slope < 0 && h > t.threshold:
		state = models.TrendDown
	}

	t.smoothed.Set(i, sm)
	t.slope.Set(i, slope)
	t.hurstVal.Set(i, h)
	t.state.Set(i, state)
	return TrendReading{Smoothed: sm, Slope: slope, Hurst: h, State: state}
}

// At returns the stored reading for bar i.
func (t *TrendClassifier) At(i int) TrendReading {
	return TrendReading{
		Smoothed: t.smoothed.At(i),
		Slope:    t.slope.At(i),
		Hurst:    t.hurstVal.At(i),
		State:    t.state.At(i),
	}
}
