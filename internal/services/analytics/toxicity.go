package analytics

import (
	"math"
	"sort"
)

const (
	toxicityMinSamples = 10
	medianZeroEps      = 1e-12
	madWidth           = 2.0
)

// ToxicityReading summarizes spread quality.
type ToxicityReading struct {
	Score     float64
	EffSpread float64
	Safe      bool
}

// ToxicityMonitor flags markets whose current spread regime is wide relative to its recent median.
type ToxicityMonitor struct {
	threshold float64
	spreads   *RollingWindow
	last      ToxicityReading
}

func NewToxicityMonitor(threshold float64, historySize int) *ToxicityMonitor {
	return &ToxicityMonitor{
		threshold: threshold,
		spreads:   NewRollingWindow(historySize),
		last:      ToxicityReading{Safe: true},
	}
}

// OnTick records the relative spread of a quote. Invalid quotes leave the state untouched.
func (t *ToxicityMonitor) OnTick(bid, ask float64) ToxicityReading {
	mid := (bid + ask) / 2
	if bid <= 0 || ask <= 0 || ask < bid || mid <= 0 {
		return t.last
	}
	current := (ask - bid) / mid
	t.spreads.Push(current)

	if t.spreads.Len() < toxicityMinSamples {
		t.last = ToxicityReading{Score: 0, EffSpread: current, Safe: true}
		return t.last
	}

	values := t.spreads.Values()
	med := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	eff := med + madWidth*Median(deviations)

	score := 1.0
	if math.Abs(med) > medianZeroEps {
		score = eff / med
	}
	t.last = ToxicityReading{Score: score, EffSpread: eff, Safe: score < t.threshold}
	return t.last
}

func (t *ToxicityMonitor) Last() ToxicityReading { return t.last }

// Median of values, averaging the two middle elements for even counts. The input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
