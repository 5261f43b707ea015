package analytics

import "math"

const (
	HurstDefault = 0.5
	HurstMin     = 0.01
	HurstMax     = 0.99
)

// DefaultHurstScales are the R/S block sizes. They are empirical tuning values.
var DefaultHurstScales = []int{5, 10, 20, 40}

// HurstEstimator computes the rescaled-range Hurst exponent over a trailing window of closes.
type HurstEstimator struct {
	period int
	scales []int
}

// NewHurstEstimator creates an estimator over period closes. Nil or empty scales use DefaultHurstScales.
func NewHurstEstimator(period int, scales []int) *HurstEstimator {
	if len(scales) == 0 {
		scales = DefaultHurstScales
	}
	return &HurstEstimator{period: period, scales: append([]int(nil), scales...)}
}

// At estimates the exponent for bar index i of s. Indexes below the period return HurstDefault.
func (h *HurstEstimator) At(s *PriceSeries, i int) float64 {
	if h.period < 2 || i < h.period {
		return HurstDefault
	}
	return h.Estimate(s.Closes(i, h.period))
}

// Estimate returns the clamped Hurst exponent of prices, or HurstDefault when the fit is not usable.
func (h *HurstEstimator) Estimate(prices []float64) float64 {
	if len(prices) < 2 {
		return HurstDefault
	}
	returns := logReturns(prices)

	var logTau, logRS []float64
	for _, tau := range h.scales {
		if tau <= 0 || tau > len(returns) {
			continue
		}
		blocks := len(returns) / tau
		if blocks < 2 {
			continue
		}
		sumRS, valid := 0.0, 0
		for b := 0; b < blocks; b++ {
			if rs, ok := rescaledRange(returns[b*tau : (b+1)*tau]); ok {
				sumRS += rs
				valid++
			}
		}
		if valid == 0 {
			continue
		}
		if avg := sumRS / float64(valid); avg > 0 {
			logTau = append(logTau, math.Log(float64(tau)))
			logRS = append(logRS, math.Log(avg))
		}
	}

	slope, ok := olsSlope(logTau, logRS)
	if !ok {
		return HurstDefault
	}
	return clamp(slope, HurstMin, HurstMax)
}

// rescaledRange returns R/S of one block. Blocks with zero range or near-zero dispersion are skipped.
func rescaledRange(block []float64) (float64, bool) {
	n := float64(len(block))
	mean := 0.0
	for _, r := range block {
		mean += r
	}
	mean /= n

	cum, maxCum, minCum, variance := 0.0, math.Inf(-1), math.Inf(1), 0.0
	for _, r := range block {
		d := r - mean
		cum += d
		maxCum = math.Max(maxCum, cum)
		minCum = math.Min(minCum, cum)
		variance += d * d
	}
	rng := maxCum - minCum
	std := math.Sqrt(variance / n)
	if std <= degenerateEps || rng <= 0 {
		return 0, false
	}
	return rng / std, true
}

// logReturns computes ln(p[i+1]/p[i]); a non-positive price yields a zero return.
func logReturns(prices []float64) []float64 {
	out := make([]float64, len(prices)-1)
	for i := range out {
		if prices[i] > 0 && prices[i+1] > 0 {
			out[i] = math.Log(prices[i+1] / prices[i])
		}
	}
	return out
}
