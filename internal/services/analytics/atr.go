package analytics

import (
	"github.com/markcheno/go-talib"

	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/domain/service"
)

// TalibATR averages the true range with a simple moving average over period bars.
// Only the most recent bars needed for the calculation are kept.
type TalibATR struct {
	period int
	highs  []float64
	lows   []float64
	closes []float64
	value  float64
	ready  bool
}

var _ service.ATRProvider = (*TalibATR)(nil)

func NewTalibATR(period int) *TalibATR {
	if period < 1 {
		period = 1
	}
	return &TalibATR{period: period}
}

// Update feeds a closed bar.
func (a *TalibATR) Update(b models.Bar) {
	keep := a.period*2 + 1
	a.highs = appendBounded(a.highs, b.High, keep)
	a.lows = appendBounded(a.lows, b.Low, keep)
	a.closes = appendBounded(a.closes, b.Close, keep)

	// The first true range has no previous close, so it needs period+1 bars.
	if len(a.closes) <= a.period {
		a.ready = false
		return
	}
	tr := talib.TRange(a.highs, a.lows, a.closes)
	sma := talib.Sma(tr[1:], a.period)
	v := sma[len(sma)-1]
	a.value, a.ready = v, isFinite(v) && v > 0
}

// Value returns the latest ATR once enough bars were seen.
func (a *TalibATR) Value() (float64, bool) { return a.value, a.ready }

func appendBounded(xs []float64, v float64, n int) []float64 {
	xs = append(xs, v)
	if len(xs) > n {
		xs = append(xs[:0], xs[len(xs)-n:]...)
	}
	return xs
}
