package analytics

import (
	"math"

	"github.com/markcheno/go-talib"

	"HydroFlow/internal/domain/models"
)

// PriceSeries is the append-only bar history. Bar indexes start at 0 and grow by one per Append.
type PriceSeries struct {
	bars []models.Bar
}

// NewPriceSeries creates an empty series with room for sizeHint bars.
func NewPriceSeries(sizeHint int) *PriceSeries {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &PriceSeries{bars: make([]models.Bar, 0, sizeHint)}
}

// Append stores b and returns its index.
func (s *PriceSeries) Append(b models.Bar) int {
	s.bars = append(s.bars, b)
	return len(s.bars) - 1
}

func (s *PriceSeries) Len() int { return len(s.bars) }

// At returns the bar at index i. It panics when i is out of range, like a slice.
func (s *PriceSeries) At(i int) models.Bar { return s.bars[i] }

// Last returns the newest bar.
func (s *PriceSeries) Last() (models.Bar, bool) {
	if len(s.bars) == 0 {
		return models.Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Closes returns the n closes ending at index end (inclusive), oldest first.
// It returns nil when fewer than n bars are available.
func (s *PriceSeries) Closes(end, n int) []float64 {
	if n <= 0 || end < 0 || end >= len(s.bars) || end-n+1 < 0 {
		return nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = s.bars[end-n+1+i].Close
	}
	return out
}

// HighestHigh scans bars [from, to] inclusive. Indexes are clipped to the series.
func (s *PriceSeries) HighestHigh(from, to int) float64 {
	from, to = s.clip(from, to)
	hi := math.Inf(-1)
	for i := from; i <= to; i++ {
		if s.bars[i].High > hi {
			hi = s.bars[i].High
		}
	}
	if math.IsInf(hi, -1) {
		return 0
	}
	return hi
}

// LowestLow scans bars [from, to] inclusive. Indexes are clipped to the series.
func (s *PriceSeries) LowestLow(from, to int) float64 {
	from, to = s.clip(from, to)
	lo := math.Inf(1)
	for i := from; i <= to; i++ {
		if s.bars[i].Low < lo {
			lo = s.bars[i].Low
		}
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	return lo
}

func (s *PriceSeries) clip(from, to int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to >= len(s.bars) {
		to = len(s.bars) - 1
	}
	return from, to
}

// IndicatorSeries maps bar index to a value. Indexes that were never set read as the default.
type IndicatorSeries[T any] struct {
	values []T
	def    T
}

// NewIndicatorSeries creates a series whose unset entries read as def.
func NewIndicatorSeries[T any](def T) *IndicatorSeries[T] {
	return &IndicatorSeries[T]{def: def}
}

// Set stores v at index i, filling any gap with the default.
func (s *IndicatorSeries[T]) Set(i int, v T) {
	if i < 0 {
		return
	}
	for len(s.values) <= i {
		s.values = append(s.values, s.def)
	}
	s.values[i] = v
}

// At returns the value at i, or the default when i was never set.
func (s *IndicatorSeries[T]) At(i int) T {
	if i < 0 || i >= len(s.values) {
		return s.def
	}
	return s.values[i]
}

// Last returns the newest value, or the default for an empty series.
func (s *IndicatorSeries[T]) Last() T { return s.At(len(s.values) - 1) }

func (s *IndicatorSeries[T]) Len() int { return len(s.values) }

// RollingWindow is a fixed-capacity FIFO of samples backed by a ring buffer.
// Once full, each Push evicts the oldest sample.
type RollingWindow struct {
	buf   []float64
	head  int
	count int
}

// NewRollingWindow creates a window holding at most capacity samples (minimum 1).
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &RollingWindow{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the window is full.
func (w *RollingWindow) Push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
}

func (w *RollingWindow) Len() int { return w.count }

func (w *RollingWindow) Cap() int { return len(w.buf) }

// Values returns a copy of the samples, oldest first.
func (w *RollingWindow) Values() []float64 {
	out := make([]float64, w.count)
	start := (w.head - w.count + len(w.buf)) % len(w.buf)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(start+i)%len(w.buf)]
	}
	return out
}

// Mean of the current samples; 0 when empty.
func (w *RollingWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return lastOf(talib.Sma(w.Values(), w.count))
}

// StdDev is the population standard deviation of the current samples. Variances below
// 1e-14 read as zero.
func (w *RollingWindow) StdDev() float64 {
	if w.count == 0 {
		return 0
	}
	return lastOf(talib.StdDev(w.Values(), w.count, 1))
}

func lastOf(v []float64) float64 { return v[len(v)-1] }

// Reset drops all samples.
func (w *RollingWindow) Reset() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.head = 0
	w.count = 0
}
