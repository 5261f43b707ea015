package trading

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"HydroFlow/internal/domain/models"
)

var (
	ErrVolumeTooSmall = errors.New("volume below symbol minimum")
	ErrInvalidStop    = errors.New("invalid stop distance")
)

// SizingInput is everything the sizer needs for one entry.
type SizingInput struct {
	Direction models.Direction
	Entry     float64 // ask for buys, bid for sells
	Anchor    float64
	FD        float64
	Hurst     float64
	ATR       float64
	ATRValid  bool
	Symbol    models.SymbolInfo
	Balance   float64
}

// Sizing is the computed order geometry.
type Sizing struct {
	Stretch      float64
	Multiplier   float64
	StopDistance float64
	StopPips     float64
	Volume       float64
	TP1          float64
	TP2          float64
}

// RiskSizer turns an accepted entry into stop distance, volume and targets.
type RiskSizer struct {
	riskPercent float64
	bufferPips  float64
	dynamic     bool
	baseMult    float64
	ballistic   float64
}

func NewRiskSizer(p Params) *RiskSizer {
	return &RiskSizer{
		riskPercent: p.RiskPercent,
		bufferPips:  p.StopBufferPips,
		dynamic:     p.DynamicStop,
		baseMult:    p.BaseStopMultiplier,
		ballistic:   p.BallisticMultiplier,
	}
}

// Size computes the order. Complex fractal structure and weak persistence widen the stop;
// the stop is never tighter than the distance back through the anchor plus the buffer.
func (r *RiskSizer) Size(in SizingInput) (Sizing, error) {
	sym := in.Symbol
	if sym.PipSize <= 0 || sym.PipValue <= 0 {
		return Sizing{}, ErrInvalidStop
	}

	stretch := math.Abs(in.Entry - in.Anchor)
	stretchStop := stretch + r.bufferPips*sym.PipSize
	out := Sizing{Stretch: stretch, StopDistance: stretchStop}

	if r.dynamic && in.ATRValid && isFinite(in.ATR) {
		m := ((1 + (in.FD - 1)) / (1 + in.Hurst)) * r.baseMult
		out.Multiplier = m
		out.StopDistance = math.Max(math.Max(m*in.ATR, 0.5*in.ATR), stretchStop)
	}
	if !(out.StopDistance > 0) || !isFinite(out.StopDistance) {
		return Sizing{}, ErrInvalidStop
	}
	out.StopPips = out.StopDistance / sym.PipSize

	risk := in.Balance * (r.riskPercent / 100)
	volume := NormalizeVolume(risk/(out.StopPips*sym.PipValue), sym)
	volume = math.Max(sym.VolumeMin, volume)
	volume = math.Min(sym.VolumeMax, volume)
	if !isFinite(volume) || volume < sym.VolumeMin || volume <= 0 {
		return Sizing{}, ErrVolumeTooSmall
	}
	out.Volume = volume
	_, out.TP1, out.TP2 = r.Targets(in.Direction, in.Entry, in.Anchor)
	return out, nil
}

// Targets returns the stretch between entry and anchor and the two take-profit levels:
// the anchor itself and the anchor pushed on by the ballistic multiple of the stretch.
func (r *RiskSizer) Targets(dir models.Direction, entry, anchor float64) (stretch, tp1, tp2 float64) {
	stretch = math.Abs(entry - anchor)
	tp1 = anchor
	if dir == models.Buy {
		tp2 = anchor + stretch*r.ballistic
	} else {
		tp2 = anchor - stretch*r.ballistic
	}
	return stretch, tp1, tp2
}

// NormalizeVolume rounds v down to a multiple of the symbol's volume step.
// Non-finite input is returned unchanged.
func NormalizeVolume(v float64, sym models.SymbolInfo) float64 {
	if !isFinite(v) || sym.VolumeStep <= 0 {
		return v
	}
	step := decimal.NewFromFloat(sym.VolumeStep)
	n := decimal.NewFromFloat(v).Div(step).Floor()
	out, _ := n.Mul(step).Float64()
	return out
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
