package analytics

import "HydroFlow/internal/domain/models"

// Phase of the correction state machine.
type Phase int

const (
	PhaseNormal Phase = iota
	PhaseInCorrection
)

func (p Phase) String() string {
	if p == PhaseInCorrection {
		return "in_correction"
	}
	return "normal"
}

// CorrectionState is the current phase plus the reversion anchor captured at its start.
type CorrectionState struct {
	Phase       Phase
	AnchorPrice float64
	AnchorValid bool
}

// CorrectionStateMachine tracks FD-driven corrections with hysteresis between the chaos
// and stable thresholds.
type CorrectionStateMachine struct {
	chaos    float64
	stable   float64
	lookback int
	state    CorrectionState
}

func NewCorrectionStateMachine(chaos, stable float64, lookback int) *CorrectionStateMachine {
	if lookback < 0 {
		lookback = 0
	}
	return &CorrectionStateMachine{chaos: chaos, stable: stable, lookback: lookback}
}

// Update advances the machine with the FD reading and trend of bar i.
// Entering a correction captures the anchor and marks it invalid; leaving it validates the anchor.
func (c *CorrectionStateMachine) Update(s *PriceSeries, i int, fd float64, trend models.TrendState) CorrectionState {
	if i < 1 || i >= s.Len() {
		return c.state
	}
	switch c.state.Phase {
	case PhaseNormal:
		if fd >= c.chaos {
			c.state = CorrectionState{
				Phase:       PhaseInCorrection,
				AnchorPrice: c.anchor(s, i, trend),
				AnchorValid: false,
			}
		}
	case PhaseInCorrection:
		if fd < c.stable {
			c.state.Phase = PhaseNormal
			c.state.AnchorValid = true
		}
	}
	return c.state
}

func (c *CorrectionStateMachine) anchor(s *PriceSeries, i int, trend models.TrendState) float64 {
	from := i - c.lookback
	if from < 0 {
		from = 0
	}
	switch trend {
	case models.TrendUp:
		return s.HighestHigh(from, i)
	case models.TrendDown:
		return s.LowestLow(from, i)
	default:
		return s.At(i).Close
	}
}

// Invalidate consumes the anchor so it cannot trigger a second entry.
func (c *CorrectionStateMachine) Invalidate() { c.state.AnchorValid = false }

func (c *CorrectionStateMachine) State() CorrectionState { return c.state }
