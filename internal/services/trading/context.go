package trading

import (
	"time"

	"HydroFlow/internal/domain/models"
)

// TradeContext is the strategy-side state of one open position.
type TradeContext struct {
	PositionID     string
	Symbol         string
	Direction      models.Direction
	EntryPrice     float64
	Anchor         float64
	Stretch        float64
	TP1            float64
	TP2            float64
	TP1Hit         bool
	TP2Hit         bool
	TrailingActive bool
	EntryBarIndex  int
	EntryTrend     models.TrendState
	OpenedAt       time.Time
}

// View returns the read-only representation used by snapshots.
func (tc *TradeContext) View() models.OpenTrade {
	return models.OpenTrade{
		PositionID:     tc.PositionID,
		Direction:      tc.Direction,
		EntryPrice:     tc.EntryPrice,
		Anchor:         tc.Anchor,
		Stretch:        tc.Stretch,
		TP1:            tc.TP1,
		TP2:            tc.TP2,
		TP1Hit:         tc.TP1Hit,
		TP2Hit:         tc.TP2Hit,
		TrailingActive: tc.TrailingActive,
		EntryBarIndex:  tc.EntryBarIndex,
		EntryTrend:     tc.EntryTrend,
		OpenedAt:       tc.OpenedAt,
	}
}
