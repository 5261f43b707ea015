package trading

import (
	"context"

	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/domain/repository"
)

// Exit reasons reported on commands and closed trades.
const (
	ReasonReversal  = "trend_reversal"
	ReasonTimeStop1 = "time_stop_1"
	ReasonTimeStop2 = "time_stop_2"
	ReasonTP1       = "tp1"
	ReasonBreakeven = "breakeven"
	ReasonTP2       = "tp2"
	ReasonTrailing  = "trailing"
)

// ExitInput is the market state for one position on one tick.
type ExitInput struct {
	Position models.Position
	Price    float64 // bid for buys, ask for sells
	Bars     int     // bars elapsed since entry
	Trend    models.TrendState
	ATR      float64
	ATRValid bool
	Symbol   models.SymbolInfo
}

// ExitOutcome lists the commands that were sent and whether the position is fully closed.
type ExitOutcome struct {
	Commands []models.ExitCommand
	Failures []models.ExitCommand
	Closed   bool
	Reason   string
}

// ExitStateMachine applies the prioritized exit levels to an open trade through the order gateway.
type ExitStateMachine struct {
	gateway repository.OrderGateway

	reversal   bool
	timeStops  bool
	timeStop1  int
	timeStop2  int
	tp1Percent float64
	trailMult  float64
}

func NewExitStateMachine(gw repository.OrderGateway, p Params) *ExitStateMachine {
	return &ExitStateMachine{
		gateway:    gw,
		reversal:   p.ReversalExit,
		timeStops:  p.TimeStops,
		timeStop1:  p.TimeStop1Bars,
		timeStop2:  p.TimeStop2Bars,
		tp1Percent: p.TP1Percent,
		trailMult:  p.TrailingATRMultiple,
	}
}

// Manage evaluates the levels in priority order: reversal, time stops, TP1, TP2, trailing.
// A full close ends the evaluation. The context is only mutated after the gateway confirms.
func (m *ExitStateMachine) Manage(ctx context.Context, tc *TradeContext, in ExitInput) ExitOutcome {
	var out ExitOutcome

	if m.reversal && tc.EntryTrend != models.TrendFlat && in.Trend != models.TrendFlat && tc.EntryTrend != in.Trend {
		return m.closeFull(ctx, tc, ReasonReversal, out)
	}

	if m.timeStops {
		if !tc.TP1Hit && in.Bars > m.timeStop1 {
			return m.closeFull(ctx, tc, ReasonTimeStop1, out)
		}
		if tc.TP1Hit && !tc.TP2Hit && in.Bars > m.timeStop2 {
			return m.closeFull(ctx, tc, ReasonTimeStop2, out)
		}
	}

	stop := in.Position.StopLoss
	if !tc.TP1Hit && reached(tc.Direction, in.Price, tc.TP1) {
		partial := NormalizeVolume(in.Position.Volume*m.tp1Percent/100, in.Symbol)
		if partial >= in.Symbol.VolumeMin && partial <= in.Position.Volume && partial > 0 {
			cmd := m.command(tc, models.ExitClosePartial, ReasonTP1)
			cmd.Volume = partial
			if res := m.gateway.Close(ctx, tc.PositionID, partial); res.OK {
				out.Commands = append(out.Commands, cmd)
				tc.TP1Hit = true
				tc.TrailingActive = true

				be := m.command(tc, models.ExitModifyStop, ReasonBreakeven)
				be.StopPrice = tc.EntryPrice
				if res := m.gateway.ModifyStop(ctx, tc.PositionID, tc.EntryPrice); res.OK {
					out.Commands = append(out.Commands, be)
					stop = tc.EntryPrice
				} else {
					out.Failures = append(out.Failures, withError(be, res))
				}
			} else {
				out.Failures = append(out.Failures, withError(cmd, res))
			}
		}
	}

	if tc.TP1Hit && !tc.TP2Hit && reached(tc.Direction, in.Price, tc.TP2) {
		out = m.closeFull(ctx, tc, ReasonTP2, out)
		if out.Closed {
			tc.TP2Hit = true
		}
		return out
	}

	if tc.TrailingActive && in.ATRValid {
		dist := in.ATR * m.trailMult
		var candidate float64
		tighter := false
		if tc.Direction == models.Buy {
			candidate = in.Price - dist
			tighter = stop == 0 || candidate > stop
		} else {
			candidate = in.Price + dist
			tighter = stop == 0 || candidate < stop
		}
		if tighter {
			cmd := m.command(tc, models.ExitModifyStop, ReasonTrailing)
			cmd.StopPrice = candidate
			if res := m.gateway.ModifyStop(ctx, tc.PositionID, candidate); res.OK {
				out.Commands = append(out.Commands, cmd)
			} else {
				out.Failures = append(out.Failures, withError(cmd, res))
			}
		}
	}
	return out
}

func (m *ExitStateMachine) closeFull(ctx context.Context, tc *TradeContext, reason string, out ExitOutcome) ExitOutcome {
	cmd := m.command(tc, models.ExitCloseFull, reason)
	if res := m.gateway.Close(ctx, tc.PositionID, 0); !res.OK {
		out.Failures = append(out.Failures, withError(cmd, res))
		return out
	}
	out.Commands = append(out.Commands, cmd)
	out.Closed = true
	out.Reason = reason
	return out
}

func (m *ExitStateMachine) command(tc *TradeContext, action models.ExitAction, reason string) models.ExitCommand {
	return models.ExitCommand{
		PositionID: tc.PositionID,
		Symbol:     tc.Symbol,
		Action:     action,
		Reason:     reason,
	}
}

func withError(cmd models.ExitCommand, res models.OrderResult) models.ExitCommand {
	cmd.Reason = cmd.Reason + ": " + res.Error
	return cmd
}

// reached reports whether price has touched target in the profitable direction.
func reached(dir models.Direction, price, target float64) bool {
	if dir == models.Buy {
		return price >= target
	}
	return price <= target
}
