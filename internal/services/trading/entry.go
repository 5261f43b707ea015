package trading

import (
	"fmt"

	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/services/analytics"
)

// Gate names, in evaluation order.
const (
	GateTrend      = "trend"
	GateAnchor     = "anchor"
	GateStability  = "fd_stable"
	GatePriceSide  = "price_vs_anchor"
	GateImbalance  = "imbalance"
	GateMarketSafe = "toxicity"
)

// EntryInput is the state of one closed bar as seen by the entry rules.
type EntryInput struct {
	Trend      models.TrendState
	Hurst      float64
	FD         float64
	Correction analytics.CorrectionState
	Close      float64
	ImbalanceZ float64
	MarketSafe bool
}

// Evaluation is the result of running the gate chain.
type Evaluation struct {
	Passed    bool
	Direction models.Direction
	Gates     []models.GateResult
}

// FailedGate returns the name of the first failing gate, or "" when all passed.
func (e Evaluation) FailedGate() string {
	for _, g := range e.Gates {
		if !g.Pass {
			return g.Name
		}
	}
	return ""
}

// EntryRuleEvaluator runs the ordered entry gates. It holds no state.
type EntryRuleEvaluator struct {
	hurstThreshold float64
	stable         float64
	margin         float64
	zThreshold     float64
}

func NewEntryRuleEvaluator(p Params) *EntryRuleEvaluator {
	return &EntryRuleEvaluator{
		hurstThreshold: p.HurstThreshold,
		stable:         p.StableThreshold,
		margin:         p.EntryMargin,
		zThreshold:     p.ImbalanceZThreshold,
	}
}

// Evaluate stops at the first failing gate; later gates are not reported.
func (e *EntryRuleEvaluator) Evaluate(in EntryInput) Evaluation {
	type gate func() models.GateResult

	chain := []gate{
		func() models.GateResult {
			ok := in.Trend != models.TrendFlat && in.Hurst > e.hurstThreshold
			return result(GateTrend, ok, in.Hurst, fmt.Sprintf("trend=%s hurst=%.3f threshold=%.3f", in.Trend, in.Hurst, e.hurstThreshold))
		},
		func() models.GateResult {
			ok := in.Correction.AnchorValid && in.Correction.AnchorPrice != 0
			return result(GateAnchor, ok, in.Correction.AnchorPrice, fmt.Sprintf("valid=%t", in.Correction.AnchorValid))
		},
		func() models.GateResult {
			limit := e.stable + e.margin
			return result(GateStability, in.FD < limit, in.FD, fmt.Sprintf("fd=%.3f limit=%.3f", in.FD, limit))
		},
		func() models.GateResult {
			anchor := in.Correction.AnchorPrice
			ok := (in.Trend == models.TrendUp && in.Close < anchor) ||
				(in.Trend == models.TrendDown && in.Close > anchor)
			return result(GatePriceSide, ok, in.Close, fmt.Sprintf("close=%.5f anchor=%.5f", in.Close, anchor))
		},
		func() models.GateResult {
			ok := in.ImbalanceZ > e.zThreshold
			return result(GateImbalance, ok, in.ImbalanceZ, fmt.Sprintf("z=%.2f threshold=%.2f", in.ImbalanceZ, e.zThreshold))
		},
		func() models.GateResult {
			v := 0.0
			if in.MarketSafe {
				v = 1
			}
			return result(GateMarketSafe, in.MarketSafe, v, "")
		},
	}

	ev := Evaluation{Gates: make([]models.GateResult, 0, len(chain))}
	for _, g := range chain {
		r := g()
		ev.Gates = append(ev.Gates, r)
		if !r.Pass {
			return ev
		}
	}
	ev.Passed = true
	ev.Direction = in.Trend.Direction()
	return ev
}

func result(name string, pass bool, value float64, reason string) models.GateResult {
	return models.GateResult{Name: name, Pass: pass, Value: value, Reason: reason}
}
