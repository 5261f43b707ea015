package trading

import (
	"testing"

	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/services/analytics"
)

func passingInput() EntryInput {
	return EntryInput{
		Trend: models.TrendUp,
		Hurst: 0.62,
		FD:    1.40,
		Correction: analytics.CorrectionState{
			Phase:       analytics.PhaseNormal,
			AnchorPrice: 1.1050,
			AnchorValid: true,
		},
		Close:      1.1020,
		ImbalanceZ: 2.4,
		MarketSafe: true,
	}
}

func TestEvaluate_AllGatesPass(t *testing.T) {
	e := NewEntryRuleEvaluator(DefaultParams())
	ev := e.Evaluate(passingInput())
	if !ev.Passed || ev.Direction != models.Buy {
		t.Fatalf("evaluation = %+v, want buy", ev)
	}
	if len(ev.Gates) != 6 || ev.FailedGate() != "" {
		t.Fatalf("gates = %+v", ev.Gates)
	}

	down := passingInput()
	down.Trend = models.TrendDown
	down.Close = 1.1080
	if ev := e.Evaluate(down); !ev.Passed || ev.Direction != models.Sell {
		t.Fatalf("down evaluation = %+v, want sell", ev)
	}
}

func TestEvaluate_SingleGateFlip(t *testing.T) {
	e := NewEntryRuleEvaluator(DefaultParams())
	tests := []struct {
		name   string
		mutate func(*EntryInput)
		gate   string
		index  int
	}{
		{"flat trend", func(in *EntryInput) { in.Trend = models.TrendFlat }, GateTrend, 0},
		{"weak hurst", func(in *EntryInput) { in.Hurst = 0.55 }, GateTrend, 0},
		{"anchor invalid", func(in *EntryInput) { in.Correction.AnchorValid = false }, GateAnchor, 1},
		{"anchor zero", func(in *EntryInput) { in.Correction.AnchorPrice = 0 }, GateAnchor, 1},
		{"fd at limit", func(in *EntryInput) { in.FD = 1.50 }, GateStability, 2},
		{"price above anchor", func(in *EntryInput) { in.Close = 1.1060 }, GatePriceSide, 3},
		{"price at anchor", func(in *EntryInput) { in.Close = 1.1050 }, GatePriceSide, 3},
		{"z at threshold", func(in *EntryInput) { in.ImbalanceZ = 2.0 }, GateImbalance, 4},
		{"toxic", func(in *EntryInput) { in.MarketSafe = false }, GateMarketSafe, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passingInput()
			tt.mutate(&in)
			ev := e.Evaluate(in)
			if ev.Passed {
				t.Fatalf("passed with %s", tt.name)
			}
			if got := ev.FailedGate(); got != tt.gate {
				t.Fatalf("failed gate = %q, want %q", got, tt.gate)
			}
			if len(ev.Gates) != tt.index+1 {
				t.Fatalf("evaluated %d gates, want %d", len(ev.Gates), tt.index+1)
			}
		})
	}
}

func TestEvaluate_NoSideEffects(t *testing.T) {
	e := NewEntryRuleEvaluator(DefaultParams())
	in := passingInput()
	a := e.Evaluate(in)
	b := e.Evaluate(in)
	if a.Passed != b.Passed || len(a.Gates) != len(b.Gates) {
		t.Fatalf("repeated evaluation differs: %+v vs %+v", a, b)
	}
}
