package trading

import (
	"context"

	"HydroFlow/internal/domain/models"
)

type gatewayCall struct {
	op     string
	id     string
	volume float64
	stop   float64
}

// fakeGateway records calls and fails the operations listed in fail.
type fakeGateway struct {
	calls []gatewayCall
	fail  map[string]bool
}

func newFakeGateway() *fakeGateway { return &fakeGateway{fail: map[string]bool{}} }

func (g *fakeGateway) result(op string) models.OrderResult {
	if g.fail[op] {
		return models.OrderResult{Error: op + " rejected"}
	}
	return models.OrderResult{OK: true}
}

func (g *fakeGateway) Submit(_ context.Context, req models.TradeRequest) models.OrderResult {
	g.calls = append(g.calls, gatewayCall{op: "submit", volume: req.Volume})
	return g.result("submit")
}

func (g *fakeGateway) Close(_ context.Context, id string, volume float64) models.OrderResult {
	op := "close"
	if volume > 0 {
		op = "partial"
	}
	g.calls = append(g.calls, gatewayCall{op: op, id: id, volume: volume})
	return g.result(op)
}

func (g *fakeGateway) ModifyStop(_ context.Context, id string, stop float64) models.OrderResult {
	g.calls = append(g.calls, gatewayCall{op: "modify", id: id, stop: stop})
	return g.result("modify")
}

func (g *fakeGateway) Positions(context.Context) []models.Position { return nil }

func eurusd() models.SymbolInfo {
	return models.SymbolInfo{
		Name:       "EURUSD",
		PipSize:    0.0001,
		PipValue:   0.0001,
		VolumeMin:  1000,
		VolumeMax:  10_000_000,
		VolumeStep: 1000,
	}
}
