package analytics

import (
	"testing"

	"HydroFlow/internal/domain/models"
)

func TestTalibATR_ReadyAfterPeriodPlusOne(t *testing.T) {
	a := NewTalibATR(3)
	for i := 0; i < 3; i++ {
		a.Update(models.Bar{High: 11, Low: 9, Close: 10})
		if _, ok := a.Value(); ok {
			t.Fatalf("ready after %d bars", i+1)
		}
	}
	a.Update(models.Bar{High: 11, Low: 9, Close: 10})
	v, ok := a.Value()
	if !ok || !approx(v, 2, 1e-12) {
		t.Fatalf("atr = %v ok=%v, want 2", v, ok)
	}
}

func TestTalibATR_UsesPreviousCloseForGaps(t *testing.T) {
	a := NewTalibATR(2)
	a.Update(models.Bar{High: 10, Low: 9, Close: 10})
	a.Update(models.Bar{High: 13, Low: 12, Close: 12.5}) // gap up: TR = 13 - 10
	a.Update(models.Bar{High: 13, Low: 12, Close: 12})   // TR = 1
	v, ok := a.Value()
	if !ok || !approx(v, 2, 1e-12) {
		t.Fatalf("atr = %v ok=%v, want 2", v, ok)
	}
	for i := 0; i < 20; i++ {
		a.Update(models.Bar{High: 13, Low: 12, Close: 12.5})
	}
	if len(a.closes) > 5 {
		t.Fatalf("history grew to %d", len(a.closes))
	}
}
