package trading

import (
	"errors"
	"math"
	"testing"

	"HydroFlow/internal/domain/models"
)

func TestRiskSizer_DynamicStop(t *testing.T) {
	r := NewRiskSizer(DefaultParams())
	in := SizingInput{
		Direction: models.Buy,
		Entry:     1.1000,
		Anchor:    1.1030,
		FD:        1.4,
		Hurst:     0.6,
		ATR:       0.0040,
		ATRValid:  true,
		Symbol:    eurusd(),
		Balance:   10_000,
	}
	s, err := r.Size(in)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}

	m := (1.4 / 1.6) * 2.0
	wantStop := math.Max(m*0.0040, 0.0030+5*0.0001)
	if math.Abs(s.StopDistance-wantStop) > 1e-12 {
		t.Fatalf("stop = %v, want %v", s.StopDistance, wantStop)
	}
	if math.Abs(s.StopPips-wantStop/0.0001) > 1e-6 {
		t.Fatalf("stop pips = %v", s.StopPips)
	}
	// 100 risk / (70 pips * 0.0001) = 14285.7 -> 14000 after step normalisation.
	if s.Volume != 14000 {
		t.Fatalf("volume = %v, want 14000", s.Volume)
	}
	if s.TP1 != 1.1030 {
		t.Errorf("tp1 = %v", s.TP1)
	}
	if want := 1.1030 + 0.0030*1.618; math.Abs(s.TP2-want) > 1e-12 {
		t.Errorf("tp2 = %v, want %v", s.TP2, want)
	}
}

func TestRiskSizer_StretchFloor(t *testing.T) {
	r := NewRiskSizer(DefaultParams())
	s, err := r.Size(SizingInput{
		Direction: models.Sell,
		Entry:     1.1000,
		Anchor:    1.0900,
		FD:        1.0,
		Hurst:     0.99,
		ATR:       0.0010,
		ATRValid:  true,
		Symbol:    eurusd(),
		Balance:   10_000,
	})
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if want := 0.0100 + 0.0005; math.Abs(s.StopDistance-want) > 1e-12 {
		t.Fatalf("stop = %v, want stretch floor %v", s.StopDistance, want)
	}
	if want := 1.0900 - 0.0100*1.618; math.Abs(s.TP2-want) > 1e-12 {
		t.Fatalf("sell tp2 = %v, want %v", s.TP2, want)
	}
}

func TestRiskSizer_StaticStopWithoutATR(t *testing.T) {
	r := NewRiskSizer(DefaultParams())
	s, err := r.Size(SizingInput{
		Direction: models.Buy, Entry: 1.1000, Anchor: 1.1020,
		FD: 1.4, Hurst: 0.6, ATR: 0.01, ATRValid: false,
		Symbol: eurusd(), Balance: 10_000,
	})
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if want := 0.0020 + 0.0005; math.Abs(s.StopDistance-want) > 1e-12 {
		t.Fatalf("stop = %v, want %v", s.StopDistance, want)
	}
}

func TestRiskSizer_Rejections(t *testing.T) {
	r := NewRiskSizer(DefaultParams())
	base := SizingInput{Direction: models.Buy, Entry: 1.1, Anchor: 1.101, FD: 1.4, Hurst: 0.6, Symbol: eurusd(), Balance: 10_000}

	noPip := base
	noPip.Symbol.PipSize = 0
	if _, err := r.Size(noPip); !errors.Is(err, ErrInvalidStop) {
		t.Errorf("zero pip size: err = %v, want ErrInvalidStop", err)
	}

	capped := base
	capped.Symbol.VolumeMax = 500
	if _, err := r.Size(capped); !errors.Is(err, ErrVolumeTooSmall) {
		t.Errorf("max below min: err = %v, want ErrVolumeTooSmall", err)
	}

	nan := base
	nan.Balance = math.NaN()
	if _, err := r.Size(nan); !errors.Is(err, ErrVolumeTooSmall) {
		t.Errorf("nan balance: err = %v, want ErrVolumeTooSmall", err)
	}
}

func TestRiskSizer_TinyRiskClampsToMinimum(t *testing.T) {
	r := NewRiskSizer(DefaultParams())
	s, err := r.Size(SizingInput{Direction: models.Buy, Entry: 1.1, Anchor: 1.101, FD: 1.4, Hurst: 0.6, Symbol: eurusd(), Balance: 1})
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if s.Volume != 1000 {
		t.Fatalf("volume = %v, want symbol minimum", s.Volume)
	}
}

func TestRiskSizer_TargetsMatchSize(t *testing.T) {
	r := NewRiskSizer(DefaultParams())
	in := SizingInput{Direction: models.Sell, Entry: 1.1000, Anchor: 1.0980, FD: 1.3, Hurst: 0.6, Symbol: eurusd(), Balance: 10_000}
	s, err := r.Size(in)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	stretch, tp1, tp2 := r.Targets(models.Sell, 1.1000, 1.0980)
	if stretch != s.Stretch || tp1 != s.TP1 || tp2 != s.TP2 {
		t.Fatalf("Targets = %v/%v/%v, Size = %+v", stretch, tp1, tp2, s)
	}

	// a fill further from the anchor stretches both the distance and the ballistic target
	stretch, tp1, tp2 = r.Targets(models.Sell, 1.1004, 1.0980)
	if math.Abs(stretch-0.0024) > 1e-12 || tp1 != 1.0980 {
		t.Fatalf("stretch = %v tp1 = %v", stretch, tp1)
	}
	if want := 1.0980 - 0.0024*1.618; math.Abs(tp2-want) > 1e-12 {
		t.Fatalf("tp2 = %v, want %v", tp2, want)
	}
}

func TestNormalizeVolume(t *testing.T) {
	sym := models.SymbolInfo{VolumeStep: 0.01}
	tests := []struct {
		in, want float64
	}{
		{0.129, 0.12},
		{0.3, 0.3},
		{1.999, 1.99},
	}
	for _, tt := range tests {
		if got := NormalizeVolume(tt.in, sym); got != tt.want {
			t.Errorf("NormalizeVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := NormalizeVolume(1.234, models.SymbolInfo{}); got != 1.234 {
		t.Errorf("zero step should pass through, got %v", got)
	}
}
