package analytics

import "testing"

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{5, 3, 1, 4, 2}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := Median(tt.in); got != tt.want {
			t.Errorf("Median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToxicity_WarmupIsSafe(t *testing.T) {
	m := NewToxicityMonitor(2.5, 50)
	for i := 0; i < 9; i++ {
		r := m.OnTick(100, 100.5)
		if !r.Safe || r.Score != 0 {
			t.Fatalf("sample %d: reading %+v, want safe with score 0", i, r)
		}
		if r.EffSpread <= 0 {
			t.Fatalf("sample %d: effective spread should be the current spread", i)
		}
	}
}

func TestToxicity_StableSpreadScoresOne(t *testing.T) {
	m := NewToxicityMonitor(2.5, 50)
	var r ToxicityReading
	for i := 0; i < 20; i++ {
		r = m.OnTick(100, 100.02)
	}
	if !approx(r.Score, 1, 1e-9) || !r.Safe {
		t.Fatalf("reading = %+v, want score 1 and safe", r)
	}
}

func TestToxicity_MedianPlusTwoMAD(t *testing.T) {
	m := NewToxicityMonitor(2.5, 50)
	var r ToxicityReading
	// quotes around a mid of 1 so the relative spread is exactly k*1e-3
	for pass := 0; pass < 2; pass++ {
		for k := 1; k <= 5; k++ {
			s := float64(k) * 1e-3
			r = m.OnTick(1-s/2, 1+s/2)
		}
	}
	// median 0.003, MAD 0.001, effective spread 0.003 + 2*0.001
	if !approx(r.EffSpread, 0.005, 1e-12) {
		t.Fatalf("effective spread = %v, want 0.005", r.EffSpread)
	}
	if !approx(r.Score, 5.0/3.0, 1e-9) || !r.Safe {
		t.Fatalf("reading = %+v, want score 5/3 and safe", r)
	}
}

func TestToxicity_DispersedSpreadIsUnsafe(t *testing.T) {
	m := NewToxicityMonitor(2.5, 50)
	var r ToxicityReading
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			r = m.OnTick(100, 100.01)
		} else {
			r = m.OnTick(100, 100.1)
		}
	}
	if r.Safe || r.Score < 2.5 {
		t.Fatalf("reading = %+v, want unsafe", r)
	}
}

func TestToxicity_InvalidQuoteKeepsState(t *testing.T) {
	m := NewToxicityMonitor(2.5, 50)
	for i := 0; i < 12; i++ {
		m.OnTick(100, 100.02)
	}
	before := m.Last()
	for _, q := range [][2]float64{{0, 100}, {100, 0}, {100.1, 100}, {-1, -0.5}} {
		if r := m.OnTick(q[0], q[1]); r != before {
			t.Fatalf("quote %v changed state: %+v -> %+v", q, before, r)
		}
	}
	if m.spreads.Len() != 12 {
		t.Fatalf("invalid quotes were recorded: %d samples", m.spreads.Len())
	}
}
