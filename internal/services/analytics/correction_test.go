package analytics

import (
	"testing"

	"HydroFlow/internal/domain/models"
)

func correctionSeries(n int) *PriceSeries {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{Open: c, High: c + 0.5, Low: c - 0.5, Close: c}
	}
	return seriesFromBars(bars)
}

func TestCorrection_FullCycleOnce(t *testing.T) {
	s := correctionSeries(40)
	m := NewCorrectionStateMachine(1.65, 1.45, 20)
	fds := []float64{1.3, 1.4, 1.7, 1.6, 1.5, 1.46, 1.44, 1.3, 1.5, 1.6}

	entered, exited := 0, 0
	prev := m.State()
	for k, fd := range fds {
		i := 25 + k
		st := m.Update(s, i, fd, models.TrendUp)
		if prev.Phase == PhaseNormal && st.Phase == PhaseInCorrection {
			entered++
			if st.AnchorValid {
				t.Fatalf("anchor valid on entering correction")
			}
			if want := s.HighestHigh(i-20, i); st.AnchorPrice != want {
				t.Fatalf("anchor = %v, want %v", st.AnchorPrice, want)
			}
		}
		if prev.Phase == PhaseInCorrection && st.Phase == PhaseNormal {
			exited++
			if !st.AnchorValid {
				t.Fatalf("anchor not validated on exit")
			}
		}
		prev = st
	}
	if entered != 1 || exited != 1 {
		t.Fatalf("entered=%d exited=%d, want one complete cycle", entered, exited)
	}
}

func TestCorrection_AnchorByTrend(t *testing.T) {
	s := correctionSeries(30)
	tests := []struct {
		trend models.TrendState
		want  float64
	}{
		{models.TrendUp, s.At(29).High},
		{models.TrendDown, s.At(9).Low},
		{models.TrendFlat, s.At(29).Close},
	}
	for _, tt := range tests {
		m := NewCorrectionStateMachine(1.65, 1.45, 20)
		st := m.Update(s, 29, 1.8, tt.trend)
		if st.AnchorPrice != tt.want {
			t.Errorf("trend %s: anchor = %v, want %v", tt.trend, st.AnchorPrice, tt.want)
		}
	}
}

func TestCorrection_NoopBeforeSecondBar(t *testing.T) {
	s := correctionSeries(5)
	m := NewCorrectionStateMachine(1.65, 1.45, 20)
	if st := m.Update(s, 0, 1.9, models.TrendUp); st.Phase != PhaseNormal {
		t.Fatalf("bar 0 changed phase to %s", st.Phase)
	}
}

func TestCorrection_Invalidate(t *testing.T) {
	s := correctionSeries(30)
	m := NewCorrectionStateMachine(1.65, 1.45, 20)
	m.Update(s, 10, 1.7, models.TrendUp)
	m.Update(s, 11, 1.4, models.TrendUp)
	if !m.State().AnchorValid {
		t.Fatalf("anchor should be valid after correction ends")
	}
	m.Invalidate()
	if m.State().AnchorValid {
		t.Fatalf("anchor still valid after Invalidate")
	}
	if m.State().AnchorPrice == 0 {
		t.Fatalf("Invalidate should keep the anchor price")
	}
}
