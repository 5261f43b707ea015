package trading

import (
	"math"
	"time"

	"HydroFlow/internal/domain/models"
)

// PerformanceMonitor accumulates realised trade statistics.
type PerformanceMonitor struct {
	since       time.Time
	wins        int
	losses      int
	grossProfit float64
	grossLoss   float64
	largestWin  float64
	largestLoss float64
}

func NewPerformanceMonitor(since time.Time) *PerformanceMonitor {
	return &PerformanceMonitor{since: since}
}

// Record adds one closed trade. A zero result counts as a loss.
// Losses are accumulated as magnitudes.
func (p *PerformanceMonitor) Record(netProfit float64) {
	if netProfit > 0 {
		p.wins++
		p.grossProfit += netProfit
		p.largestWin = math.Max(p.largestWin, netProfit)
		return
	}
	loss := math.Abs(netProfit)
	p.losses++
	p.grossLoss += loss
	p.largestLoss = math.Max(p.largestLoss, loss)
}

// Stats returns a copy of the current statistics.
func (p *PerformanceMonitor) Stats() models.Performance {
	total := p.wins + p.losses
	s := models.Performance{
		Since:       p.since,
		TotalTrades: total,
		Wins:        p.wins,
		Losses:      p.losses,
		GrossProfit: p.grossProfit,
		GrossLoss:   p.grossLoss,
		NetProfit:   p.grossProfit - p.grossLoss,
		LargestWin:  p.largestWin,
		LargestLoss: p.largestLoss,
	}
	if total > 0 {
		s.WinRate = float64(p.wins) / float64(total) * 100
	}
	if p.wins > 0 {
		s.AvgWin = p.grossProfit / float64(p.wins)
	}
	if p.losses > 0 {
		s.AvgLoss = p.grossLoss / float64(p.losses)
	}
	if p.grossLoss != 0 {
		s.ProfitFactor = p.grossProfit / p.grossLoss
	}
	return s
}
