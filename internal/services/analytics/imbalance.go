package analytics

import "math"

const (
	imbalanceEps        = 1e-6
	imbalanceMinSamples = 30
)

// ImbalanceReading is the raw pressure and its rolling z-score at a bar close.
type ImbalanceReading struct {
	Raw       float64
	Z         float64
	BuyTicks  int
	SellTicks int
}

// ImbalanceSignal classifies ticks by ask movement and turns the per-bar counts into a
// price-sensitivity-adjusted pressure score.
type ImbalanceSignal struct {
	lookback int
	history  *RollingWindow

	lastAsk   float64
	primed    bool
	buyTicks  int
	sellTicks int
	last      ImbalanceReading
}

func NewImbalanceSignal(lookback, historySize int) *ImbalanceSignal {
	return &ImbalanceSignal{lookback: lookback, history: NewRollingWindow(historySize)}
}

// OnTick counts an uptick of the ask as buy pressure and a downtick as sell pressure.
// The first tick only primes the reference ask.
func (m *ImbalanceSignal) OnTick(ask float64) {
	if !m.primed {
		m.lastAsk = ask
		m.primed = true
		return
	}
	switch {
	case ask > m.lastAsk:
		m.buyTicks++
	case ask < m.lastAsk:
		m.sellTicks++
	}
	m.lastAsk = ask
}

// OnBarClose consumes the tick counters for bar i and returns the new reading.
// Counters are reset whatever the outcome.
func (m *ImbalanceSignal) OnBarClose(s *PriceSeries, i int) ImbalanceReading {
	buys, sells := m.buyTicks, m.sellTicks
	m.buyTicks, m.sellTicks = 0, 0

	total := buys + sells
	if total == 0 {
		m.last = ImbalanceReading{}
		return m.last
	}

	lookback := m.lookback
	if i < lookback {
		lookback = i
	}
	if lookback < 1 || i >= s.Len() {
		m.last = ImbalanceReading{BuyTicks: buys, SellTicks: sells}
		return m.last
	}

	n := float64(total)
	imbalance := float64(buys-sells) / n
	dominance := float64(max(buys, sells)) / n
	rng := s.HighestHigh(i-lookback, i) - s.LowestLow(i-lookback, i)
	sensitivity := math.Max(imbalanceEps, rng/n)
	raw := math.Abs(imbalance) * dominance / sensitivity

	m.history.Push(raw)
	z := 0.0
	if m.history.Len() >= imbalanceMinSamples {
		if std := m.history.StdDev(); std > degenerateEps {
			z = (raw - m.history.Mean()) / std
		}
	}
	m.last = ImbalanceReading{Raw: raw, Z: z, BuyTicks: buys, SellTicks: sells}
	return m.last
}

func (m *ImbalanceSignal) Last() ImbalanceReading { return m.last }

// Pending returns the tick counts accumulated since the last bar close.
func (m *ImbalanceSignal) Pending() (buys, sells int) { return m.buyTicks, m.sellTicks }
