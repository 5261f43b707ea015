package usecase

import (
	"context"
	"sync"
	"time"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
	"HydroFlow/internal/service/broker"
)

var t0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newPaper() *broker.Paper {
	return broker.NewPaper(broker.Config{
		Balance:  10_000,
		Currency: "USD",
		Symbols: []models.SymbolInfo{
			{Name: "EURUSD", PipSize: 0.0001, PipValue: 0.0001, VolumeMin: 1000, VolumeMax: 1_000_000, VolumeStep: 1000},
			{Name: "GBPUSD", PipSize: 0.0001, PipValue: 0.0001, VolumeMin: 1000, VolumeMax: 1_000_000, VolumeStep: 1000},
		},
	})
}

func quote(sym string, at time.Time, bid, ask float64) models.Tick {
	return models.Tick{Symbol: sym, Time: at, Bid: bid, Ask: ask}
}

type fakePublisher struct {
	mu       sync.Mutex
	requests []models.TradeRequest
	exits    []models.ExitCommand
}

func (p *fakePublisher) PublishTradeRequest(_ context.Context, req models.TradeRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return nil
}

func (p *fakePublisher) PublishExitCommand(_ context.Context, cmd models.ExitCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exits = append(p.exits, cmd)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeJournal struct {
	mu        sync.Mutex
	bars      []models.Bar
	decisions []models.Decision
	trades    []models.TradeRecord
}

func (j *fakeJournal) Init(context.Context) error { return nil }

func (j *fakeJournal) StoreBar(_ context.Context, _ string, b models.Bar) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.bars = append(j.bars, b)
	return nil
}

func (j *fakeJournal) StoreDecision(_ context.Context, d models.Decision) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.decisions = append(j.decisions, d)
	return nil
}

func (j *fakeJournal) StoreTrade(_ context.Context, t models.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.trades = append(j.trades, t)
	return nil
}

func (j *fakeJournal) Health(context.Context) error { return nil }
func (j *fakeJournal) Close() error                 { return nil }

type fakeSnapshots struct {
	mu    sync.Mutex
	saved map[string]models.Snapshot
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{saved: map[string]models.Snapshot{}}
}

func (s *fakeSnapshots) Save(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[snap.Symbol] = snap
	return nil
}

func (s *fakeSnapshots) Load(_ context.Context, symbol string) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.saved[symbol]
	if !ok {
		return models.Snapshot{}, drepo.ErrSnapshotNotFound
	}
	return snap, nil
}

// recordingSink keeps every event a BarBuilder emits, plus their order.
type recordingSink struct {
	quotes []models.Tick
	ticks  []models.Tick
	closed []models.Bar
	events []string
}

func (s *recordingSink) OnQuote(t models.Tick) {
	s.quotes = append(s.quotes, t)
	s.events = append(s.events, "quote")
}

func (s *recordingSink) OnTick(_ context.Context, t models.Tick) error {
	s.ticks = append(s.ticks, t)
	s.events = append(s.events, "tick")
	return nil
}

func (s *recordingSink) OnBarClose(_ context.Context, b models.Bar) error {
	s.closed = append(s.closed, b)
	s.events = append(s.events, "close")
	return nil
}

type fakeBarSource struct {
	bars  map[string][]models.Bar
	limit int
}

func (f *fakeBarSource) LoadBars(_ context.Context, symbol string, _, _ time.Time, limit int) ([]models.Bar, error) {
	f.limit = limit
	return f.bars[symbol], nil
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{errors: map[string]int{}} }

func (m *countingMetrics) RecordTick(string)              {}
func (m *countingMetrics) RecordSnapshot(models.Snapshot) {}
func (m *countingMetrics) RecordDecision(string, string)  {}
func (m *countingMetrics) RecordExit(string, string)      {}
func (m *countingMetrics) RecordLatency(string, float64)  {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func rampBars(n int, start float64) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		c := start + float64(i)*0.0010
		out[i] = models.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c + 0.0005, Low: c - 0.0005, Close: c}
	}
	return out
}
