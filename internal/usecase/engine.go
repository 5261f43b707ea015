package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
	"HydroFlow/internal/domain/service"
	"HydroFlow/internal/services/analytics"
	"HydroFlow/internal/services/trading"
	"HydroFlow/pkg/logger"
)

var (
	// ErrNoQuote means an entry fired before any valid quote was seen.
	ErrNoQuote = errors.New("no quote available")
	// ErrOrderRejected wraps a gateway rejection of a new order.
	ErrOrderRejected = errors.New("order rejected")
)

// Pre-gate outcomes, checked before the entry chain.
const (
	PreGateTradingDisabled = "trading_disabled"
	PreGateMaxPositions    = "max_positions"
	PreGateLabelOpen       = "label_open"
)

type EngineOption func(*Engine)

func WithPublisher(p drepo.CommandPublisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

func WithJournal(j drepo.Journal) EngineOption {
	return func(e *Engine) { e.journal = j }
}

func WithSnapshotStore(s drepo.SnapshotStore) EngineOption {
	return func(e *Engine) { e.snapshots = s }
}

func WithMetrics(m drepo.Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClosureFeed makes the engine drain position-closed notifications after every event.
func WithClosureFeed(f drepo.ClosureFeed) EngineOption {
	return func(e *Engine) { e.closures = f }
}

func WithATRProvider(a service.ATRProvider) EngineOption {
	return func(e *Engine) {
		if a != nil {
			e.atr = a
		}
	}
}

func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// closingTrade is a context the engine closed, kept until the broker confirms the P&L.
type closingTrade struct {
	tc     *trading.TradeContext
	reason string
}

// Engine owns the complete strategy state of one symbol. Every event runs under one mutex.
type Engine struct {
	mu     sync.Mutex
	symbol string
	params trading.Params

	series     *analytics.PriceSeries
	trend      *analytics.TrendClassifier
	fractal    *analytics.FractalDimensionEstimator
	fd         *analytics.IndicatorSeries[float64]
	correction *analytics.CorrectionStateMachine
	imbalance  *analytics.ImbalanceSignal
	toxicity   *analytics.ToxicityMonitor
	atr        service.ATRProvider

	entry *trading.EntryRuleEvaluator
	sizer *trading.RiskSizer
	exits *trading.ExitStateMachine
	perf  *trading.PerformanceMonitor

	trades       map[string]*trading.TradeContext
	closing      map[string]closingTrade
	lastTick     models.Tick
	lastDecision *models.Decision

	gateway   drepo.OrderGateway
	account   drepo.AccountProvider
	publisher drepo.CommandPublisher
	journal   drepo.Journal
	snapshots drepo.SnapshotStore
	closures  drepo.ClosureFeed
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewEngine wires the core components for symbol from p.
func NewEngine(symbol string, p trading.Params, gw drepo.OrderGateway, acct drepo.AccountProvider, opts ...EngineOption) *Engine {
	hurst := analytics.NewHurstEstimator(p.HurstPeriod, p.HurstScales)
	e := &Engine{
		symbol:     symbol,
		params:     p,
		series:     analytics.NewPriceSeries(1024),
		trend:      analytics.NewTrendClassifier(p.SmoothLength, p.HurstThreshold, hurst),
		fractal:    analytics.NewFractalDimensionEstimator(p.FDWindow, p.FDMaxK),
		fd:         analytics.NewIndicatorSeries(analytics.FractalDefault),
		correction: analytics.NewCorrectionStateMachine(p.ChaosThreshold, p.StableThreshold, p.AnchorLookback),
		imbalance:  analytics.NewImbalanceSignal(p.ImbalanceLookback, p.ImbalanceHistory),
		toxicity:   analytics.NewToxicityMonitor(p.ToxicityThreshold, p.ToxicityHistory),
		atr:        analytics.NewTalibATR(p.ATRPeriod),
		entry:      trading.NewEntryRuleEvaluator(p),
		sizer:      trading.NewRiskSizer(p),
		exits:      trading.NewExitStateMachine(gw, p),
		perf:       trading.NewPerformanceMonitor(time.Now().UTC()),
		trades:     make(map[string]*trading.TradeContext),
		closing:    make(map[string]closingTrade),
		gateway:    gw,
		account:    acct,
		metrics:    nopMetrics{},
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.String("symbol", symbol))
	return e
}

func (e *Engine) Symbol() string { return e.symbol }

// OnQuote records t as the latest quote without touching any indicator. The bar builder
// calls it before closing a bar so an entry on that close prices off the quote that closed it.
func (e *Engine) OnQuote(t models.Tick) {
	if t.Bid <= 0 || t.Ask <= 0 {
		return
	}
	e.mu.Lock()
	e.lastTick = t
	e.mu.Unlock()
}

// OnTick updates order-flow counters, manages open trades and refreshes the toxicity monitor.
// Quotes with a non-positive side are skipped.
func (e *Engine) OnTick(ctx context.Context, t models.Tick) error {
	if t.Bid <= 0 || t.Ask <= 0 {
		e.metrics.RecordError("tick_invalid")
		return nil
	}
	start := time.Now()

	e.mu.Lock()
	e.lastTick = t
	e.imbalance.OnTick(t.Ask)
	if e.params.TradingEnabled && len(e.trades) > 0 {
		e.manageTrades(ctx, t)
	}
	e.toxicity.OnTick(t.Bid, t.Ask)
	e.mu.Unlock()

	e.metrics.RecordTick(e.symbol)
	e.metrics.RecordLatency("engine_tick", time.Since(start).Seconds())
	e.drainClosed(ctx)
	return nil
}

// OnBarClose runs the bar pipeline: trend, fractal dimension, correction, imbalance, entry.
func (e *Engine) OnBarClose(ctx context.Context, b models.Bar) error {
	start := time.Now()

	e.mu.Lock()
	snap := e.closeBar(ctx, b, true)
	e.mu.Unlock()

	e.metrics.RecordSnapshot(snap)
	e.metrics.RecordLatency("engine_bar_close", time.Since(start).Seconds())
	e.drainClosed(ctx)
	return nil
}

// Warmup feeds historical bars through the indicators. No entries are evaluated and nothing is journaled.
func (e *Engine) Warmup(ctx context.Context, bars []models.Bar) {
	if len(bars) == 0 {
		return
	}
	e.mu.Lock()
	var snap models.Snapshot
	for _, b := range bars {
		snap = e.closeBar(ctx, b, false)
	}
	e.mu.Unlock()
	e.metrics.RecordSnapshot(snap)
	e.log.Info("engine warmed up", logger.Int("bars", len(bars)), logger.Float64("hurst", snap.Hurst), logger.Float64("fd", snap.FractalDim))
}

// OnPositionClosed records realised P&L for a position this engine managed. Each position
// is recorded once; unknown or already recorded ids are ignored.
func (e *Engine) OnPositionClosed(ctx context.Context, c models.PositionClosed) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reason := c.Reason
	tc, ok := e.trades[c.PositionID]
	if ok {
		delete(e.trades, c.PositionID)
	} else if ct, found := e.closing[c.PositionID]; found {
		tc = ct.tc
		if reason == "" {
			reason = ct.reason
		}
		delete(e.closing, c.PositionID)
	} else {
		return
	}

	e.perf.Record(c.NetProfit)
	e.log.Info("position closed",
		logger.String("position_id", c.PositionID),
		logger.String("reason", reason),
		logger.Float64("net_profit", c.NetProfit),
	)

	if e.journal != nil {
		rec := models.TradeRecord{
			PositionID: c.PositionID,
			Symbol:     e.symbol,
			Direction:  tc.Direction,
			EntryPrice: tc.EntryPrice,
			Anchor:     tc.Anchor,
			NetProfit:  c.NetProfit,
			Reason:     reason,
			OpenedAt:   tc.OpenedAt,
			ClosedAt:   c.Time,
		}
		if err := e.journal.StoreTrade(ctx, rec); err != nil {
			e.metrics.RecordError("journal_trade")
			e.log.Warn("journal trade failed", logger.Error(err))
		}
	}
}

// Snapshot returns a copy of the derived state.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) OpenTrades() []models.OpenTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openTradesLocked()
}

func (e *Engine) Performance() models.Performance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perf.Stats()
}

func (e *Engine) closeBar(ctx context.Context, b models.Bar, live bool) models.Snapshot {
	i := e.series.Append(b)
	e.atr.Update(b)
	tr := e.trend.Update(e.series, i)
	fd := e.fractal.At(e.series, i)
	e.fd.Set(i, fd)
	cs := e.correction.Update(e.series, i, fd, tr.State)
	imb := e.imbalance.OnBarClose(e.series, i)

	if live {
		e.checkEntry(ctx, i, b, tr, fd, cs, imb)
	}

	snap := e.snapshotLocked()
	if !live {
		return snap
	}
	if e.journal != nil {
		if err := e.journal.StoreBar(ctx, e.symbol, b); err != nil {
			e.metrics.RecordError("journal_bar")
			e.log.Warn("journal bar failed", logger.Error(err))
		}
	}
	if e.snapshots != nil {
		if err := e.snapshots.Save(ctx, snap); err != nil {
			e.metrics.RecordError("snapshot_save")
			e.log.Warn("snapshot save failed", logger.Error(err))
		}
	}
	return snap
}

func (e *Engine) checkEntry(ctx context.Context, i int, b models.Bar, tr analytics.TrendReading, fd float64, cs analytics.CorrectionState, imb analytics.ImbalanceReading) {
	if gate := e.preGate(ctx); gate != "" {
		e.metrics.RecordDecision(e.symbol, gate)
		e.log.Debug("entry skipped", logger.String("gate", gate), logger.Int("bar", i))
		return
	}

	tox := e.toxicity.Last()
	ev := e.entry.Evaluate(trading.EntryInput{
		Trend:      tr.State,
		Hurst:      tr.Hurst,
		FD:         fd,
		Correction: cs,
		Close:      b.Close,
		ImbalanceZ: imb.Z,
		MarketSafe: tox.Safe,
	})
	d := models.Decision{
		ID:       uuid.NewString(),
		Symbol:   e.symbol,
		BarIndex: i,
		Time:     b.Time,
		Gates:    ev.Gates,
	}

	if !ev.Passed {
		failed := ev.FailedGate()
		e.metrics.RecordDecision(e.symbol, failed)
		e.log.Debug("entry rejected", logger.String("gate", failed), logger.Int("bar", i))
	} else {
		req, err := e.openTrade(ctx, i, b, ev.Direction, tr, fd, cs)
		d.Request = req
		if err != nil {
			d.Error = err.Error()
			e.metrics.RecordDecision(e.symbol, "error")
			e.log.Error("entry failed", logger.Int("bar", i), logger.Error(err))
		} else {
			d.Accepted = true
			e.metrics.RecordDecision(e.symbol, "accepted")
		}
	}

	e.lastDecision = &d
	if e.journal != nil {
		if err := e.journal.StoreDecision(ctx, d); err != nil {
			e.metrics.RecordError("journal_decision")
			e.log.Warn("journal decision failed", logger.Error(err))
		}
	}
}

func (e *Engine) preGate(ctx context.Context) string {
	if !e.params.TradingEnabled {
		return PreGateTradingDisabled
	}
	positions := e.gateway.Positions(ctx)
	open := 0
	for _, p := range positions {
		if p.Symbol == e.symbol {
			open++
		}
	}
	if open >= e.params.MaxPositions {
		return PreGateMaxPositions
	}
	for _, p := range positions {
		if p.Symbol == e.symbol && p.Label == e.params.Label {
			return PreGateLabelOpen
		}
	}
	return ""
}

func (e *Engine) openTrade(ctx context.Context, i int, b models.Bar, dir models.Direction, tr analytics.TrendReading, fd float64, cs analytics.CorrectionState) (*models.TradeRequest, error) {
	price := e.lastTick.Ask
	if dir == models.Sell {
		price = e.lastTick.Bid
	}
	if price <= 0 {
		return nil, ErrNoQuote
	}

	sym, err := e.account.Symbol(ctx, e.symbol)
	if err != nil {
		return nil, fmt.Errorf("load symbol %s: %w", e.symbol, err)
	}
	acct := e.account.Account(ctx)
	atr, atrOK := e.atr.Value()

	s, err := e.sizer.Size(trading.SizingInput{
		Direction: dir,
		Entry:     price,
		Anchor:    cs.AnchorPrice,
		FD:        fd,
		Hurst:     tr.Hurst,
		ATR:       atr,
		ATRValid:  atrOK,
		Symbol:    sym,
		Balance:   acct.Balance,
	})
	if err != nil {
		return nil, fmt.Errorf("size trade: %w", err)
	}

	req := models.TradeRequest{
		ID:           uuid.NewString(),
		Symbol:       e.symbol,
		Direction:    dir,
		Volume:       s.Volume,
		EntryPrice:   price,
		StopDistance: s.StopDistance,
		StopPips:     s.StopPips,
		TP1:          s.TP1,
		TP2:          s.TP2,
		Label:        e.params.Label,
		Time:         b.Time,
	}
	res := e.gateway.Submit(ctx, req)
	if !res.OK {
		return &req, fmt.Errorf("%w: %s", ErrOrderRejected, res.Error)
	}
	// Targets follow the actual fill; volume and stop distance stay as submitted.
	if res.FillPrice > 0 && res.FillPrice != price {
		e.log.Debug("fill differs from quote", logger.Float64("quote", price), logger.Float64("fill", res.FillPrice))
		price = res.FillPrice
		s.Stretch, s.TP1, s.TP2 = e.sizer.Targets(dir, price, cs.AnchorPrice)
		req.EntryPrice, req.TP1, req.TP2 = price, s.TP1, s.TP2
	}

	e.trades[res.PositionID] = &trading.TradeContext{
		PositionID:    res.PositionID,
		Symbol:        e.symbol,
		Direction:     dir,
		EntryPrice:    price,
		Anchor:        cs.AnchorPrice,
		Stretch:       s.Stretch,
		TP1:           s.TP1,
		TP2:           s.TP2,
		EntryBarIndex: i,
		EntryTrend:    tr.State,
		OpenedAt:      b.Time,
	}
	e.correction.Invalidate()

	e.log.Info("trade opened",
		logger.String("position_id", res.PositionID),
		logger.String("direction", dir.String()),
		logger.Float64("entry", price),
		logger.Float64("volume", s.Volume),
		logger.Float64("stop_pips", s.StopPips),
		logger.Float64("tp1", s.TP1),
		logger.Float64("tp2", s.TP2),
	)
	if e.publisher != nil {
		if err := e.publisher.PublishTradeRequest(ctx, req); err != nil {
			e.metrics.RecordError("publish_trade")
			e.log.Warn("publish trade request failed", logger.Error(err))
		}
	}
	return &req, nil
}

func (e *Engine) manageTrades(ctx context.Context, t models.Tick) {
	byID := make(map[string]models.Position)
	for _, p := range e.gateway.Positions(ctx) {
		byID[p.ID] = p
	}
	sym, err := e.account.Symbol(ctx, e.symbol)
	if err != nil {
		e.log.Error("load symbol failed", logger.Error(err))
	}
	atr, atrOK := e.atr.Value()
	idx := e.series.Len() - 1
	current := e.trend.At(idx).State

	for _, id := range e.tradeIDs() {
		tc := e.trades[id]
		pos, ok := byID[id]
		if !ok {
			e.retire(id, "position_gone")
			continue
		}
		price := t.Bid
		if tc.Direction == models.Sell {
			price = t.Ask
		}
		out := e.exits.Manage(ctx, tc, trading.ExitInput{
			Position: pos,
			Price:    price,
			Bars:     idx - tc.EntryBarIndex,
			Trend:    current,
			ATR:      atr,
			ATRValid: atrOK,
			Symbol:   sym,
		})
		for _, cmd := range out.Commands {
			cmd.Time = t.Time
			e.metrics.RecordExit(e.symbol, cmd.Reason)
			e.log.Info("exit command",
				logger.String("position_id", id),
				logger.String("action", string(cmd.Action)),
				logger.String("reason", cmd.Reason),
				logger.Float64("price", price),
			)
			if e.publisher != nil {
				if err := e.publisher.PublishExitCommand(ctx, cmd); err != nil {
					e.metrics.RecordError("publish_exit")
					e.log.Warn("publish exit command failed", logger.Error(err))
				}
			}
		}
		for _, f := range out.Failures {
			e.metrics.RecordError("gateway_exit")
			e.log.Error("exit command rejected",
				logger.String("position_id", id),
				logger.String("action", string(f.Action)),
				logger.String("reason", f.Reason),
			)
		}
		if out.Closed {
			e.retire(id, out.Reason)
		}
	}
}

// retire stops managing a trade while keeping it until its closure is reported.
func (e *Engine) retire(id, reason string) {
	if tc, ok := e.trades[id]; ok {
		e.closing[id] = closingTrade{tc: tc, reason: reason}
		delete(e.trades, id)
	}
}

func (e *Engine) drainClosed(ctx context.Context) {
	if e.closures == nil {
		return
	}
	for _, c := range e.closures.DrainClosed(e.symbol) {
		e.OnPositionClosed(ctx, c)
	}
}

func (e *Engine) tradeIDs() []string {
	ids := make([]string, 0, len(e.trades))
	for id := range e.trades {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) openTradesLocked() []models.OpenTrade {
	out := make([]models.OpenTrade, 0, len(e.trades))
	for _, id := range e.tradeIDs() {
		out = append(out, e.trades[id].View())
	}
	return out
}

func (e *Engine) snapshotLocked() models.Snapshot {
	i := e.series.Len() - 1
	cs := e.correction.State()
	imb := e.imbalance.Last()
	tox := e.toxicity.Last()
	atr, _ := e.atr.Value()

	s := models.Snapshot{
		Symbol:         e.symbol,
		BarIndex:       i,
		InCorrection:   cs.Phase == analytics.PhaseInCorrection,
		Anchor:         cs.AnchorPrice,
		AnchorValid:    cs.AnchorValid,
		ImbalanceRaw:   imb.Raw,
		ImbalanceZ:     imb.Z,
		ToxicityScore:  tox.Score,
		EffSpread:      tox.EffSpread,
		MarketSafe:     tox.Safe,
		ATR:            atr,
		TradingEnabled: e.params.TradingEnabled,
		OpenTrades:     e.openTradesLocked(),
		Performance:    e.perf.Stats(),
		Hurst:          analytics.HurstDefault,
		FractalDim:     analytics.FractalDefault,
		FDZone:         string(analytics.Zone(analytics.FractalDefault)),
	}
	if i >= 0 {
		b := e.series.At(i)
		tr := e.trend.At(i)
		fd := e.fd.At(i)
		s.Time = b.Time
		s.Close = b.Close
		s.Smoothed = tr.Smoothed
		s.Slope = tr.Slope
		s.Trend = tr.State
		s.Hurst = tr.Hurst
		s.FractalDim = fd
		s.FDZone = string(analytics.Zone(fd))
	}
	if e.lastDecision != nil {
		d := *e.lastDecision
		d.Gates = append([]models.GateResult(nil), d.Gates...)
		s.LastDecision = &d
	}
	return s
}

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)              {}
func (nopMetrics) RecordSnapshot(models.Snapshot) {}
func (nopMetrics) RecordDecision(string, string)  {}
func (nopMetrics) RecordExit(string, string)      {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}
