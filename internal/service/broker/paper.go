package broker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
	"HydroFlow/pkg/logger"
)

// ErrUnknownSymbol is returned for symbols without configured metadata.
var ErrUnknownSymbol = errors.New("unknown symbol")

// ReasonStopLoss marks closures triggered by the simulated hard stop.
const ReasonStopLoss = "stop_loss"

type Config struct {
	Balance  float64
	Currency string
	Symbols  []models.SymbolInfo
}

type Option func(*Paper)

// WithClock overrides the time source used for fills.
func WithClock(now func() time.Time) Option {
	return func(p *Paper) { p.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Paper) { p.log = l }
}

type position struct {
	models.Position
	realized decimal.Decimal
}

// Paper is a deterministic order gateway. It fills market orders at the last quote,
// enforces hard stops on every quote and queues closure notifications for DrainClosed.
type Paper struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	currency  string
	symbols   map[string]models.SymbolInfo
	quotes    map[string]models.Tick
	positions map[string]*position
	closed    []models.PositionClosed
	now       func() time.Time
	log       *logger.Logger
}

var (
	_ drepo.OrderGateway    = (*Paper)(nil)
	_ drepo.AccountProvider = (*Paper)(nil)
	_ drepo.ClosureFeed     = (*Paper)(nil)
	_ drepo.QuoteSink       = (*Paper)(nil)
)

func NewPaper(cfg Config, opts ...Option) *Paper {
	p := &Paper{
		balance:   decimal.NewFromFloat(cfg.Balance),
		currency:  cfg.Currency,
		symbols:   make(map[string]models.SymbolInfo, len(cfg.Symbols)),
		quotes:    make(map[string]models.Tick),
		positions: make(map[string]*position),
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.NewNop(),
	}
	for _, s := range cfg.Symbols {
		p.symbols[s.Name] = s
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnQuote stores the quote and stops out positions whose stop was crossed.
func (p *Paper) OnQuote(t models.Tick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[t.Symbol] = t

	for _, id := range p.sortedIDs() {
		pos := p.positions[id]
		if pos.Symbol != t.Symbol || pos.StopLoss <= 0 {
			continue
		}
		hit := (pos.Direction == models.Buy && t.Bid <= pos.StopLoss) ||
			(pos.Direction == models.Sell && t.Ask >= pos.StopLoss)
		if hit {
			p.closeLocked(pos, pos.Volume, pos.StopLoss, ReasonStopLoss, t.Time)
		}
	}
}

func (p *Paper) Submit(_ context.Context, req models.TradeRequest) models.OrderResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, ok := p.quotes[req.Symbol]
	if !ok {
		return models.OrderResult{Error: fmt.Sprintf("no quote for %s", req.Symbol)}
	}
	if req.Volume <= 0 {
		return models.OrderResult{Error: "volume must be positive"}
	}
	price := q.Ask
	stop := price - req.StopDistance
	if req.Direction == models.Sell {
		price = q.Bid
		stop = price + req.StopDistance
	}
	if req.StopDistance <= 0 {
		stop = 0
	}

	id := uuid.NewString()
	p.positions[id] = &position{Position: models.Position{
		ID:         id,
		Symbol:     req.Symbol,
		Label:      req.Label,
		Direction:  req.Direction,
		Volume:     req.Volume,
		EntryPrice: price,
		StopLoss:   stop,
		OpenedAt:   p.fillTime(q),
	}}
	p.log.Debug("paper fill",
		logger.String("position_id", id),
		logger.String("direction", req.Direction.String()),
		logger.Float64("price", price),
		logger.Float64("volume", req.Volume),
	)
	return models.OrderResult{OK: true, PositionID: id, FillPrice: price}
}

// Close closes volume units of a position at the current exit price; 0 closes it entirely.
func (p *Paper) Close(_ context.Context, positionID string, volume float64) models.OrderResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[positionID]
	if !ok {
		return models.OrderResult{Error: fmt.Sprintf("position %s not found", positionID)}
	}
	q, ok := p.quotes[pos.Symbol]
	if !ok {
		return models.OrderResult{Error: fmt.Sprintf("no quote for %s", pos.Symbol)}
	}
	if volume < 0 || volume > pos.Volume {
		return models.OrderResult{Error: fmt.Sprintf("invalid close volume %v", volume)}
	}
	if volume == 0 {
		volume = pos.Volume
	}
	price := q.Bid
	if pos.Direction == models.Sell {
		price = q.Ask
	}
	p.closeLocked(pos, volume, price, "", p.fillTime(q))
	return models.OrderResult{OK: true, PositionID: positionID}
}

func (p *Paper) ModifyStop(_ context.Context, positionID string, stop float64) models.OrderResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[positionID]
	if !ok {
		return models.OrderResult{Error: fmt.Sprintf("position %s not found", positionID)}
	}
	if stop < 0 {
		return models.OrderResult{Error: "negative stop"}
	}
	pos.StopLoss = stop
	return models.OrderResult{OK: true, PositionID: positionID}
}

// Positions returns open positions ordered by opening time.
func (p *Paper) Positions(context.Context) []models.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Position, 0, len(p.positions))
	for _, id := range p.sortedIDs() {
		out = append(out, p.positions[id].Position)
	}
	return out
}

func (p *Paper) Account(context.Context) models.AccountInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	bal, _ := p.balance.Float64()
	return models.AccountInfo{Balance: bal, Currency: p.currency}
}

func (p *Paper) Symbol(_ context.Context, name string) (models.SymbolInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.symbols[name]
	if !ok {
		return models.SymbolInfo{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	return s, nil
}

// DrainClosed returns and forgets the queued closures for symbol.
func (p *Paper) DrainClosed(symbol string) []models.PositionClosed {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out, keep []models.PositionClosed
	for _, c := range p.closed {
		if c.Symbol == symbol {
			out = append(out, c)
		} else {
			keep = append(keep, c)
		}
	}
	p.closed = keep
	return out
}

// closeLocked realises P&L on volume units at price and queues a notification once the position is flat.
func (p *Paper) closeLocked(pos *position, volume, price float64, reason string, at time.Time) {
	pnl := p.pnl(pos, volume, price)
	pos.realized = pos.realized.Add(pnl)
	p.balance = p.balance.Add(pnl)

	remaining := decimal.NewFromFloat(pos.Volume).Sub(decimal.NewFromFloat(volume))
	if remaining.IsPositive() {
		pos.Volume, _ = remaining.Float64()
		return
	}

	net, _ := pos.realized.Float64()
	delete(p.positions, pos.ID)
	p.closed = append(p.closed, models.PositionClosed{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		NetProfit:  net,
		Reason:     reason,
		Time:       at,
	})
}

// pnl is pips moved times pip value per unit times units.
func (p *Paper) pnl(pos *position, volume, price float64) decimal.Decimal {
	sym := p.symbols[pos.Symbol]
	if sym.PipSize <= 0 {
		return decimal.Zero
	}
	move := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(pos.EntryPrice))
	if pos.Direction == models.Sell {
		move = move.Neg()
	}
	pips := move.Div(decimal.NewFromFloat(sym.PipSize))
	return pips.Mul(decimal.NewFromFloat(sym.PipValue)).Mul(decimal.NewFromFloat(volume))
}

func (p *Paper) fillTime(q models.Tick) time.Time {
	if !q.Time.IsZero() {
		return q.Time
	}
	return p.now()
}

func (p *Paper) sortedIDs() []string {
	ids := make([]string, 0, len(p.positions))
	for id := range p.positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := p.positions[ids[i]], p.positions[ids[j]]
		if !a.OpenedAt.Equal(b.OpenedAt) {
			return a.OpenedAt.Before(b.OpenedAt)
		}
		return ids[i] < ids[j]
	})
	return ids
}
