package usecase

import (
	"context"
	"fmt"
	"sort"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
)

// Engines indexes the per-symbol engines.
type Engines map[string]*Engine

// NewEngines indexes engines by symbol.
func NewEngines(list ...*Engine) Engines {
	m := make(Engines, len(list))
	for _, e := range list {
		m[e.Symbol()] = e
	}
	return m
}

func (m Engines) Get(symbol string) (*Engine, bool) {
	e, ok := m[symbol]
	return e, ok
}

// Symbols returns the configured symbols in sorted order.
func (m Engines) Symbols() []string {
	out := make([]string, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// TickRouter hands each validated quote to the quote sink (the simulated broker) and then
// to the bar builder of its symbol.
type TickRouter struct {
	builders map[string]*BarBuilder
	quotes   drepo.QuoteSink
	metrics  drepo.Metrics
}

func NewTickRouter(engines Engines, tf drepo.Timeframe, quotes drepo.QuoteSink, metrics drepo.Metrics) *TickRouter {
	r := &TickRouter{builders: make(map[string]*BarBuilder, len(engines)), quotes: quotes, metrics: metrics}
	for sym, e := range engines {
		r.builders[sym] = NewBarBuilder(tf, e)
	}
	return r
}

// Process routes one quote.
func (r *TickRouter) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	b, ok := r.builders[t.Symbol]
	if !ok {
		if r.metrics != nil {
			r.metrics.RecordError("route_unknown_symbol")
		}
		return fmt.Errorf("route tick: unknown symbol %q", t.Symbol)
	}
	if r.quotes != nil {
		r.quotes.OnQuote(*t)
	}
	return b.OnTick(ctx, *t)
}

// Flush closes every bar under construction.
func (r *TickRouter) Flush(ctx context.Context) error {
	for sym, b := range r.builders {
		if err := b.Flush(ctx); err != nil {
			return fmt.Errorf("flush %s: %w", sym, err)
		}
	}
	return nil
}
