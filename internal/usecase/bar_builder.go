package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
)

// MarketSink consumes the per-symbol event stream produced by a BarBuilder.
type MarketSink interface {
	OnQuote(t models.Tick)
	OnTick(ctx context.Context, t models.Tick) error
	OnBarClose(ctx context.Context, b models.Bar) error
}

var _ MarketSink = (*Engine)(nil)

// BarBuilder aggregates bid quotes into time bars. A tick that opens a new bucket
// is announced with OnQuote, closes the previous bar, then is delivered as a tick of the new bar.
type BarBuilder struct {
	mu   sync.Mutex
	tf   time.Duration
	sink MarketSink
	cur  models.Bar
	open bool
}

func NewBarBuilder(tf drepo.Timeframe, sink MarketSink) *BarBuilder {
	return &BarBuilder{tf: tf.Duration(), sink: sink}
}

// OnTick folds t into the current bar. Ticks older than the current bucket are folded into it.
func (b *BarBuilder) OnTick(ctx context.Context, t models.Tick) error {
	bucket := t.Time.Truncate(b.tf)
	price := t.Bid

	b.mu.Lock()
	var closed *models.Bar
	if b.open && bucket.After(b.cur.Time) {
		c := b.cur
		closed = &c
		b.open = false
	}
	if !b.open {
		b.cur = models.Bar{Time: bucket, Open: price, High: price, Low: price, Close: price}
		b.open = true
	} else {
		if price > b.cur.High {
			b.cur.High = price
		}
		if price < b.cur.Low {
			b.cur.Low = price
		}
		b.cur.Close = price
	}
	b.cur.Volume++
	b.mu.Unlock()

	if closed != nil {
		b.sink.OnQuote(t)
		if err := b.sink.OnBarClose(ctx, *closed); err != nil {
			return fmt.Errorf("close bar: %w", err)
		}
	}
	return b.sink.OnTick(ctx, t)
}

// Current returns the bar under construction.
func (b *BarBuilder) Current() (models.Bar, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur, b.open
}

// Flush closes the bar under construction, if any.
func (b *BarBuilder) Flush(ctx context.Context) error {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return nil
	}
	c := b.cur
	b.open = false
	b.mu.Unlock()
	return b.sink.OnBarClose(ctx, c)
}
