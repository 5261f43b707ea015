package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"HydroFlow/internal/domain/models"
	domrepo "HydroFlow/internal/domain/repository"
)

// ErrInvalidTick is wrapped by every validation failure.
var ErrInvalidTick = errors.New("invalid tick")

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.Tick) error
}

// RealtimePipeline sits between the quote feed and the engines.
// It validates quotes and, when a rate is configured, throttles them per symbol.
// Throttling is off by default: every dropped quote is lost to order-flow counting
// and to the broker's stop checks.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max quotes per second per symbol. Zero disables throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBurst sets how many quotes may arrive back to back before throttling applies.
func WithBurst(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.burst = n
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		burst:    10,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates and forwards a quote downstream. Throttled quotes are dropped silently.
func (p *RealtimePipeline) Process(ctx context.Context, t *models.Tick) error {
	start := time.Now()
	if err := ValidateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.Symbol) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// ValidateTick rejects quotes the engines cannot use.
func ValidateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("%w: nil", ErrInvalidTick)
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol empty", ErrInvalidTick)
	}
	if t.Time.IsZero() {
		return fmt.Errorf("%w: timestamp missing", ErrInvalidTick)
	}
	if t.Bid <= 0 || t.Ask <= 0 {
		return fmt.Errorf("%w: non-positive bid/ask", ErrInvalidTick)
	}
	if t.Ask < t.Bid {
		return fmt.Errorf("%w: crossed quote", ErrInvalidTick)
	}
	return nil
}

func (p *RealtimePipeline) allow(symbol string) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	l, ok := p.limiters[symbol]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.maxRPS), p.burst)
		p.limiters[symbol] = l
	}
	p.mu.Unlock()
	return l.Allow()
}
