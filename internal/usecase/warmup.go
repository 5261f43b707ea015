package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "HydroFlow/internal/domain/repository"
	"HydroFlow/pkg/logger"
)

// Warmup primes every engine with up to n of the most recent stored bars.
// A nil source or n <= 0 is a no-op.
func Warmup(ctx context.Context, src drepo.BarSource, engines Engines, n int, log *logger.Logger) error {
	if src == nil || n <= 0 {
		return nil
	}
	for _, sym := range engines.Symbols() {
		bars, err := src.LoadBars(ctx, sym, time.Time{}, time.Now().UTC(), n)
		if err != nil {
			return fmt.Errorf("load warmup bars for %s: %w", sym, err)
		}
		if len(bars) == 0 {
			log.Warn("no warmup bars", logger.String("symbol", sym))
			continue
		}
		engines[sym].Warmup(ctx, bars)
	}
	return nil
}
