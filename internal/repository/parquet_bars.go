package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
)

// ParquetBar is the on-disk row layout. Timestamps are unix milliseconds.
type ParquetBar struct {
	Symbol    string  `parquet:"symbol,dict"`
	Timestamp int64   `parquet:"t"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    float64 `parquet:"v"`
}

func (r ParquetBar) bar() models.Bar {
	return models.Bar{
		Time:   time.UnixMilli(r.Timestamp).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

// ParquetBarStore reads and writes one Parquet file per symbol under dir.
type ParquetBarStore struct {
	dir string
}

func NewParquetBarStore(dir string) *ParquetBarStore {
	return &ParquetBarStore{dir: dir}
}

func (s *ParquetBarStore) path(symbol string) string {
	return filepath.Join(s.dir, strings.ToLower(symbol)+".parquet")
}

// Export writes bars for symbol, replacing any existing file.
func (s *ParquetBarStore) Export(symbol string, bars []models.Bar) error {
	rows := make([]ParquetBar, len(bars))
	for i, b := range bars {
		rows[i] = ParquetBar{
			Symbol:    symbol,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := parquet.WriteFile(s.path(symbol), rows); err != nil {
		return fmt.Errorf("export bars: %w", err)
	}
	return nil
}

// LoadBars returns up to limit of the most recent bars in [from, to], oldest first.
// A zero from or to leaves that side open.
func (s *ParquetBarStore) LoadBars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Bar, error) {
	rows, err := parquet.ReadFile[ParquetBar](s.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}
	bars := make([]models.Bar, 0, len(rows))
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := r.bar()
		if !from.IsZero() && b.Time.Before(from) {
			continue
		}
		if !to.IsZero() && b.Time.After(to) {
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, k int) bool { return bars[i].Time.Before(bars[k].Time) })
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

var _ drepo.BarSource = (*ParquetBarStore)(nil)
