package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
)

const defaultBarLimit = 10000

// ClickHouseJournal writes bars, entry decisions and closed trades to ClickHouse
// and serves stored bars back for warm-up and replay.
type ClickHouseJournal struct {
	db     *sql.DB
	prefix string
}

// NewClickHouseJournal uses tables named <prefix>_bars, <prefix>_decisions and <prefix>_trades.
func NewClickHouseJournal(db *sql.DB, prefix string) *ClickHouseJournal {
	if prefix == "" {
		prefix = "hf"
	}
	return &ClickHouseJournal{db: db, prefix: prefix}
}

func (j *ClickHouseJournal) table(name string) string {
	return j.prefix + "_" + name
}

// Schema returns the idempotent DDL for the journal tables.
func (j *ClickHouseJournal) Schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	symbol LowCardinality(String),
	ts DateTime64(3, 'UTC'),
	open Float64,
	high Float64,
	low Float64,
	close Float64,
	volume Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, ts)`, j.table("bars")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id String,
	symbol LowCardinality(String),
	bar_index UInt32,
	ts DateTime64(3, 'UTC'),
	accepted UInt8,
	gates String,
	request String,
	error String
) ENGINE = MergeTree
ORDER BY (symbol, ts)`, j.table("decisions")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	position_id String,
	symbol LowCardinality(String),
	direction Int8,
	entry_price Float64,
	anchor Float64,
	net_profit Float64,
	reason LowCardinality(String),
	opened_at DateTime64(3, 'UTC'),
	closed_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (symbol, closed_at)`, j.table("trades")),
	}
}

func (j *ClickHouseJournal) Init(ctx context.Context) error {
	for _, stmt := range j.Schema() {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
	}
	return nil
}

func (j *ClickHouseJournal) StoreBar(ctx context.Context, symbol string, b models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, ts, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)", j.table("bars"))
	if _, err := j.db.ExecContext(ctx, q, symbol, b.Time.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
		return fmt.Errorf("store bar: %w", err)
	}
	return nil
}

func (j *ClickHouseJournal) StoreDecision(ctx context.Context, d models.Decision) error {
	gates, req, err := encodeDecision(d)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (id, symbol, bar_index, ts, accepted, gates, request, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", j.table("decisions"))
	accepted := uint8(0)
	if d.Accepted {
		accepted = 1
	}
	if _, err := j.db.ExecContext(ctx, q, d.ID, d.Symbol, uint32(d.BarIndex), d.Time.UTC(), accepted, gates, req, d.Error); err != nil {
		return fmt.Errorf("store decision: %w", err)
	}
	return nil
}

func (j *ClickHouseJournal) StoreTrade(ctx context.Context, t models.TradeRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (position_id, symbol, direction, entry_price, anchor, net_profit, reason, opened_at, closed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", j.table("trades"))
	_, err := j.db.ExecContext(ctx, q, t.PositionID, t.Symbol, int8(t.Direction), t.EntryPrice, t.Anchor, t.NetProfit, t.Reason, t.OpenedAt.UTC(), t.ClosedAt.UTC())
	if err != nil {
		return fmt.Errorf("store trade: %w", err)
	}
	return nil
}

// LoadBars returns up to limit of the most recent bars in [from, to], oldest first.
func (j *ClickHouseJournal) LoadBars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Bar, error) {
	if limit <= 0 {
		limit = defaultBarLimit
	}
	q := fmt.Sprintf("SELECT ts, open, high, low, close, volume FROM %s FINAL WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", j.table("bars"))
	rows, err := j.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	reverseBars(bars)
	return bars, nil
}

func (j *ClickHouseJournal) Health(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (j *ClickHouseJournal) Close() error {
	return nil
}

func encodeDecision(d models.Decision) (gates, req string, err error) {
	g, err := json.Marshal(d.Gates)
	if err != nil {
		return "", "", fmt.Errorf("encode gates: %w", err)
	}
	if d.Request != nil {
		r, err := json.Marshal(d.Request)
		if err != nil {
			return "", "", fmt.Errorf("encode request: %w", err)
		}
		req = string(r)
	}
	return string(g), req, nil
}

func reverseBars(bars []models.Bar) {
	for i, k := 0, len(bars)-1; i < k; i, k = i+1, k-1 {
		bars[i], bars[k] = bars[k], bars[i]
	}
}

var (
	_ drepo.Journal   = (*ClickHouseJournal)(nil)
	_ drepo.BarSource = (*ClickHouseJournal)(nil)
)
