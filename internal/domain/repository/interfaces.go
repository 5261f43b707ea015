package repository

import (
	"context"
	"errors"
	"time"

	"HydroFlow/internal/domain/models"
)

// ErrSnapshotNotFound is returned by SnapshotStore.Load when nothing was saved for a symbol.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// OrderGateway executes trade and exit commands. Failures are reported in OrderResult, never retried.
type OrderGateway interface {
	Submit(ctx context.Context, req models.TradeRequest) models.OrderResult
	// Close closes volume lots of a position; a volume of 0 closes it entirely.
	Close(ctx context.Context, positionID string, volume float64) models.OrderResult
	ModifyStop(ctx context.Context, positionID string, stop float64) models.OrderResult
	Positions(ctx context.Context) []models.Position
}

type AccountProvider interface {
	Account(ctx context.Context) models.AccountInfo
	Symbol(ctx context.Context, name string) (models.SymbolInfo, error)
}

type CommandPublisher interface {
	PublishTradeRequest(ctx context.Context, req models.TradeRequest) error
	PublishExitCommand(ctx context.Context, cmd models.ExitCommand) error
	Close() error
}

type Journal interface {
	Init(ctx context.Context) error // ensure tables
	StoreBar(ctx context.Context, symbol string, b models.Bar) error
	StoreDecision(ctx context.Context, d models.Decision) error
	StoreTrade(ctx context.Context, t models.TradeRecord) error
	Health(ctx context.Context) error // ping
	Close() error
}

type BarSource interface {
	LoadBars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Bar, error)
}

type SnapshotStore interface {
	Save(ctx context.Context, s models.Snapshot) error
	Load(ctx context.Context, symbol string) (models.Snapshot, error)
}

type Metrics interface {
	RecordTick(symbol string)
	RecordSnapshot(s models.Snapshot)
	RecordDecision(symbol, outcome string)
	RecordExit(symbol, reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// ClosureFeed hands out position-closed notifications queued by a gateway.
// The engine drains it after each event instead of being called back while it holds its lock.
type ClosureFeed interface {
	DrainClosed(symbol string) []models.PositionClosed
}

// QuoteSink receives every validated quote before strategy processing.
type QuoteSink interface {
	OnQuote(t models.Tick)
}
