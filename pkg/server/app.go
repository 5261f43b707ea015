package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"HydroFlow/internal/domain/repository"
	"HydroFlow/internal/usecase"
	"HydroFlow/pkg/cache"
	pkgch "HydroFlow/pkg/clickhouse"
	"HydroFlow/pkg/config"
	xhttp "HydroFlow/pkg/http"
	pkgkafka "HydroFlow/pkg/kafka"
	applogger "HydroFlow/pkg/logger"
)

// Deps lists what the application runs. Collector and Consumer are mutually exclusive;
// every infrastructure dependency may be nil.
type Deps struct {
	Config        *config.Config
	Logger        *applogger.Logger
	Engines       usecase.Engines
	WarmupSource  repository.BarSource
	Collector     *usecase.FeedCollector
	Consumer      *pkgkafka.Consumer
	QuotesHandler pkgkafka.MessageHandler
	HTTP          *xhttp.Server
	Publisher     repository.CommandPublisher
	ClickHouse    *pkgch.Client
	Cache         cache.Service
}

// App encapsulates the entire application lifecycle.
type App struct {
	Deps
	log *applogger.Logger
}

func New(d Deps) *App {
	log := d.Logger
	if log == nil {
		log = applogger.NewNop()
	}
	return &App{Deps: d, log: log}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.log.Info("shutdown signal received")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer done()
	return a.Shutdown(shutdownCtx)
}

// Start warms the engines up, then opens the quote source and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if err := usecase.Warmup(ctx, a.WarmupSource, a.Engines, a.Config.Replay.WarmupBars, a.log); err != nil {
		a.log.Warn("warmup failed, starting cold", applogger.Error(err))
	}

	if a.Collector != nil {
		if err := a.Collector.Start(ctx); err != nil {
			a.log.Error("quote feed start failed", applogger.Error(err))
		} else {
			a.log.Info("quote feed started", applogger.Strings("symbols", a.Engines.Symbols()))
		}
	}

	if a.Consumer != nil && a.QuotesHandler != nil {
		a.Consumer.RegisterHandler(a.QuotesHandler)
		if err := a.Consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.log.Info("kafka quotes consumer started", applogger.String("topic", a.QuotesHandler.Topic()))
	}

	if a.HTTP != nil {
		if err := a.HTTP.Start(); err != nil {
			return fmt.Errorf("start http: %w", err)
		}
	}
	a.log.Info("hydroflow running",
		applogger.Bool("trading_enabled", a.Config.Strategy.TradingEnabled),
		applogger.String("timeframe", a.Config.Feed.Timeframe),
	)
	return nil
}

// Shutdown stops the quote sources first so no event reaches an engine while sinks close.
// The bar under construction is discarded, not evaluated.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	if a.Collector != nil {
		if err := a.Collector.Shutdown(ctx); err != nil {
			a.log.Warn("quote feed stop error", applogger.Error(err))
		}
	}
	if a.Consumer != nil {
		if err := a.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.HTTP != nil {
		if err := a.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	for _, sym := range a.Engines.Symbols() {
		e, _ := a.Engines.Get(sym)
		perf := e.Performance()
		a.log.Info("session performance",
			applogger.String("symbol", sym),
			applogger.Int("trades", perf.TotalTrades),
			applogger.Float64("net_profit", perf.NetProfit),
			applogger.Float64("win_rate", perf.WinRate),
		)
	}

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.ClickHouse != nil {
		if err := a.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
