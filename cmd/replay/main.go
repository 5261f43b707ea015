package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"HydroFlow/internal/di"
	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/repository"
	"HydroFlow/internal/usecase"
	"HydroFlow/pkg/config"
	applogger "HydroFlow/pkg/logger"
	"HydroFlow/pkg/util"
)

type result struct {
	Symbol      string             `json:"symbol"`
	Bars        int                `json:"bars"`
	WarmupBars  int                `json:"warmup_bars"`
	OpenTrades  int                `json:"open_trades"`
	Performance models.Performance `json:"performance"`
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	fromFlag := flag.String("from", "", "first bar time (RFC3339 or unix)")
	toFlag := flag.String("to", "", "last bar time (RFC3339 or unix)")
	limit := flag.Int("limit", 100000, "maximum bars per symbol")
	trade := flag.Bool("trade", true, "enable order placement during replay")
	export := flag.String("export", "", "write the loaded bars to parquet files in this directory")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if cfg.Replay.Source == "none" {
		log.Fatalf("replay.source must be clickhouse or parquet")
	}
	cfg.Strategy.TradingEnabled = *trade

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	client, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse: %v", err)
	}
	if client != nil {
		defer client.Close()
	}
	journal, err := di.ProvideClickHouseJournal(client, cfg)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	src := di.ProvideBarSource(cfg, journal)
	if src == nil {
		log.Fatalf("no bar source for replay.source=%s", cfg.Replay.Source)
	}

	from := util.ParseTimeDefault(*fromFlag, time.Time{})
	to := util.ParseTimeDefault(*toFlag, time.Now().UTC())
	ctx := context.Background()

	var results []result
	for _, sym := range cfg.Feed.Symbols {
		bars, err := src.LoadBars(ctx, sym, from, to, *limit)
		if err != nil {
			log.Fatalf("load bars for %s: %v", sym, err)
		}
		if *export != "" {
			if err := repository.NewParquetBarStore(*export).Export(sym, bars); err != nil {
				log.Fatalf("export %s: %v", sym, err)
			}
			logger.Info("bars exported", applogger.String("symbol", sym), applogger.Int("bars", len(bars)), applogger.String("dir", *export))
		}
		results = append(results, replay(ctx, cfg, sym, bars, logger))
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("encode results: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}

// replay drives one engine over bars. Each bar becomes one quote at its close
// (bid = close, ask = close + spread) followed by the bar close event.
func replay(ctx context.Context, cfg *config.Config, sym string, bars []models.Bar, logger *applogger.Logger) result {
	paper := di.ProvidePaperBroker(cfg, logger)
	engine := usecase.NewEngine(sym, di.ProvideParams(cfg), paper, paper,
		usecase.WithClosureFeed(paper),
		usecase.WithLogger(logger.With(applogger.String("component", "replay"))),
	)

	warm := 0
	if cfg.Replay.WarmupBars < len(bars) {
		warm = cfg.Replay.WarmupBars
	}
	engine.Warmup(ctx, bars[:warm])

	tf := di.ProvideTimeframe(cfg).Duration()
	spread := cfg.Replay.SpreadPips * cfg.Symbol(sym).PipSize
	for _, b := range bars[warm:] {
		q := models.Tick{Symbol: sym, Time: b.Time.Add(tf - time.Millisecond), Bid: b.Close, Ask: b.Close + spread}
		paper.OnQuote(q)
		if err := engine.OnTick(ctx, q); err != nil {
			logger.Warn("replay tick", applogger.Error(err))
		}
		if err := engine.OnBarClose(ctx, b); err != nil {
			logger.Warn("replay bar", applogger.Error(err))
		}
	}

	res := result{
		Symbol:      sym,
		Bars:        len(bars),
		WarmupBars:  warm,
		OpenTrades:  len(engine.OpenTrades()),
		Performance: engine.Performance(),
	}
	logger.Info("replay finished",
		applogger.String("symbol", sym),
		applogger.Int("trades", res.Performance.TotalTrades),
		applogger.Float64("net_profit", res.Performance.NetProfit),
		applogger.Int("open_trades", res.OpenTrades),
	)
	return res
}
