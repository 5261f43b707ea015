package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"HydroFlow/internal/domain/models"
	"HydroFlow/internal/domain/repository"
	"HydroFlow/internal/handler/api"
	mid "HydroFlow/internal/middleware"
	internalrepo "HydroFlow/internal/repository"
	"HydroFlow/internal/service/broker"
	"HydroFlow/internal/service/quotes"
	"HydroFlow/internal/services/trading"
	"HydroFlow/internal/usecase"
	"HydroFlow/pkg/cache"
	pkgch "HydroFlow/pkg/clickhouse"
	"HydroFlow/pkg/config"
	xhttp "HydroFlow/pkg/http"
	pkgkafka "HydroFlow/pkg/kafka"
	applogger "HydroFlow/pkg/logger"
	"HydroFlow/pkg/metrics"
	"HydroFlow/pkg/server"
)

// ProvideLogger builds the application logger from the logger section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry served on the metrics endpoint.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

func ProvideTimeframe(cfg *config.Config) repository.Timeframe {
	return repository.NormalizeTimeframe(cfg.Feed.Timeframe)
}

// ProvideParams converts the strategy section into engine parameters.
func ProvideParams(cfg *config.Config) trading.Params {
	s := cfg.Strategy
	return trading.Params{
		SmoothLength:   s.SmoothLength,
		HurstPeriod:    s.HurstPeriod,
		HurstThreshold: s.HurstThreshold,
		HurstScales:    append([]int(nil), s.HurstScales...),

		FDWindow:        s.FDWindow,
		FDMaxK:          s.FDMaxK,
		ChaosThreshold:  s.ChaosThreshold,
		StableThreshold: s.StableThreshold,
		AnchorLookback:  s.AnchorLookback,

		ImbalanceLookback:   s.ImbalanceLookback,
		ImbalanceHistory:    s.ImbalanceHistory,
		ImbalanceZThreshold: s.ImbalanceZThreshold,
		ToxicityThreshold:   s.ToxicityThreshold,
		ToxicityHistory:     s.ToxicityHistory,

		EntryMargin: s.EntryMargin,

		RiskPercent:         s.RiskPercent,
		StopBufferPips:      s.StopBufferPips,
		DynamicStop:         s.DynamicStop,
		BaseStopMultiplier:  s.BaseStopMultiplier,
		ATRPeriod:           s.ATRPeriod,
		BallisticMultiplier: s.BallisticMultiplier,

		ReversalExit:        s.ReversalExit,
		TimeStops:           s.TimeStops,
		TimeStop1Bars:       s.TimeStop1Bars,
		TimeStop2Bars:       s.TimeStop2Bars,
		TP1Percent:          s.TP1Percent,
		TrailingATRMultiple: s.TrailingATRMultiple,

		TradingEnabled: s.TradingEnabled,
		MaxPositions:   s.MaxPositions,
		Label:          s.Label,
	}
}

// ProvidePaperBroker creates the simulated gateway with metadata for every feed symbol.
func ProvidePaperBroker(cfg *config.Config, log *applogger.Logger) *broker.Paper {
	symbols := make([]models.SymbolInfo, 0, len(cfg.Feed.Symbols))
	for _, name := range cfg.Feed.Symbols {
		s := cfg.Symbol(name)
		symbols = append(symbols, models.SymbolInfo{
			Name:       name,
			PipSize:    s.PipSize,
			PipValue:   s.PipValue,
			VolumeMin:  s.VolumeMin,
			VolumeMax:  s.VolumeMax,
			VolumeStep: s.VolumeStep,
		})
	}
	return broker.NewPaper(broker.Config{
		Balance:  cfg.Broker.Balance,
		Currency: cfg.Broker.Currency,
		Symbols:  symbols,
	}, broker.WithLogger(log.With(applogger.String("component", "paper_broker"))))
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the journal is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideClickHouseJournal creates the journal tables and returns the repository.
func ProvideClickHouseJournal(client *pkgch.Client, cfg *config.Config) (*internalrepo.ClickHouseJournal, error) {
	if client == nil {
		return nil, nil
	}
	j := internalrepo.NewClickHouseJournal(client.DB(), cfg.ClickHouse.TablePrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, j.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return j, nil
}

// ProvideJournal exposes the ClickHouse journal as the engine journal. Nil stays an untyped nil.
func ProvideJournal(j *internalrepo.ClickHouseJournal) repository.Journal {
	if j == nil {
		return nil
	}
	return j
}

// ProvideCache returns Redis when enabled and an in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

func ProvideSnapshotStore(c cache.Service, cfg *config.Config) repository.SnapshotStore {
	return internalrepo.NewCacheSnapshotStore(c, cfg.Redis.SnapshotTTL)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(p.Compression),
		pkgkafka.WithRequiredAcks(p.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithBatching(p.BatchSize, p.BatchTimeout),
		pkgkafka.WithWriteTimeout(p.WriteTimeout),
		pkgkafka.WithAsync(p.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCommandPublisher publishes trade requests and exit commands to Kafka.
func ProvideCommandPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.CommandPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Trades, cfg.Kafka.Topics.Exits)
}

// ProvideBarSource picks where warmup and the bars endpoint read history from.
func ProvideBarSource(cfg *config.Config, j *internalrepo.ClickHouseJournal) repository.BarSource {
	switch cfg.Replay.Source {
	case "parquet":
		return internalrepo.NewParquetBarStore(cfg.Replay.ParquetDir)
	case "clickhouse":
		if j != nil {
			return j
		}
	}
	return nil
}

// ProvideEngines builds one engine per feed symbol sharing the paper broker.
func ProvideEngines(
	cfg *config.Config,
	params trading.Params,
	paper *broker.Paper,
	journal repository.Journal,
	snapshots repository.SnapshotStore,
	publisher repository.CommandPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) usecase.Engines {
	list := make([]*usecase.Engine, 0, len(cfg.Feed.Symbols))
	for _, sym := range cfg.Feed.Symbols {
		list = append(list, usecase.NewEngine(sym, params, paper, paper,
			usecase.WithJournal(journal),
			usecase.WithSnapshotStore(snapshots),
			usecase.WithPublisher(publisher),
			usecase.WithMetrics(m),
			usecase.WithClosureFeed(paper),
			usecase.WithLogger(log.With(applogger.String("component", "engine"))),
		))
	}
	return usecase.NewEngines(list...)
}

func ProvideTickRouter(engines usecase.Engines, tf repository.Timeframe, paper *broker.Paper, m repository.Metrics) *usecase.TickRouter {
	return usecase.NewTickRouter(engines, tf, paper, m)
}

// ProvidePipeline puts validation and per-symbol throttling in front of the router.
func ProvidePipeline(router *usecase.TickRouter, m repository.Metrics, cfg *config.Config) *mid.RealtimePipeline {
	return mid.NewRealtimePipeline(router, m,
		mid.WithMaxRPS(int(cfg.Feed.MaxRPS)),
		mid.WithBurst(cfg.Feed.Burst),
	)
}

// ProvideFeedCollector creates the websocket collector, or nil when quotes come from Kafka.
func ProvideFeedCollector(cfg *config.Config, pipe *mid.RealtimePipeline, m repository.Metrics, log *applogger.Logger) *usecase.FeedCollector {
	if cfg.Feed.Type != "websocket" {
		return nil
	}
	stream := quotes.New(
		cfg.Feed.APIKey,
		cfg.Feed.URL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.MaxReconnect,
		cfg.Feed.PingInterval,
		log.With(applogger.String("component", "quotes")),
	)
	return usecase.NewFeedCollector(stream, pipe, m, log.With(applogger.String("component", "feed")))
}

// ProvideKafkaConsumer creates the quotes consumer, or nil for the websocket feed.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Feed.Type != "kafka" {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideKafkaQuotesHandler(cfg *config.Config, pipe *mid.RealtimePipeline, m repository.Metrics) *usecase.KafkaQuotesHandler {
	return usecase.NewKafkaQuotesHandler(cfg.Kafka.Topics.Quotes, pipe, m)
}

// ProvideHTTPHandler wires the operator API. Optional dependencies are passed as untyped nils.
func ProvideHTTPHandler(
	log *applogger.Logger,
	engines usecase.Engines,
	snapshots repository.SnapshotStore,
	bars repository.BarSource,
	collector *usecase.FeedCollector,
	journal repository.Journal,
	tf repository.Timeframe,
) xhttp.Handler {
	var feed api.FeedStatus
	if collector != nil {
		feed = collector
	}
	var health api.HealthChecker
	if journal != nil {
		health = journal
	}
	return api.NewEngineEchoHandler(log, engines, snapshots, bars, feed, health, tf)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, log *applogger.Logger, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg))
	}
	return xhttp.NewServer(h, log.With(applogger.String("component", "http")), opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	engines usecase.Engines,
	bars repository.BarSource,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaQuotesHandler,
	httpServer *xhttp.Server,
	publisher repository.CommandPublisher,
	chClient *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(server.Deps{
		Config:        cfg,
		Logger:        log,
		Engines:       engines,
		WarmupSource:  bars,
		Collector:     collector,
		Consumer:      consumer,
		QuotesHandler: kh,
		HTTP:          httpServer,
		Publisher:     publisher,
		ClickHouse:    chClient,
		Cache:         c,
	})
}
