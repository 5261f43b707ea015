package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	Feed struct {
		Type           string        `yaml:"type" default:"websocket" validate:"oneof=websocket kafka"`
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		Symbols        []string      `yaml:"symbols" validate:"min=1,dive,required"`
		Timeframe      string        `yaml:"timeframe" default:"1h"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"1s"`
		MaxReconnect   time.Duration `yaml:"max_reconnect" default:"2m"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		MaxRPS         float64       `yaml:"max_rps" default:"0" validate:"gte=0"`
		Burst          int           `yaml:"burst" default:"10" validate:"gte=0"`
	} `yaml:"feed"`
	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topics  struct {
			Quotes string `yaml:"quotes" default:"hydroflow.quotes"`
			Trades string `yaml:"trades" default:"hydroflow.trades"`
			Exits  string `yaml:"exits" default:"hydroflow.exits"`
		} `yaml:"topics"`
		Producer struct {
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"hydroflow"`
			Workers    int           `yaml:"workers" default:"1"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		TablePrefix      string        `yaml:"table_prefix" default:"hf"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"6379"`
		Password    string        `yaml:"password"`
		DB          int           `yaml:"db"`
		Prefix      string        `yaml:"prefix" default:"hydroflow"`
		SnapshotTTL time.Duration `yaml:"snapshot_ttl" default:"24h"`
	} `yaml:"redis"`
	Replay struct {
		Source     string  `yaml:"source" default:"none" validate:"oneof=none clickhouse parquet"`
		ParquetDir string  `yaml:"parquet_dir" default:"data"`
		WarmupBars int     `yaml:"warmup_bars" default:"500" validate:"gte=0"`
		SpreadPips float64 `yaml:"spread_pips" default:"1" validate:"gte=0"`
	} `yaml:"replay"`
	Broker struct {
		Balance  float64        `yaml:"balance" default:"10000" validate:"gt=0"`
		Currency string         `yaml:"currency" default:"USD"`
		Symbols  []SymbolConfig `yaml:"symbols" validate:"dive"`
	} `yaml:"broker"`
	Strategy Strategy `yaml:"strategy"`
}

// SymbolConfig is the paper broker metadata for one instrument.
type SymbolConfig struct {
	Name       string  `yaml:"name" validate:"required"`
	PipSize    float64 `yaml:"pip_size" default:"0.0001" validate:"gt=0"`
	PipValue   float64 `yaml:"pip_value" default:"10" validate:"gt=0"`
	VolumeMin  float64 `yaml:"volume_min" default:"0.01" validate:"gt=0"`
	VolumeMax  float64 `yaml:"volume_max" default:"100"`
	VolumeStep float64 `yaml:"volume_step" default:"0.01" validate:"gt=0"`
}

// Strategy mirrors trading.Params; defaults match trading.DefaultParams.
type Strategy struct {
	SmoothLength   int     `yaml:"smooth_length" default:"10" validate:"gt=0"`
	HurstPeriod    int     `yaml:"hurst_period" default:"100" validate:"gt=0"`
	HurstThreshold float64 `yaml:"hurst_threshold" default:"0.55"`
	HurstScales    []int   `yaml:"hurst_scales" default:"[5,10,20,40]" validate:"min=2,dive,gt=1"`

	FDWindow        int     `yaml:"fd_window" default:"50" validate:"gt=0"`
	FDMaxK          int     `yaml:"fd_max_k" default:"8" validate:"gt=1"`
	ChaosThreshold  float64 `yaml:"chaos_threshold" default:"1.65"`
	StableThreshold float64 `yaml:"stable_threshold" default:"1.45"`
	AnchorLookback  int     `yaml:"anchor_lookback" default:"20" validate:"gt=0"`

	ImbalanceLookback   int     `yaml:"imbalance_lookback" default:"5" validate:"gte=0"`
	ImbalanceHistory    int     `yaml:"imbalance_history" default:"100" validate:"gt=0"`
	ImbalanceZThreshold float64 `yaml:"imbalance_z_threshold" default:"2.0"`
	ToxicityThreshold   float64 `yaml:"toxicity_threshold" default:"2.5"`
	ToxicityHistory     int     `yaml:"toxicity_history" default:"50" validate:"gt=0"`

	EntryMargin float64 `yaml:"entry_margin" default:"0.05" validate:"gte=0"`

	RiskPercent         float64 `yaml:"risk_percent" default:"1.0" validate:"gt=0,lte=100"`
	StopBufferPips      float64 `yaml:"stop_buffer_pips" default:"5" validate:"gte=0"`
	DynamicStop         bool    `yaml:"dynamic_stop" default:"true"`
	BaseStopMultiplier  float64 `yaml:"base_stop_multiplier" default:"2.0" validate:"gt=0"`
	ATRPeriod           int     `yaml:"atr_period" default:"14" validate:"gt=0"`
	BallisticMultiplier float64 `yaml:"ballistic_multiplier" default:"1.618" validate:"gt=0"`

	ReversalExit        bool    `yaml:"reversal_exit" default:"true"`
	TimeStops           bool    `yaml:"time_stops" default:"true"`
	TimeStop1Bars       int     `yaml:"time_stop_1_bars" default:"30" validate:"gt=0"`
	TimeStop2Bars       int     `yaml:"time_stop_2_bars" default:"50" validate:"gt=0"`
	TP1Percent          float64 `yaml:"tp1_percent" default:"50" validate:"gt=0,lte=100"`
	TrailingATRMultiple float64 `yaml:"trailing_atr_multiple" default:"1.5" validate:"gt=0"`

	TradingEnabled bool   `yaml:"trading_enabled"`
	MaxPositions   int    `yaml:"max_positions" default:"1" validate:"gt=0"`
	Label          string `yaml:"label" default:"hydroflow" validate:"required"`
}

var validate = validator.New()

// Load reads a YAML file, applies struct defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes the same way Load does.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// decode sets defaults first so explicit false or zero values in YAML survive.
func decode(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i := range c.Broker.Symbols {
		if err := defaults.Set(&c.Broker.Symbols[i]); err != nil {
			return nil, fmt.Errorf("config defaults: %w", err)
		}
	}
	return &c, nil
}

// LoadWithEnv loads .env when present, then the YAML file, then applies
// environment overrides before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Feed.Symbols = splitList(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("TRADING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRADING_ENABLED: %w", err)
		}
		c.Strategy.TradingEnabled = enabled
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate runs tag validation and the cross-field checks tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Feed.Type == "websocket" && c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required for the websocket feed")
	}
	if (c.Feed.Type == "kafka" || c.Kafka.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Replay.Source == "clickhouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("replay.source clickhouse requires clickhouse.enabled")
	}
	s := c.Strategy
	if s.StableThreshold >= s.ChaosThreshold {
		return fmt.Errorf("strategy.stable_threshold must be below chaos_threshold")
	}
	if s.TimeStop2Bars <= s.TimeStop1Bars {
		return fmt.Errorf("strategy.time_stop_2_bars must exceed time_stop_1_bars")
	}
	for _, sym := range c.Broker.Symbols {
		if sym.VolumeMax < sym.VolumeMin {
			return fmt.Errorf("broker symbol %s: volume_max below volume_min", sym.Name)
		}
	}
	return nil
}

// Symbol returns broker metadata for name, falling back to defaults for unlisted symbols.
func (c *Config) Symbol(name string) SymbolConfig {
	for _, s := range c.Broker.Symbols {
		if s.Name == name {
			return s
		}
	}
	s := SymbolConfig{Name: name}
	_ = defaults.Set(&s)
	return s
}
