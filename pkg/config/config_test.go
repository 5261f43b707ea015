package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
feed:
  url: wss://quotes.example/ws
  symbols: [EURUSD]
strategy:
  dynamic_stop: false
broker:
  symbols:
    - name: USDJPY
      pip_size: 0.01
`

func TestParse_AppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Server.Port != 8080 || c.Feed.ReconnectDelay != time.Second {
		t.Fatalf("server/feed defaults not applied: %+v %+v", c.Server, c.Feed)
	}
	if c.Feed.MaxRPS != 0 {
		t.Fatalf("feed throttle must default to off, got %v", c.Feed.MaxRPS)
	}
	s := c.Strategy
	if s.HurstPeriod != 100 || s.FDWindow != 50 || s.ChaosThreshold != 1.65 || s.StableThreshold != 1.45 {
		t.Fatalf("strategy defaults not applied: %+v", s)
	}
	if len(s.HurstScales) != 4 || s.HurstScales[3] != 40 {
		t.Fatalf("hurst scales = %v", s.HurstScales)
	}
	if s.TradingEnabled {
		t.Fatalf("trading must default to disabled")
	}
	if s.DynamicStop {
		t.Fatalf("explicit false overridden by default")
	}
	if !s.ReversalExit {
		t.Fatalf("reversal_exit default lost")
	}
	jpy := c.Symbol("USDJPY")
	if jpy.PipSize != 0.01 || jpy.VolumeStep != 0.01 || jpy.PipValue != 10 {
		t.Fatalf("symbol defaults = %+v", jpy)
	}
	if eur := c.Symbol("EURUSD"); eur.PipSize != 0.0001 {
		t.Fatalf("fallback symbol = %+v", eur)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"no symbols":      "environment: test\nfeed:\n  url: ws://x\n",
		"missing url":     "environment: test\nfeed:\n  symbols: [EURUSD]\n",
		"kafka no broker": "environment: test\nfeed:\n  type: kafka\n  symbols: [EURUSD]\n",
		"bad thresholds":  "environment: test\nfeed:\n  url: ws://x\n  symbols: [EURUSD]\nstrategy:\n  stable_threshold: 1.7\n",
		"bad time stops":  "environment: test\nfeed:\n  url: ws://x\n  symbols: [EURUSD]\nstrategy:\n  time_stop_2_bars: 10\n",
		"bad log level":   "environment: test\nlogger:\n  level: loud\nfeed:\n  url: ws://x\n  symbols: [EURUSD]\n",
	}
	for name, y := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(y)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYMBOLS", "GBPUSD, USDJPY")
	t.Setenv("TRADING_ENABLED", "true")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("FEED_URL", "")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if strings.Join(c.Feed.Symbols, ",") != "GBPUSD,USDJPY" {
		t.Fatalf("symbols = %v", c.Feed.Symbols)
	}
	if !c.Strategy.TradingEnabled || c.Redis.Host != "redis.internal" {
		t.Fatalf("overrides not applied: trading=%v redis=%s", c.Strategy.TradingEnabled, c.Redis.Host)
	}
	if c.Feed.URL != "wss://quotes.example/ws" {
		t.Fatalf("empty env var overrode url: %q", c.Feed.URL)
	}

	t.Setenv("TRADING_ENABLED", "maybe")
	if _, err := LoadWithEnv(path); err == nil {
		t.Fatalf("expected error for bad TRADING_ENABLED")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Feed.Type != "websocket" || len(c.Feed.Symbols) != 2 || c.Strategy.TradingEnabled {
		t.Fatalf("shipped config = %+v", c.Feed)
	}
	if c.Symbol("GBPUSD").PipValue != 10 {
		t.Fatalf("GBPUSD metadata = %+v", c.Symbol("GBPUSD"))
	}
}
