package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sample struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

func TestMemoryCache_RoundTripAndMiss(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	if err := mc.Set(ctx, Key("snap", "EURUSD"), sample{Symbol: "EURUSD", Value: 1.25}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got sample
	if err := mc.Get(ctx, "snap:EURUSD", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Symbol != "EURUSD" || got.Value != 1.25 {
		t.Fatalf("got %+v", got)
	}
	if err := mc.Get(ctx, "snap:GBPUSD", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	_ = mc.Set(ctx, "k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired key returned err=%v value=%q", err, s)
	}
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatalf("expired key reported as existing")
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	_ = mc.Set(ctx, "a", 1, 0)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", 2, 0)
	time.Sleep(time.Millisecond)
	var n int
	_ = mc.Get(ctx, "a", &n) // a is now fresher than b
	_ = mc.Set(ctx, "c", 3, 0)

	if mc.Len() != 2 {
		t.Fatalf("len = %d, want 2", mc.Len())
	}
	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("a or c missing")
	}
}
