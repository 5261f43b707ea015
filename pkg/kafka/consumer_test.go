package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type flakyHandler struct {
	failures int
	calls    int
	panics   bool
}

func (h *flakyHandler) Topic() string { return "quotes" }

func (h *flakyHandler) Handle(ctx context.Context, b []byte) error {
	h.calls++
	if h.panics {
		panic("boom")
	}
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(nil,
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retries, time.Millisecond, 2*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return c
}

func TestConsumer_HandleRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &flakyHandler{failures: 2}
	if err := c.handle(h, []byte("{}")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if h.calls != 3 {
		t.Fatalf("calls = %d, want 3", h.calls)
	}
}

func TestConsumer_HandleGivesUp(t *testing.T) {
	c := newTestConsumer(t, 2)
	h := &flakyHandler{failures: 10}
	if err := c.handle(h, nil); err == nil {
		t.Fatalf("expected error after retries")
	}
	if h.calls != 3 {
		t.Fatalf("calls = %d, want 1 attempt + 2 retries", h.calls)
	}
}

func TestConsumer_HandleRecoversPanic(t *testing.T) {
	c := newTestConsumer(t, 5)
	h := &flakyHandler{panics: true}
	err := c.handle(h, nil)
	if err == nil || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("err = %v, want panic error", err)
	}
	if h.calls != 1 {
		t.Fatalf("panic retried: calls = %d", h.calls)
	}
}

func TestConsumer_RequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestConsumer_PartitionLockIsStable(t *testing.T) {
	c := newTestConsumer(t, 0)
	if c.partitionLock("quotes", 1) != c.partitionLock("quotes", 1) {
		t.Fatalf("partition lock not reused")
	}
	if c.partitionLock("quotes", 1) == c.partitionLock("quotes", 2) {
		t.Fatalf("partitions share a lock")
	}
}
