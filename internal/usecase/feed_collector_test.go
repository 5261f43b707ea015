package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"HydroFlow/internal/domain/models"
	mid "HydroFlow/internal/middleware"
	"HydroFlow/pkg/logger"
)

type fakeStream struct {
	mu         sync.Mutex
	ticks      chan *models.Tick
	errs       chan error
	subscribed bool
	reconnects int
	closed     bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{ticks: make(chan *models.Tick), errs: make(chan error)}
}

func (s *fakeStream) Connect(context.Context) error { return nil }

func (s *fakeStream) Subscribe(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = true
	return nil
}

func (s *fakeStream) Read(context.Context) (<-chan *models.Tick, <-chan error) { return s.ticks, s.errs }

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) IsConnected() bool { return true }

type chanProc chan models.Tick

func (p chanProc) Process(_ context.Context, t *models.Tick) error {
	p <- *t
	return nil
}

func TestFeedCollector_ForwardsQuotesAndReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream()
	out := make(chanProc, 4)
	m := newCountingMetrics()
	c := NewFeedCollector(stream, mid.NewRealtimePipeline(out, m, mid.WithMaxRPS(0)), m, logger.NewNop())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stream.ticks <- &models.Tick{Symbol: "EURUSD", Time: t0, Bid: 1.1, Ask: 1.1002}
	select {
	case got := <-out:
		if got.Symbol != "EURUSD" || got.Bid != 1.1 {
			t.Fatalf("forwarded %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("tick not forwarded")
	}

	// crossed quote is dropped by the pipeline
	stream.ticks <- &models.Tick{Symbol: "EURUSD", Time: t0, Bid: 1.1005, Ask: 1.1}
	stream.errs <- errors.New("read: connection reset")
	// the unbuffered send above returns once consume picked the error up; this one
	// returns after Reconnect completed
	stream.ticks <- &models.Tick{Symbol: "EURUSD", Time: t0.Add(time.Second), Bid: 1.1001, Ask: 1.1003}
	<-out

	stream.mu.Lock()
	reconnects := stream.reconnects
	stream.mu.Unlock()
	if reconnects != 1 {
		t.Fatalf("reconnects = %d", reconnects)
	}
	if m.count("stream") != 1 || m.count("pipeline_validate") != 1 {
		t.Fatalf("errors stream=%d validate=%d", m.count("stream"), m.count("pipeline_validate"))
	}

	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !stream.closed || !stream.subscribed {
		t.Fatalf("stream subscribed=%v closed=%v", stream.subscribed, stream.closed)
	}
}
