package usecase

import (
	"context"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
	mid "HydroFlow/internal/middleware"
	"HydroFlow/pkg/logger"
)

// FeedCollector reads quotes from a market stream and pushes them through the pipeline.
type FeedCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.RealtimePipeline
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewFeedCollector creates a new FeedCollector instance.
func NewFeedCollector(stream drepo.MarketStream, pipe *mid.RealtimePipeline, metrics drepo.Metrics, log *logger.Logger) *FeedCollector {
	return &FeedCollector{stream: stream, pipe: pipe, metrics: metrics, log: log}
}

// IsConnected returns true if the market stream is connected.
func (c *FeedCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *FeedCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *FeedCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			c.log.Warn("quote stream error, reconnecting", logger.Error(err))
			if err := c.stream.Reconnect(ctx); err != nil {
				c.log.Error("quote stream reconnect failed", logger.Error(err))
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if err := c.pipe.Process(ctx, t); err != nil {
				c.log.Debug("tick dropped", logger.String("symbol", t.Symbol), logger.Error(err))
			}
		}
	}
}

// Shutdown closes the stream.
func (c *FeedCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
