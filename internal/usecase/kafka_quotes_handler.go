package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"HydroFlow/internal/domain/models"
	domrepo "HydroFlow/internal/domain/repository"
	mid "HydroFlow/internal/middleware"
	pkgkafka "HydroFlow/pkg/kafka"
)

// KafkaQuotesHandler consumes quote messages and feeds them to the pipeline.
type KafkaQuotesHandler struct {
	topic   string
	pipe    *mid.RealtimePipeline
	metrics domrepo.Metrics
}

func NewKafkaQuotesHandler(topic string, pipe *mid.RealtimePipeline, metrics domrepo.Metrics) *KafkaQuotesHandler {
	return &KafkaQuotesHandler{topic: topic, pipe: pipe, metrics: metrics}
}

func (h *KafkaQuotesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, bid, ask, t}; t is unix seconds or milliseconds
func (h *KafkaQuotesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		Bid    float64 `json:"bid"`
		Ask    float64 `json:"ask"`
		T      int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode quote: %w", err)
	}
	ts := time.Unix(m.T, 0)
	if m.T > 1e11 { // ms
		ts = time.UnixMilli(m.T)
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	start := time.Now()
	err := h.pipe.Process(ctx, &models.Tick{Symbol: m.Symbol, Time: ts.UTC(), Bid: m.Bid, Ask: m.Ask})
	h.metrics.RecordLatency("quote_process_seconds", time.Since(start).Seconds())
	if err != nil {
		// Malformed quotes are dropped, not retried.
		h.metrics.RecordError("consumer_quote")
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaQuotesHandler)(nil)
