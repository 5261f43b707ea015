package repository

import (
	"context"

	"HydroFlow/internal/domain/models"
	drepo "HydroFlow/internal/domain/repository"
)

// Producer is the subset of pkg/kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher emits trade requests and exit commands keyed by symbol.
type KafkaPublisher struct {
	producer    Producer
	tradesTopic string
	exitsTopic  string
}

func NewKafkaPublisher(producer Producer, tradesTopic, exitsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, tradesTopic: tradesTopic, exitsTopic: exitsTopic}
}

func (p *KafkaPublisher) PublishTradeRequest(ctx context.Context, req models.TradeRequest) error {
	return p.producer.Publish(ctx, p.tradesTopic, []byte(req.Symbol), req)
}

func (p *KafkaPublisher) PublishExitCommand(ctx context.Context, cmd models.ExitCommand) error {
	return p.producer.Publish(ctx, p.exitsTopic, []byte(cmd.Symbol), cmd)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

var _ drepo.CommandPublisher = (*KafkaPublisher)(nil)
