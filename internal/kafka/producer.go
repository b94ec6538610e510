package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tmoore-prog/stock-market-pipeline/internal/models"
)

// Producer publishes ingestion events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishDayCompleted publishes a day completed event
func (p *Producer) PublishDayCompleted(ctx context.Context, event models.IngestionEvent) error {
	event.EventType = models.EventDayCompleted
	return p.publish(ctx, event.Date, event)
}

// PublishDayFailed publishes a day failed event
func (p *Producer) PublishDayFailed(ctx context.Context, event models.IngestionEvent) error {
	event.EventType = models.EventDayFailed
	return p.publish(ctx, event.Date, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.IngestionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
