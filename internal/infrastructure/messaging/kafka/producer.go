package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/99minutos/storefront/internal/core/domain"
)

const (
	defaultTopic = "product_events"
	batchTimeout = 50 * time.Millisecond
)

// Config captures the broker list and destination topic.
type Config struct {
	Brokers []string
	Topic   string
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProductEventSink publishes product events to Kafka. Messages are keyed by
// product id, so every event of one product lands on the same partition.
type ProductEventSink struct {
	writer messageWriter
}

func NewProductEventSink(cfg Config) (*ProductEventSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}
	return &ProductEventSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (s *ProductEventSink) Write(ctx context.Context, event domain.ProductEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ProductID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (s *ProductEventSink) Close() error {
	return s.writer.Close()
}
