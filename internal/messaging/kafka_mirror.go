package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// MessageWriter is the subset of *kafka.Writer the mirror uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMirror copies published envelopes onto a Kafka topic.
type KafkaMirror struct {
	writer MessageWriter
}

// NewKafkaMirror builds a mirror writing to topic on brokers.
func NewKafkaMirror(brokers []string, topic string) *KafkaMirror {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
		Async:        true,
	}
	return &KafkaMirror{writer: writer}
}

// NewKafkaMirrorWithWriter wraps an existing writer.
func NewKafkaMirrorWithWriter(w MessageWriter) *KafkaMirror {
	return &KafkaMirror{writer: w}
}

// Mirror writes env keyed by its type.
func (m *KafkaMirror) Mirror(ctx context.Context, env models.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(env.Type),
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(env.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write envelope to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (m *KafkaMirror) Close() error {
	return m.writer.Close()
}
