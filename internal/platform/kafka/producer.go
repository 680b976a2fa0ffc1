package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Envelope wraps every domain event written to Kafka.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

// Producer publishes domain events. Writes are asynchronous; delivery errors
// are logged by the completion callback.
type Producer struct {
	w       *kafkago.Writer
	service string
	now     func() time.Time
}

// NewProducer builds a producer for the given brokers. Topics are chosen per message.
func NewProducer(brokers []string, service string, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			Async:        true,
			Completion: func(messages []kafkago.Message, err error) {
				if err != nil {
					logger.Warn("kafka delivery", slog.Int("messages", len(messages)), slog.Any("error", err))
				}
			},
		},
		service: service,
		now:     time.Now,
	}
}

// NewEnvelope marshals payload into an Envelope.
func NewEnvelope(service, eventType string, at time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("platform/kafka: marshal payload: %w", err)
	}
	return Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   at.UTC(),
		Producer:     service,
		Payload:      raw,
	}, nil
}

// Publish writes one event keyed by key to topic.
func (p *Producer) Publish(ctx context.Context, topic, key, eventType string, payload any) error {
	if p == nil || p.w == nil {
		return nil
	}
	if topic == "" {
		return errors.New("platform/kafka: topic required")
	}
	env, err := NewEnvelope(p.service, eventType, p.now(), payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("platform/kafka: marshal envelope: %w", err)
	}
	return p.w.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	})
}

// Close flushes pending messages.
func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
