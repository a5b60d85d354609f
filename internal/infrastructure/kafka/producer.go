package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/bizpanel/internal/domain/event"
	"github.com/segmentio/kafka-go"
)

// HeaderEventType carries the envelope's event type so consumers can filter
// without decoding the payload.
const HeaderEventType = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events to a single topic.
type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return &Producer{writer: writer, topic: topic}
}

func (p *Producer) Topic() string { return p.topic }

// Publish writes event under key. Messages with the same key land on the
// same partition, so one sale's events stay ordered.
func (p *Producer) Publish(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if env, ok := payload.(event.Envelope); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderEventType, Value: []byte(env.EventType)})
		msg.Time = env.Timestamp
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
