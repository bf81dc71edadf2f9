package infra

import (
	"context"
	"encoding/json"
	"time"

	"chicpos/internal/model"
	"chicpos/internal/service"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter is the subset of kafka.Writer the publisher needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes committed ledger events, keyed by event id, in the
// same envelope the HTTP API returns.
type KafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher builds an async writer: WriteMessages returns
// immediately and delivery errors are only logged by the writer.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}}
}

func NewKafkaPublisherWithWriter(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev model.LedgerEvent) error {
	b, err := json.Marshal(service.EventToResponse(ev))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(ev.Header().ID.String()),
		Value:   b,
		Headers: []kafka.Header{{Key: "kind", Value: []byte(ev.Kind())}},
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

var _ service.EventPublisher = (*KafkaPublisher)(nil)
