package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/metrics"
	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers      []string
	Topic        string        // default "dm.changes"
	BatchTimeout time.Duration // default 50ms
	WriteTimeout time.Duration // default 10s
}

// messageWriter is the slice of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is a thin wrapper around segmentio/kafka-go Writer. Events
// are keyed by environment so one environment's changes stay ordered.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(c KafkaConfig) *KafkaPublisher {
	if c.Topic == "" {
		c.Topic = "dm.changes"
	}

	bt := c.BatchTimeout
	if bt <= 0 {
		bt = 50 * time.Millisecond
	}

	wt := c.WriteTimeout
	if wt <= 0 {
		wt = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           bt,
		WriteTimeout:           wt,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{w: w, topic: c.Topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Environment.String()),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
			{Key: "id", Value: []byte(ev.ID)},
		},
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		metrics.ChangeEventsTotal.WithLabelValues(string(ev.Type), "failed").Inc()
		return fmt.Errorf("publish %s to %s: %w", ev.Type, p.topic, err)
	}

	metrics.ChangeEventsTotal.WithLabelValues(string(ev.Type), "published").Inc()
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }
