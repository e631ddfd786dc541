package events

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to a kafka topic keyed by principal so one
// principal's events stay ordered within a partition.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafka(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = "gating.events"
	}
	// Writers are safe for concurrent use.
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Principal), Value: b})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }
