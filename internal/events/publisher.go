package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated  = "order.created"
	TypeOrderPaid     = "order.paid"
	TypeOrdersExpired = "orders.expired"
)

// Event is one order-lifecycle notification.
type Event struct {
	Type    string    `json:"type"`
	OrderID string    `json:"order_id,omitempty"`
	Amount  int64     `json:"amount,omitempty"`
	Count   int64     `json:"count,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher emits order-lifecycle events to Kafka. Publishing is
// best-effort: a broker outage must never fail the request that triggered
// the event. A nil *Publisher is a no-op, so wiring stays optional.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal event %s: %v", event.Type, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("failed to publish event %s for order %s: %v", event.Type, event.OrderID, err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
