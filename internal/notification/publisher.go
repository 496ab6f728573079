// Package notification emits order lifecycle events to downstream
// fulfilment collaborators. Delivery is best-effort and never part of the
// order transaction: a failed publish is logged and dropped.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Event types carried on the order topic.
const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
)

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	Type        string          `json:"type"`
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      string          `json:"userId"`
	Total       decimal.Decimal `json:"total"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// Publisher emits order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent)
	Close() error
}

// kafkaPublisher implements Publisher on a kafka writer.
type kafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a Kafka-backed order event publisher.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &kafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "order-publisher").Logger(),
	}
}

// Publish writes the event keyed by order ID. Errors are logged, not
// returned: notifications are a side channel, not part of the order
// guarantee.
func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("failed to marshal order event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("type", event.Type).
			Str("order_id", event.OrderID).
			Msg("failed to publish order event")
		return
	}

	p.logger.Debug().
		Str("type", event.Type).
		Str("order_id", event.OrderID).
		Msg("order event published")
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// noopPublisher drops all events. Used when no brokers are configured.
type noopPublisher struct{}

// NewNoopPublisher creates a publisher that discards events.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event OrderEvent) {}

func (noopPublisher) Close() error { return nil }
