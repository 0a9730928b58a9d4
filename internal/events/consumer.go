package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// FulfillmentEventType represents the type of fulfillment event.
type FulfillmentEventType string

const (
	FulfillmentEventProcessing FulfillmentEventType = "fulfillment.processing"
	FulfillmentEventShipped    FulfillmentEventType = "fulfillment.shipped"
	FulfillmentEventDelivered  FulfillmentEventType = "fulfillment.delivered"
	FulfillmentEventCancelled  FulfillmentEventType = "fulfillment.cancelled"
)

var fulfillmentStatuses = map[FulfillmentEventType]models.OrderStatus{
	FulfillmentEventProcessing: models.OrderStatusProcessing,
	FulfillmentEventShipped:    models.OrderStatusShipped,
	FulfillmentEventDelivered:  models.OrderStatusDelivered,
	FulfillmentEventCancelled:  models.OrderStatusCancelled,
}

// FulfillmentEvent is a lifecycle update emitted by the fulfillment system.
type FulfillmentEvent struct {
	ID        string               `json:"id"`
	Type      FulfillmentEventType `json:"type"`
	OrderID   int64                `json:"order_id"`
	Reason    string               `json:"reason,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// OrderStatusUpdater applies order lifecycle transitions.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer consumes fulfillment events from Kafka.
type KafkaConsumer struct {
	reader   messageReader
	orders   OrderStatusUpdater
	logger   *logging.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKafkaConsumer creates a new Kafka-based event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, orders OrderStatusUpdater) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.FulfillmentTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader: reader,
		orders: orders,
		logger: logging.NewLogger("event-consumer"),
		stopCh: make(chan struct{}),
	}
}

// Start consumes events until ctx is cancelled or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					return nil
				default:
				}
				c.logger.WithField("error", err.Error()).Error("Failed to read message")
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.reader.Close()
	})
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.WithFields(logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}).Debug("Received message")

	var event FulfillmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.WithField("error", err.Error()).Error("Failed to unmarshal event")
		return
	}

	status, ok := fulfillmentStatuses[event.Type]
	if !ok {
		c.logger.WithField("type", event.Type).Debug("Ignoring unknown event type")
		return
	}

	c.logger.WithFields(logging.Fields{
		"event_id": event.ID,
		"order_id": event.OrderID,
		"status":   status,
	}).Info("Handling fulfillment event")

	if _, err := c.orders.UpdateOrderStatus(ctx, event.OrderID, status); err != nil {
		c.logger.WithFields(logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		}).Error("Failed to update order status")
	}
}
