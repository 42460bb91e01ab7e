package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"product-catalog/internal/catalog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "notifications-service"

// Consumer drains the catalog event queue. Every event is logged; events
// whose stock is at or below the alert threshold are logged as warnings so
// replenishment can be triggered off the log stream.
type Consumer struct {
	channel        *amqp.Channel
	queue          string
	alertThreshold int
	logger         *slog.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, alertThreshold int, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &Consumer{
		channel:        ch,
		queue:          queue,
		alertThreshold: alertThreshold,
		logger:         logger,
	}, nil
}

func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %q: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := c.handleMessage(&msg); err != nil {
				c.logger.Error("handle message failed", "error", err)
				_ = msg.Nack(false, true)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(msg *amqp.Delivery) error {
	var event catalog.ProductEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	attrs := []any{
		"event_type", event.EventType,
		"product_id", event.ProductID,
		"name", event.Name,
		"stock", event.Stock,
		"timestamp", event.Timestamp,
	}

	if event.EventType != catalog.EventDeleted && event.Stock <= c.alertThreshold {
		c.logger.Warn("low stock alert", attrs...)
		return nil
	}

	c.logger.Info("catalog event", attrs...)
	return nil
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
