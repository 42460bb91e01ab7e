package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"product-catalog/internal/catalog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// RabbitPublisher sends product events to a durable queue. Messages are
// published persistent so catalog events survive a broker restart.
type RabbitPublisher struct {
	channel *amqp.Channel
	queue   string
}

func NewRabbitPublisher(conn *amqp.Connection, queue string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &RabbitPublisher{channel: ch, queue: queue}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event catalog.ProductEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.channel.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Body:         payload,
		},
	); err != nil {
		return fmt.Errorf("publish to %q: %w", p.queue, err)
	}

	return nil
}

func (p *RabbitPublisher) Close() error {
	return p.channel.Close()
}
