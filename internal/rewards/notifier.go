package rewards

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKeyRequested is the topic a new point request is published under.
const RoutingKeyRequested = "points.requested"

// Notifier hands a point request over to the points module.
type Notifier interface {
	Notify(ctx context.Context, pr PointRequest) error
}

// AMQPNotifier publishes point requests to a durable topic exchange.
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPNotifier(amqpURL, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange %q: %w", exchange, err)
	}
	return &AMQPNotifier{conn: conn, channel: ch, exchange: exchange}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, pr PointRequest) error {
	body, err := json.Marshal(event{Type: RoutingKeyRequested, Payload: pr})
	if err != nil {
		return err
	}
	return n.channel.PublishWithContext(ctx,
		n.exchange,
		RoutingKeyRequested,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("point-request-%d", pr.ID),
			Body:         body,
		},
	)
}

func (n *AMQPNotifier) Close() {
	if n.channel != nil {
		_ = n.channel.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}

type event struct {
	Type    string       `json:"type"`
	Payload PointRequest `json:"payload"`
}
