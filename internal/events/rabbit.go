package events

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitBridge forwards dispatched events to a RabbitMQ topic exchange so
// external consumers (messenger gateways, dashboards) can react to them.
type RabbitBridge struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitBridge connects to RabbitMQ and declares the exchange.
func NewRabbitBridge(url, exchange string, logger *zap.Logger) (*RabbitBridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitBridge{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Attach subscribes the bridge to every event on the dispatcher.
func (b *RabbitBridge) Attach(d Dispatcher) {
	if b == nil {
		return
	}
	d.SubscribeAll(b.forward)
}

func (b *RabbitBridge) forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = b.channel.PublishWithContext(ctx, b.exchange, string(event.Type), false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		b.logger.Warn("amqp publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
	return err
}

// Close terminates the connection.
func (b *RabbitBridge) Close() error {
	if b == nil {
		return nil
	}
	if err := b.channel.Close(); err != nil {
		b.logger.Warn("close amqp channel", zap.Error(err))
	}
	return b.conn.Close()
}
