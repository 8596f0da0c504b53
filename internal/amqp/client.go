// Package amqp publishes billing events to RabbitMQ. The exchange and both
// queues are declared on connect, so consumers can bind before any producer
// has run.
package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// EventPublisher is the surface the service layer depends on; tests swap in
// a mock and a nil publisher disables events entirely.
type EventPublisher interface {
	PublishPaymentRecorded(ctx context.Context, msg *PaymentRecordedMessage) error
	PublishRenewalReminder(ctx context.Context, msg *RenewalReminderMessage) error
	Close() error
}

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

var _ EventPublisher = (*Client)(nil)

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queueName := range []string{RoutingKeyPaymentRecorded, RoutingKeyRenewalReminder} {
		_, err = c.channel.QueueDeclare(
			queueName, // name
			true,      // durable
			false,     // delete when unused
			false,     // exclusive
			false,     // no-wait
			nil,       // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queueName, err)
		}

		err = c.channel.QueueBind(
			queueName,      // queue name
			queueName,      // routing key (same as queue name for direct exchange)
			c.exchangeName, // exchange
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queueName, err)
		}
	}

	return nil
}

// PublishPaymentRecorded publishes a payment-recorded event
func (c *Client) PublishPaymentRecorded(ctx context.Context, msg *PaymentRecordedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return c.publish(ctx, RoutingKeyPaymentRecorded, body)
}

// PublishRenewalReminder publishes a renewal-reminder event
func (c *Client) PublishRenewalReminder(ctx context.Context, msg *RenewalReminderMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return c.publish(ctx, RoutingKeyRenewalReminder, body)
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
