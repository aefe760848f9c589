package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"miniblog/internal/logger"
	"miniblog/internal/mail"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DefaultMailQueue is the durable queue outbound mail is published to.
const DefaultMailQueue = "mail_queue"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	from    string
	mu      sync.Mutex // guards channel.Publish
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
	From  string
}

// NewClient connects to RabbitMQ, opens a channel and declares the mail queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultMailQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", zap.String("queue", cfg.Queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		from:    cfg.From,
	}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Send queues one email as a persistent JSON message. An error means the
// broker did not accept it.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	payload, err := json.Marshal(mail.Message{
		From:     c.from,
		To:       to,
		Subject:  subject,
		Body:     body,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish mail message: %w", err)
	}

	logger.Debug("queued mail", zap.String("subject", subject))
	return nil
}

// ConsumeMail delivers queued messages to handler in a background goroutine.
// Messages the handler fails on are nacked without requeue so a poison
// message cannot loop forever.
func (c *Client) ConsumeMail(handler func(mail.Message) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handleDelivery(msg, handler); err != nil {
				logger.Error("mail message failed", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
				if nackErr := msg.Nack(false, false); nackErr != nil {
					logger.Error("nack failed", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				logger.Error("ack failed", zap.Error(ackErr))
			}
		}
	}()

	return nil
}

func handleDelivery(msg amqp.Delivery, handler func(mail.Message) error) error {
	m, err := DecodeMessage(msg.Body)
	if err != nil {
		return err
	}
	return handler(m)
}

// DecodeMessage parses a queued mail payload.
func DecodeMessage(body []byte) (mail.Message, error) {
	var m mail.Message
	if err := json.Unmarshal(body, &m); err != nil {
		return mail.Message{}, fmt.Errorf("malformed mail message: %w", err)
	}
	if m.To == "" {
		return mail.Message{}, fmt.Errorf("mail message has no recipient")
	}
	return m, nil
}
