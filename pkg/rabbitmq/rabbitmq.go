package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// ErrChannelClosed is returned when the client has no usable channel.
var ErrChannelClosed = errors.New("RabbitMQ channel is not available")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp.Channel is not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL    string
	Queues []string
}

// NewClient connects to RabbitMQ, opens a channel and declares cfg.Queues
// as durable queues.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, queue := range cfg.Queues {
		if err := declare(ch, queue); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	log.WithField("queues", cfg.Queues).Info("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}

// PublishJSON marshals payload and publishes it as a persistent message to
// queue through the default exchange.
func (c *Client) PublishJSON(ctx context.Context, queue string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", queue, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return ErrChannelClosed
	}

	err = c.channel.Publish(
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", queue, err)
	}

	log.WithFields(log.Fields{"queue": queue, "bytes": len(body)}).Debug("message published")
	return nil
}

// Handler processes one delivery. Returning an error requeues it unless
// the error wraps ErrDiscard.
type Handler func(msg amqp.Delivery) error

// ErrDiscard marks a message that can never be processed. It is rejected
// without requeueing.
var ErrDiscard = errors.New("discard message")

// Consume processes messages from queue in a goroutine until ctx is done or
// the channel closes.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return ErrChannelClosed
	}

	if err := declare(ch, queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", queue, err)
	}

	log.WithField("queue", queue).Info("waiting for messages")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.WithField("queue", queue).Warn("consumer channel closed")
					return
				}
				dispatch(queue, msg, handler)
			}
		}
	}()

	return nil
}

// dispatch runs handler and settles msg with its outcome.
func dispatch(queue string, msg amqp.Delivery, handler Handler) {
	entry := log.WithFields(log.Fields{"queue": queue, "delivery_tag": msg.DeliveryTag})

	err := handler(msg)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			entry.WithError(ackErr).Error("failed to ack message")
		}
	case errors.Is(err, ErrDiscard):
		entry.WithError(err).Warn("discarding message")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			entry.WithError(nackErr).Error("failed to nack message")
		}
	default:
		entry.WithError(err).Error("failed to process message, requeueing")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			entry.WithError(nackErr).Error("failed to nack message")
		}
	}
}

// DecodeJSON unmarshals a delivery body into v. Malformed bodies wrap
// ErrDiscard so they are not redelivered forever.
func DecodeJSON(msg amqp.Delivery, v interface{}) error {
	if err := json.Unmarshal(msg.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDiscard, err)
	}
	return nil
}
