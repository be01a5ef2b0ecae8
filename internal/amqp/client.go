package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	exchangeName   string
	reloadQueue    string
	refreshedQueue string
}

func NewClient(url, exchangeName, reloadQueue, refreshedQueue string) (*Client, error) {
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
		conn:           conn,
		channel:        channel,
		exchangeName:   exchangeName,
		reloadQueue:    reloadQueue,
		refreshedQueue: refreshedQueue,
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

	for _, queue := range []string{c.reloadQueue, c.refreshedQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// routing key matches the queue name on a direct exchange
		err = c.channel.QueueBind(queue, queue, c.exchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
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

// PublishReloadRequest asks the worker to refetch all tabs.
func (c *Client) PublishReloadRequest(ctx context.Context, reason string) error {
	body, err := NewReloadRequestMessage(reason).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.reloadQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published reload request",
		"reason", reason,
		"exchange", c.exchangeName,
		"queue", c.reloadQueue)
	return nil
}

// PublishDataRefreshed announces that a new snapshot generation exists.
func (c *Client) PublishDataRefreshed(ctx context.Context, generation uint64, tabs []string) error {
	body, err := NewDataRefreshedMessage(generation, tabs).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.refreshedQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published data refreshed event",
		"generation", generation,
		"tabs", len(tabs),
		"exchange", c.exchangeName,
		"queue", c.refreshedQueue)
	return nil
}

func (c *Client) consume(ctx context.Context, queue string, handle func(body []byte) error) error {
	msgs, err := c.channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := handle(delivery.Body); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message", "error", err, "queue", queue)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

// ConsumeReloadRequests blocks and invokes handler for every reload
// request until ctx is cancelled. Malformed messages are dropped.
func (c *Client) ConsumeReloadRequests(ctx context.Context, handler func(*ReloadRequestMessage) error) error {
	return c.consume(ctx, c.reloadQueue, func(body []byte) error {
		msg, err := ReloadRequestMessageFromJSON(body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal reload request", "error", err)
			return nil // drop, do not requeue garbage
		}
		slog.InfoContext(ctx, "Processing reload request", "reason", msg.Reason)
		return handler(msg)
	})
}

// ConsumeDataRefreshed blocks and invokes handler for every refresh
// announcement until ctx is cancelled.
func (c *Client) ConsumeDataRefreshed(ctx context.Context, handler func(*DataRefreshedMessage) error) error {
	return c.consume(ctx, c.refreshedQueue, func(body []byte) error {
		msg, err := DataRefreshedMessageFromJSON(body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal refresh event", "error", err)
			return nil
		}
		slog.InfoContext(ctx, "Processing data refreshed event", "generation", msg.Generation)
		return handler(msg)
	})
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
