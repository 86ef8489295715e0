// Package amqp implements the queue transport on RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"devlog-ai/internal/config"
	"devlog-ai/internal/queue"
)

// ErrNotConnected is returned when the broker is used before Connect or after Close.
var ErrNotConnected = errors.New("amqp: not connected")

// Broker owns the process-wide RabbitMQ connection. Each consumed queue gets
// its own channel; every publish goes through a single mutex-guarded channel.
type Broker struct {
	cfg config.RabbitMQConfig

	mu      sync.Mutex
	conn    *amqp.Connection
	pubMu   sync.Mutex
	pubChan *amqp.Channel

	// consumer channels stay open until Close so in-flight deliveries can still be acked
	consumers []*amqp.Channel
}

// New creates an unconnected broker.
func New(cfg config.RabbitMQConfig) *Broker {
	return &Broker{cfg: cfg}
}

// Connect dials RabbitMQ and opens the publisher channel.
func (b *Broker) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil && !b.conn.IsClosed() {
		return nil
	}

	conn, err := amqp.DialConfig(b.cfg.URL(), amqp.Config{
		Heartbeat: b.cfg.Heartbeat,
		Vhost:     b.cfg.VHost,
		Properties: amqp.Table{
			"connection_name": "devlog-ai-worker",
		},
	})
	if err != nil {
		return fmt.Errorf("amqp dial %s:%d: %w", b.cfg.Host, b.cfg.Port, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp open publisher channel: %w", err)
	}

	b.conn = conn
	b.pubMu.Lock()
	b.pubChan = ch
	b.pubMu.Unlock()

	slog.Info("connected to RabbitMQ",
		slog.String("host", b.cfg.Host),
		slog.Int("port", b.cfg.Port),
		slog.String("vhost", b.cfg.VHost))
	return nil
}

// DeclareQueues declares durable queues. Declaring an existing queue with the
// same arguments is a no-op on the broker.
func (b *Broker) DeclareQueues(names ...string) error {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pubChan == nil {
		return ErrNotConnected
	}
	for _, name := range names {
		if _, err := b.pubChan.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	return nil
}

// Consume starts a consumer on queue with prefetch 1 and manual acks.
// The returned channel closes when ctx is done or the broker channel closes.
// The underlying AMQP channel is closed by Close, not by ctx.
func (b *Broker) Consume(ctx context.Context, name string) (<-chan queue.Delivery, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel for %s: %w", name, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos on %s: %w", name, err)
	}
	src, err := ch.ConsumeWithContext(ctx, name, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", name, err)
	}

	b.mu.Lock()
	b.consumers = append(b.consumers, ch)
	b.mu.Unlock()

	out := make(chan queue.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- toDelivery(name, d):
				case <-ctx.Done():
					// Not handed to a worker; let the broker redeliver it.
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

// toDelivery adapts an AMQP delivery. Ack acknowledges only this message.
func toDelivery(name string, d amqp.Delivery) queue.Delivery {
	return queue.Delivery{
		Queue:         name,
		CorrelationID: d.CorrelationId,
		ReplyTo:       d.ReplyTo,
		Body:          d.Body,
		Ack: func() error {
			return d.Ack(false)
		},
	}
}

// Publish sends a reply on the configured exchange with routing key = reply.Destination.
func (b *Broker) Publish(ctx context.Context, reply queue.Reply) error {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pubChan == nil {
		return ErrNotConnected
	}
	if err := b.pubChan.PublishWithContext(ctx, b.cfg.Exchange, reply.Destination, false, false, publishing(reply)); err != nil {
		return fmt.Errorf("publish reply to %s: %w", reply.Destination, err)
	}
	return nil
}

func publishing(reply queue.Reply) amqp.Publishing {
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: reply.CorrelationID,
		Body:          reply.Body,
	}
}

// Healthy reports whether the connection is open.
func (b *Broker) Healthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && !b.conn.IsClosed()
}

// Close closes the consumer channels, the publisher channel and the connection.
// Call it after the dispatcher has returned.
func (b *Broker) Close() error {
	b.mu.Lock()
	consumers := b.consumers
	b.consumers = nil
	b.mu.Unlock()
	for _, ch := range consumers {
		_ = ch.Close()
	}

	b.pubMu.Lock()
	if b.pubChan != nil {
		_ = b.pubChan.Close()
		b.pubChan = nil
	}
	b.pubMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close amqp connection: %w", err)
	}
	slog.Info("RabbitMQ connection closed")
	return nil
}
