package amqp

import (
	"context"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlog-ai/internal/config"
	"devlog-ai/internal/queue"
)

// fakeAcknowledger records acks for one delivery tag.
type fakeAcknowledger struct {
	acked    []uint64
	multiple bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	f.multiple = multiple
	return nil
}

func (f *fakeAcknowledger) Nack(uint64, bool, bool) error { return nil }
func (f *fakeAcknowledger) Reject(uint64, bool) error     { return nil }

func TestToDelivery(t *testing.T) {
	ack := &fakeAcknowledger{}
	d := amqp.Delivery{
		Acknowledger:  ack,
		DeliveryTag:   7,
		CorrelationId: "corr-7",
		ReplyTo:       "amq.gen-reply",
		Body:          []byte(`{"data":[]}`),
	}

	got := toDelivery(queue.TitleQueue, d)

	assert.Equal(t, queue.TitleQueue, got.Queue)
	assert.Equal(t, "corr-7", got.CorrelationID)
	assert.Equal(t, "amq.gen-reply", got.ReplyTo)
	assert.Equal(t, []byte(`{"data":[]}`), got.Body)
	require.NoError(t, got.Ack())
	assert.Equal(t, []uint64{7}, ack.acked)
	assert.False(t, ack.multiple)
}

func TestPublishing(t *testing.T) {
	p := publishing(queue.Reply{Destination: "responseQueue", CorrelationID: "c", Body: []byte(`{"retrospective":"회고"}`)})

	assert.Equal(t, "application/json", p.ContentType)
	assert.Equal(t, amqp.Persistent, p.DeliveryMode)
	assert.Equal(t, "c", p.CorrelationId)
	assert.Equal(t, `{"retrospective":"회고"}`, string(p.Body))
}

func TestBroker_NotConnected(t *testing.T) {
	b := New(config.RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest"})

	assert.ErrorIs(t, b.Publish(context.Background(), queue.Reply{}), ErrNotConnected)
	assert.ErrorIs(t, b.DeclareQueues(queue.TitleQueue), ErrNotConnected)
	_, err := b.Consume(context.Background(), queue.TitleQueue)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, b.Healthy())
	assert.NoError(t, b.Close())
}

// TestBroker_RoundTrip needs a running RabbitMQ; set AMQP_TEST_HOST to enable it.
func TestBroker_RoundTrip(t *testing.T) {
	host := os.Getenv("AMQP_TEST_HOST")
	if host == "" {
		t.Skip("AMQP_TEST_HOST not set")
	}

	b := New(config.RabbitMQConfig{Host: host, Port: 5672, User: "guest", Password: "guest", VHost: "/", Heartbeat: 10 * time.Second})
	require.NoError(t, b.Connect())
	defer func() { _ = b.Close() }()
	require.NoError(t, b.DeclareQueues(queue.AllQueues()...))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deliveries, err := b.Consume(ctx, queue.ResponseQueue)
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, queue.Reply{Destination: queue.ResponseQueue, CorrelationID: "rt-1", Body: []byte(`{"ok":true}`)}))

	select {
	case d := <-deliveries:
		assert.Equal(t, "rt-1", d.CorrelationID)
		assert.NoError(t, d.Ack())
	case <-ctx.Done():
		t.Fatal("reply not received")
	}
}

// TestBroker_AckAfterConsumerStops needs a running RabbitMQ; set AMQP_TEST_HOST to enable it.
func TestBroker_AckAfterConsumerStops(t *testing.T) {
	host := os.Getenv("AMQP_TEST_HOST")
	if host == "" {
		t.Skip("AMQP_TEST_HOST not set")
	}

	b := New(config.RabbitMQConfig{Host: host, Port: 5672, User: "guest", Password: "guest", VHost: "/", Heartbeat: 10 * time.Second})
	require.NoError(t, b.Connect())
	defer func() { _ = b.Close() }()
	require.NoError(t, b.DeclareQueues(queue.AllQueues()...))

	consumeCtx, stop := context.WithCancel(context.Background())
	deliveries, err := b.Consume(consumeCtx, queue.ResponseQueue)
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), queue.Reply{Destination: queue.ResponseQueue, CorrelationID: "late-ack", Body: []byte(`{}`)}))

	var d queue.Delivery
	select {
	case d = <-deliveries:
	case <-time.After(10 * time.Second):
		t.Fatal("reply not received")
	}

	stop()
	for range deliveries {
	}
	assert.NoError(t, d.Ack(), "delivery must stay ackable until the broker is closed")
}
