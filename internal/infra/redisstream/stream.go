// Package redisstream implements the queue transport on Redis Streams.
// Each queue is a stream read through a consumer group; replies are appended
// to the stream named by reply_to.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"devlog-ai/internal/config"
	"devlog-ai/internal/queue"
)

// Stream entry fields.
const (
	FieldBody          = "body"
	FieldCorrelationID = "correlation_id"
	FieldReplyTo       = "reply_to"
)

// Client consumes and publishes queue messages through Redis Streams.
type Client struct {
	rdb      redis.UniversalClient
	group    string
	consumer string
	block    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(rdb, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb redis.UniversalClient, cfg config.RedisConfig) *Client {
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	return &Client{rdb: rdb, group: cfg.ConsumerGroup, consumer: cfg.Consumer, block: block}
}

// DeclareQueues creates each stream and its consumer group if missing.
func (c *Client) DeclareQueues(ctx context.Context, names ...string) error {
	for _, name := range names {
		err := c.rdb.XGroupCreateMkStream(ctx, name, c.group, "$").Err()
		if err != nil && !isBusyGroup(err) {
			return fmt.Errorf("create consumer group on %s: %w", name, err)
		}
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Consume reads one entry at a time from the stream and hands it over. The
// next entry is not read until the previous delivery has been acknowledged.
func (c *Client) Consume(ctx context.Context, name string) (<-chan queue.Delivery, error) {
	if err := c.DeclareQueues(ctx, name); err != nil {
		return nil, err
	}

	out := make(chan queue.Delivery)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    c.group,
				Consumer: c.consumer,
				Streams:  []string{name, ">"},
				Count:    1,
				Block:    c.block,
			}).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				slog.Error("XREADGROUP failed", slog.String("stream", name), slog.Any("error", err))
				if !sleep(ctx, time.Second) {
					return
				}
				continue
			}

			for _, s := range streams {
				for _, msg := range s.Messages {
					acked := make(chan struct{})
					d := toDelivery(name, msg, func() error {
						defer close(acked)
						return c.rdb.XAck(context.WithoutCancel(ctx), name, c.group, msg.ID).Err()
					})
					select {
					case out <- d:
					case <-ctx.Done():
						return
					}
					select {
					case <-acked:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

// toDelivery adapts a stream entry. Missing or non-string fields become empty.
func toDelivery(name string, msg redis.XMessage, ack func() error) queue.Delivery {
	return queue.Delivery{
		Queue:         name,
		CorrelationID: stringField(msg.Values, FieldCorrelationID),
		ReplyTo:       stringField(msg.Values, FieldReplyTo),
		Body:          []byte(stringField(msg.Values, FieldBody)),
		Ack:           ack,
	}
}

func stringField(values map[string]interface{}, key string) string {
	switch v := values[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Publish appends a reply to the reply_to stream.
func (c *Client) Publish(ctx context.Context, reply queue.Reply) error {
	err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: reply.Destination,
		Values: replyValues(reply),
	}).Err()
	if err != nil {
		return fmt.Errorf("publish reply to %s: %w", reply.Destination, err)
	}
	return nil
}

func replyValues(reply queue.Reply) map[string]interface{} {
	return map[string]interface{}{
		FieldCorrelationID: reply.CorrelationID,
		FieldBody:          string(reply.Body),
	}
}

// Healthy pings Redis.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.rdb.Ping(ctx).Err() == nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
