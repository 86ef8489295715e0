package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	pkgconfig "devlog-ai/pkg/config"
)

// Supported queue transports.
const (
	QueueDriverAMQP  = "amqp"
	QueueDriverRedis = "redis"
)

// BrokerConfig holds configuration for the queue transport used by the worker.
type BrokerConfig struct {
	// Driver selects the transport: amqp or redis. Default: "amqp"
	Driver string

	// ReplyOnFailure publishes a failure reply to reply_to when a message
	// cannot be decoded, validated or generated. Default: true
	ReplyOnFailure bool

	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
}

// RabbitMQConfig holds RabbitMQ connection settings.
type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	// Exchange replies are published on. Empty means the default exchange.
	Exchange  string
	Heartbeat time.Duration
}

// RedisConfig holds Redis Streams settings.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ConsumerGroup string
	// Consumer names this process within the group. Default: the host name.
	Consumer string
	// Block is how long one XREADGROUP call waits for a message. Default: 5s
	Block time.Duration
}

// LoadBrokerConfig loads broker configuration from environment variables.
func LoadBrokerConfig() (*BrokerConfig, error) {
	config := &BrokerConfig{
		Driver:         strings.ToLower(pkgconfig.GetEnvString("QUEUE_DRIVER", QueueDriverAMQP)),
		ReplyOnFailure: pkgconfig.GetEnvBool("QUEUE_REPLY_ON_FAILURE", true),
		RabbitMQ: RabbitMQConfig{
			Host:      pkgconfig.GetEnvString("RABBITMQ_HOST", "localhost"),
			Port:      pkgconfig.GetEnvInt("RABBITMQ_PORT", 5672),
			User:      pkgconfig.GetEnvString("RABBITMQ_USER", "guest"),
			Password:  pkgconfig.GetEnvString("RABBITMQ_PASS", "guest"),
			VHost:     pkgconfig.GetEnvString("RABBITMQ_VHOST", "/"),
			Exchange:  pkgconfig.GetEnvString("RABBITMQ_EXCHANGE", ""),
			Heartbeat: pkgconfig.GetEnvDuration("RABBITMQ_HEARTBEAT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:          pkgconfig.GetEnvString("REDIS_ADDR", "localhost:6379"),
			Password:      pkgconfig.GetEnvString("REDIS_PASSWORD", ""),
			DB:            pkgconfig.GetEnvInt("REDIS_DB", 0),
			ConsumerGroup: pkgconfig.GetEnvString("REDIS_CONSUMER_GROUP", "devlog-ai"),
			Consumer:      pkgconfig.GetEnvString("REDIS_CONSUMER", defaultConsumerName()),
			Block:         pkgconfig.GetEnvDuration("REDIS_BLOCK", 5*time.Second),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid broker configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *BrokerConfig) Validate() error {
	switch c.Driver {
	case QueueDriverAMQP:
		return c.RabbitMQ.Validate()
	case QueueDriverRedis:
		return c.Redis.Validate()
	default:
		return fmt.Errorf("QUEUE_DRIVER must be amqp or redis; got %q", c.Driver)
	}
}

// Validate checks RabbitMQ settings.
func (c RabbitMQConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("RABBITMQ_HOST cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("RABBITMQ_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.User == "" {
		return fmt.Errorf("RABBITMQ_USER cannot be empty")
	}
	if err := pkgconfig.ValidateNonNegativeDuration(c.Heartbeat); err != nil {
		return fmt.Errorf("RABBITMQ_HEARTBEAT: %w", err)
	}
	return nil
}

// URL returns the AMQP connection URL. Credentials and vhost are escaped.
func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strings.TrimPrefix(c.VHost, "/"),
	}
	if c.VHost == "/" || c.VHost == "" {
		u.Path = "/"
		return u.String()
	}
	u.RawPath = "/" + url.PathEscape(strings.TrimPrefix(c.VHost, "/"))
	return u.String()
}

// Validate checks Redis settings.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("REDIS_ADDR cannot be empty")
	}
	if c.DB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	if c.ConsumerGroup == "" {
		return fmt.Errorf("REDIS_CONSUMER_GROUP cannot be empty")
	}
	if c.Consumer == "" {
		return fmt.Errorf("REDIS_CONSUMER cannot be empty")
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Block); err != nil {
		return fmt.Errorf("REDIS_BLOCK: %w", err)
	}
	return nil
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker"
	}
	return host
}
