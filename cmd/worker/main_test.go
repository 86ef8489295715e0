package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlog-ai/internal/config"
	workerPkg "devlog-ai/internal/infra/worker"
	"devlog-ai/internal/queue"
	genUC "devlog-ai/internal/usecase/generate"
)

type brokenConsumer struct{ err error }

func (c brokenConsumer) Consume(context.Context, string) (<-chan queue.Delivery, error) {
	return nil, c.err
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, queue.Reply) error { return nil }

type echoBackend struct{}

func (echoBackend) Name() string { return "echo" }

func (echoBackend) Complete(_ context.Context, prompt string) (string, error) { return prompt, nil }

func TestRunDispatcher_ReturnsConsumerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	closed := false
	tr := &transport{
		Consumer:  brokenConsumer{err: errors.New("channel refused")},
		Publisher: discardPublisher{},
		close:     func() error { closed = true; return nil },
	}

	err := func() error {
		defer func() { _ = tr.close() }()
		return runDispatcher(context.Background(), logger, tr,
			genUC.NewService(echoBackend{}),
			&config.BrokerConfig{Driver: config.QueueDriverAMQP, ReplyOnFailure: true},
			&workerPkg.WorkerConfig{ShutdownTimeout: time.Second},
			workerPkg.NewWorkerMetrics(prometheus.NewRegistry()),
			workerPkg.NewHealthServer(":0", logger))
	}()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel refused")
	assert.True(t, closed, "transport must be closed after the dispatcher fails")
}

func TestRunDispatcher_ShutdownReturnsNil(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	consumer := make(chan queue.Delivery)
	tr := &transport{
		Consumer:  chanConsumer(consumer),
		Publisher: discardPublisher{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runDispatcher(ctx, logger, tr,
		genUC.NewService(echoBackend{}),
		&config.BrokerConfig{Driver: config.QueueDriverAMQP},
		&workerPkg.WorkerConfig{ShutdownTimeout: time.Second},
		workerPkg.NewWorkerMetrics(prometheus.NewRegistry()),
		workerPkg.NewHealthServer(":0", logger))

	assert.NoError(t, err)
}

type chanConsumer chan queue.Delivery

func (c chanConsumer) Consume(context.Context, string) (<-chan queue.Delivery, error) {
	return c, nil
}
