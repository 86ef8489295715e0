package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"devlog-ai/internal/domain/entity"
	"devlog-ai/internal/handler/http/respond"
	"devlog-ai/internal/observability/tracing"
)

// ErrDeliveriesClosed is returned by Run when the transport closes its delivery channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Message outcomes recorded per delivery.
const (
	OutcomeReplied     = "replied"
	OutcomeNoReply     = "no_reply"
	OutcomeDecodeError = "decode_error"
	OutcomeInvalid     = "validation_error"
	OutcomeFailed      = "generation_failed"
	OutcomePublishErr  = "publish_error"
	OutcomePanic       = "panic"
)

// Consumer delivers messages from one queue, at most one unacknowledged at a time.
type Consumer interface {
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
}

// Publisher sends replies. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, reply Reply) error
}

// Generator produces a result for a validated request.
type Generator interface {
	Generate(ctx context.Context, req entity.Request) (entity.Result, error)
}

// Recorder receives per-message metrics.
type Recorder interface {
	RecordMessage(queue, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordMessage(string, string, time.Duration) {}

// Dispatcher drains request queues and replies to each message's reply_to.
type Dispatcher struct {
	consumer       Consumer
	publisher      Publisher
	generator      Generator
	recorder       Recorder
	replyOnFailure bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReplyOnFailure controls whether failed messages get a failure reply.
// When false, failed messages are only logged and acknowledged.
func WithReplyOnFailure(enabled bool) Option {
	return func(d *Dispatcher) { d.replyOnFailure = enabled }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// NewDispatcher creates a dispatcher. Failure replies are enabled by default.
func NewDispatcher(consumer Consumer, publisher Publisher, generator Generator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		consumer:       consumer,
		publisher:      publisher,
		generator:      generator,
		recorder:       nopRecorder{},
		replyOnFailure: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunAll runs one independent worker per queue and returns when ctx is done or
// any worker fails.
func (d *Dispatcher) RunAll(ctx context.Context, queues ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range queues {
		g.Go(func() error {
			return d.Run(ctx, q)
		})
	}
	return g.Wait()
}

// Run processes messages from queue one at a time until ctx is done.
// Cancellation is only observed between messages. It returns nil on cancellation.
func (d *Dispatcher) Run(ctx context.Context, queue string) error {
	if _, err := QueueKind(queue); err != nil {
		return err
	}
	deliveries, err := d.consumer.Consume(ctx, queue)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	slog.Info("queue worker started", slog.String("queue", queue))
	for {
		if ctx.Err() != nil {
			slog.Info("queue worker stopped", slog.String("queue", queue))
			return nil
		}
		select {
		case <-ctx.Done():
			slog.Info("queue worker stopped", slog.String("queue", queue))
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s: %w", queue, ErrDeliveriesClosed)
			}
			// A delivered message runs to completion even if shutdown starts meanwhile.
			d.Handle(context.WithoutCancel(ctx), msg)
		}
	}
}

// Handle runs the full pipeline for one delivery and acknowledges it exactly
// once, whatever the outcome. It returns the recorded outcome.
func (d *Dispatcher) Handle(ctx context.Context, msg Delivery) (outcome string) {
	start := time.Now()
	ctx, span := tracing.GetTracer().Start(ctx, "queue.handle")
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Queue),
		attribute.String("messaging.correlation_id", msg.CorrelationID),
	)
	logger := slog.With(
		slog.String("queue", msg.Queue),
		slog.String("correlation_id", msg.CorrelationID),
	)

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanic
			logger.Error("panic while handling message",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			span.SetStatus(codes.Error, "panic")
		}
		// 結果に関わらず必ず1回だけ ack する
		if msg.Ack != nil {
			if err := msg.Ack(); err != nil {
				logger.Error("failed to acknowledge message", slog.Any("error", err))
			}
		}
		span.SetAttributes(attribute.String("messaging.outcome", outcome))
		span.End()
		d.recorder.RecordMessage(msg.Queue, outcome, time.Since(start))
	}()

	env, err := DecodeDelivery(msg)
	if err == nil {
		err = env.Payload.Validate()
	}
	if err != nil {
		outcome = OutcomeDecodeError
		if !IsDecodeError(err) {
			outcome = OutcomeInvalid
		}
		logger.Warn("rejected message", slog.String("outcome", outcome), slog.Any("error", err))
		span.SetStatus(codes.Error, outcome)
		return d.replyFailure(ctx, logger, msg, err, outcome)
	}

	result, err := d.generator.Generate(ctx, env.Payload)
	if err != nil {
		logger.Error("generation failed",
			slog.String("kind", string(env.Kind)),
			slog.Any("error", respond.SanitizeError(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, OutcomeFailed)
		return d.replyFailure(ctx, logger, msg, err, OutcomeFailed)
	}

	body, err := Encode(result)
	if err != nil {
		logger.Error("failed to encode result", slog.Any("error", err))
		return d.replyFailure(ctx, logger, msg, err, OutcomeFailed)
	}

	if msg.ReplyTo == "" {
		logger.Info("message processed without reply_to", slog.Int("reply_bytes", len(body)))
		return OutcomeNoReply
	}
	if err := d.publisher.Publish(ctx, Reply{Destination: msg.ReplyTo, CorrelationID: msg.CorrelationID, Body: body}); err != nil {
		logger.Error("failed to publish reply", slog.String("reply_to", msg.ReplyTo), slog.Any("error", err))
		span.SetStatus(codes.Error, OutcomePublishErr)
		return OutcomePublishErr
	}

	logger.Info("reply published",
		slog.String("reply_to", msg.ReplyTo),
		slog.Duration("duration", time.Since(start)))
	return OutcomeReplied
}

// replyFailure publishes a failure reply when enabled and a reply_to exists.
// It returns outcome unchanged unless publishing fails.
func (d *Dispatcher) replyFailure(ctx context.Context, logger *slog.Logger, msg Delivery, cause error, outcome string) string {
	if !d.replyOnFailure || msg.ReplyTo == "" {
		return outcome
	}
	body, err := EncodeFailure(cause)
	if err != nil {
		logger.Error("failed to encode failure reply", slog.Any("error", err))
		return outcome
	}
	if err := d.publisher.Publish(ctx, Reply{Destination: msg.ReplyTo, CorrelationID: msg.CorrelationID, Body: body}); err != nil {
		logger.Error("failed to publish failure reply", slog.String("reply_to", msg.ReplyTo), slog.Any("error", err))
		return OutcomePublishErr
	}
	return outcome
}
