// Package generate turns dev-log requests into prompts, sends them to a text
// generation backend under the retry executor, and shapes the replies into results.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"devlog-ai/internal/domain/entity"
	"devlog-ai/internal/observability/metrics"
	"devlog-ai/internal/observability/tracing"
	"devlog-ai/internal/resilience/retry"
	"devlog-ai/internal/utils/text"
)

// DefaultLanguage is the output language used when none is configured.
const DefaultLanguage = "한국어"

// Completer is the backend port. llm.Guarded satisfies it.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service generates titles, retrospectives and experiences.
// It is safe for concurrent use; prompts can be swapped while requests are in flight.
type Service struct {
	backend  Completer
	retry    retry.Config
	language string
	prompts  atomic.Pointer[Prompts]
}

// Option configures a Service.
type Option func(*Service)

// WithRetry overrides the retry configuration.
func WithRetry(cfg retry.Config) Option {
	return func(s *Service) { s.retry = cfg }
}

// WithLanguage sets the output language passed to every prompt.
func WithLanguage(language string) Option {
	return func(s *Service) {
		if language != "" {
			s.language = language
		}
	}
}

// WithPrompts replaces the embedded prompt set.
func WithPrompts(p *Prompts) Option {
	return func(s *Service) {
		if p != nil {
			s.prompts.Store(p)
		}
	}
}

// NewService creates a generation service backed by backend.
func NewService(backend Completer, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		retry:    retry.DefaultConfig(),
		language: DefaultLanguage,
	}
	s.prompts.Store(DefaultPrompts())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPrompts atomically replaces the prompt set used by subsequent requests.
func (s *Service) SetPrompts(p *Prompts) {
	if p != nil {
		s.prompts.Store(p)
	}
}

// Generate dispatches req to the matching generation pathway.
// Requests are expected to be validated by the caller.
func (s *Service) Generate(ctx context.Context, req entity.Request) (entity.Result, error) {
	switch r := req.(type) {
	case entity.TitleRequest:
		return s.GenerateTitle(ctx, r)
	case entity.RetrospectiveRequest:
		return s.GenerateRetrospective(ctx, r)
	case entity.ExperienceRequest:
		return s.GenerateExperience(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %T", entity.ErrUnknownKind, req)
	}
}

// GenerateTitle produces a title of at most entity.MaxTitleRunes characters.
func (s *Service) GenerateTitle(ctx context.Context, req entity.TitleRequest) (res entity.TitleResult, err error) {
	defer observe(entity.KindTitle, time.Now(), &err)

	prompt, err := s.prompts.Load().Title(s.language, req)
	if err != nil {
		return entity.TitleResult{}, err
	}

	reply, err := s.complete(ctx, entity.KindTitle, prompt)
	if err != nil {
		return entity.TitleResult{}, err
	}
	title := entity.ClipTitle(reply)
	metrics.RecordTitleLength(text.CountRunes(title))
	return entity.TitleResult{Title: title}, nil
}

// GenerateRetrospective produces a retrospective over the supplied daily logs.
func (s *Service) GenerateRetrospective(ctx context.Context, req entity.RetrospectiveRequest) (res entity.RetrospectiveResult, err error) {
	defer observe(entity.KindRetrospective, time.Now(), &err)

	prompt, err := s.prompts.Load().Retrospective(s.language, req)
	if err != nil {
		return entity.RetrospectiveResult{}, err
	}

	reply, err := s.complete(ctx, entity.KindRetrospective, prompt)
	if err != nil {
		return entity.RetrospectiveResult{}, err
	}
	return entity.RetrospectiveResult{Retrospective: reply}, nil
}

// GenerateExperience extracts up to entity.MaxExperiences experiences labelled
// only with the request's keywords. A reply that cannot be parsed counts as a
// fatal backend failure and is not retried.
func (s *Service) GenerateExperience(ctx context.Context, req entity.ExperienceRequest) (res entity.ExperienceResult, err error) {
	defer observe(entity.KindExperience, time.Now(), &err)

	prompt, err := s.prompts.Load().Experience(s.language, req)
	if err != nil {
		return entity.ExperienceResult{}, err
	}

	items, err := retry.Do(ctx, s.retryConfig(entity.KindExperience), func(ctx context.Context) ([]entity.Experience, error) {
		reply, err := s.call(ctx, entity.KindExperience, prompt)
		if err != nil {
			return nil, err
		}
		items, err := parseExperiences(reply, req.Keywords)
		if err != nil {
			return nil, retry.Fatal(fmt.Errorf("unparseable experience reply: %w", err))
		}
		return items, nil
	})
	if err != nil {
		return entity.ExperienceResult{}, err
	}
	metrics.RecordExperiencesExtracted(len(items))
	return entity.ExperienceResult{Experiences: items}, nil
}

func observe(kind entity.Kind, start time.Time, err *error) {
	metrics.RecordGeneration(string(kind), time.Since(start), *err)
}

func (s *Service) complete(ctx context.Context, kind entity.Kind, prompt string) (string, error) {
	return retry.Do(ctx, s.retryConfig(kind), func(ctx context.Context) (string, error) {
		return s.call(ctx, kind, prompt)
	})
}

func (s *Service) retryConfig(kind entity.Kind) retry.Config {
	cfg := s.retry
	cfg.Operation = "generate_" + string(kind)
	return cfg
}

// call performs a single traced backend call.
func (s *Service) call(ctx context.Context, kind entity.Kind, prompt string) (string, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "generate."+string(kind))
	defer span.End()
	span.SetAttributes(
		attribute.String("generation.kind", string(kind)),
		attribute.String("generation.backend", s.backend.Name()),
		attribute.Int("generation.prompt_chars", text.CountRunes(prompt)),
	)

	start := time.Now()
	reply, err := s.backend.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "generation call failed",
			slog.String("kind", string(kind)),
			slog.String("backend", s.backend.Name()),
			slog.String("error_kind", retry.KindOf(err).String()),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return "", err
	}

	slog.InfoContext(ctx, "generation call completed",
		slog.String("kind", string(kind)),
		slog.String("backend", s.backend.Name()),
		slog.Int("output_chars", text.CountRunes(reply)),
		slog.Duration("duration", time.Since(start)))
	return reply, nil
}
