package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// PromptSetter receives a freshly loaded prompt set.
type PromptSetter interface {
	SetPrompts(p *Prompts)
}

// Reloader re-reads a prompts file on a cron schedule. A file that fails to
// load or parse leaves the current prompts in place.
type Reloader struct {
	path   string
	target PromptSetter
	cron   *cron.Cron
	load   func(path string) (*Prompts, error)
	hook   func(err error)
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*reloaderOptions)

type reloaderOptions struct {
	loc  *time.Location
	hook func(err error)
}

// WithLocation evaluates the schedule in loc instead of the local zone.
func WithLocation(loc *time.Location) ReloaderOption {
	return func(o *reloaderOptions) { o.loc = loc }
}

// WithReloadHook calls fn after every reload attempt with its error, if any.
func WithReloadHook(fn func(err error)) ReloaderOption {
	return func(o *reloaderOptions) { o.hook = fn }
}

// NewReloader schedules reloads of path into target. schedule uses the
// standard five-field cron syntax or a descriptor such as "@every 5m".
func NewReloader(path, schedule string, target PromptSetter, opts ...ReloaderOption) (*Reloader, error) {
	o := reloaderOptions{loc: time.Local, hook: func(error) {}}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Reloader{
		path:   path,
		target: target,
		cron:   cron.New(cron.WithLocation(o.loc)),
		load:   LoadPromptsFile,
		hook:   o.hook,
	}
	if _, err := r.cron.AddFunc(schedule, r.Reload); err != nil {
		return nil, fmt.Errorf("invalid prompts reload schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Reload loads the prompts file once.
func (r *Reloader) Reload() {
	p, err := r.load(r.path)
	r.hook(err)
	if err != nil {
		slog.Error("prompt reload failed, keeping previous prompts",
			slog.String("path", r.path),
			slog.Any("error", err))
		return
	}
	r.target.SetPrompts(p)
	slog.Info("prompts reloaded", slog.String("path", r.path))
}

// Start runs the scheduler until ctx is done.
func (r *Reloader) Start(ctx context.Context) {
	r.cron.Start()
	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()
}
