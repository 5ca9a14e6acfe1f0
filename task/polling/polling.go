// Package polling provides a Task that runs an action at a fixed interval, such as one
// frame of a UI loop per tick.
package polling

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/zircuit-labs/zkr-go-taskbridge/log"
)

const defaultInterval = time.Second

// ErrStop may be returned (or wrapped) by an Action to end the task without an error.
var ErrStop = errors.New("polling: stop requested")

// Action is run on every tick.
type Action interface {
	// Run performs one iteration. It should return quickly; ticks that arrive while it
	// runs are coalesced.
	Run(context.Context) error

	// Cleanup is called once when the task stops.
	Cleanup()
}

// Task runs an Action periodically.
type Task struct {
	name   string
	action Action
	opts   options
}

type options struct {
	interval         time.Duration
	runAtStart       bool
	terminateOnError bool
	clock            clockwork.Clock
	logger           *slog.Logger
}

// Option is an option func for NewTask.
type Option func(options *options)

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(options *options) {
		if d <= 0 {
			return
		}
		options.interval = d
	}
}

// WithRunAtStart runs the action once before the first tick.
func WithRunAtStart() Option {
	return func(options *options) {
		options.runAtStart = true
	}
}

// WithTerminateOnError stops the task when the action fails. By default failures are
// logged and the task keeps going.
func WithTerminateOnError() Option {
	return func(options *options) {
		options.terminateOnError = true
	}
}

// WithClock replaces the real clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// NewTask creates a Task.
func NewTask(name string, action Action, opts ...Option) *Task {
	options := options{
		interval: defaultInterval,
		clock:    clockwork.NewRealClock(),
		logger:   log.NewNilLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Task{
		name:   name,
		action: action,
		opts:   options,
	}
}

// Name implements task.Task.
func (t *Task) Name() string {
	return t.name
}

// Run implements task.Task.
func (t *Task) Run(ctx context.Context) error {
	defer t.action.Cleanup()

	ticker := t.opts.clock.NewTicker(t.opts.interval)
	defer ticker.Stop()

	if t.opts.runAtStart {
		if err := t.execute(ctx); err != nil {
			return stopped(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := t.execute(ctx); err != nil {
				return stopped(err)
			}
		}
	}
}

func stopped(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func (t *Task) execute(ctx context.Context) error {
	err := t.action.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, ErrStop):
		return err
	case t.opts.terminateOnError:
		return err
	default:
		t.opts.logger.Error("polling action failed", slog.String("task", t.name), log.ErrAttr(err))
		return nil
	}
}
