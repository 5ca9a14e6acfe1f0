// Package ossignal provides a Task that returns when the process is asked to stop.
package ossignal

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zircuit-labs/zkr-go-taskbridge/log"
)

// DefaultSignals stop the task unless WithSignals is given.
var DefaultSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// Task waits for a signal or for its context to end.
type Task struct {
	sigCh  chan os.Signal
	logger *slog.Logger
}

type options struct {
	signals []os.Signal
	logger  *slog.Logger
}

// Option is an option func for NewTask.
type Option func(options *options)

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithSignals replaces DefaultSignals.
func WithSignals(signals ...os.Signal) Option {
	return func(options *options) {
		options.signals = signals
	}
}

// NewTask creates a Task and starts listening immediately, so signals that arrive
// before Run are not lost.
func NewTask(opts ...Option) *Task {
	options := options{
		signals: DefaultSignals,
		logger:  log.NewNilLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	t := &Task{
		sigCh:  make(chan os.Signal, 1),
		logger: options.logger,
	}
	signal.Notify(t.sigCh, options.signals...)
	return t
}

// Name implements task.Task.
func (t *Task) Name() string {
	return "os signal task"
}

// Run implements task.Task. It returns nil in both cases so the manager stops cleanly.
func (t *Task) Run(ctx context.Context) error {
	defer signal.Stop(t.sigCh)

	select {
	case sig := <-t.sigCh:
		t.logger.Warn("os signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}
	return nil
}
