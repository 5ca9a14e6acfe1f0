package task

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm"
	"github.com/zircuit-labs/zkr-go-taskbridge/calm/errgroup"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// Manager runs a group of tasks. When a critical task returns, or any task fails,
// the shared context is cancelled so the others stop too.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	logger  *slog.Logger
	cleanup []func()

	mu      sync.Mutex
	running map[string]int
}

type options struct {
	logger *slog.Logger
}

// Option is an option func for NewManager.
type Option func(options *options)

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	options := options{
		logger: log.NewNilLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:     ctx,
		cancel:  cancel,
		group:   errgroup.New(),
		logger:  options.logger,
		running: map[string]int{},
	}
}

// Run starts tasks whose end, for any reason, stops the whole group.
func (tm *Manager) Run(tasks ...Task) {
	for _, t := range tasks {
		tm.start(t, true)
	}
}

// RunTerminable starts tasks that may finish without error while the others keep running.
// A failing task still stops the group.
func (tm *Manager) RunTerminable(tasks ...Task) {
	for _, t := range tasks {
		tm.start(t, false)
	}
}

// Cleanup registers f to run once every task has stopped. Functions run in reverse order
// of registration.
func (tm *Manager) Cleanup(f func()) {
	tm.cleanup = append(tm.cleanup, f)
}

// Wait blocks until every task has returned, runs the cleanup functions and returns the
// first error.
func (tm *Manager) Wait() error {
	err := tm.group.Wait()
	for _, f := range slices.Backward(tm.cleanup) {
		f()
	}
	return err
}

// Stop cancels the shared context and waits.
func (tm *Manager) Stop() error {
	tm.cancel()
	return tm.Wait()
}

// Context returns the context passed to every task.
func (tm *Manager) Context() context.Context {
	return tm.ctx
}

// Running returns the sorted names of the tasks that have not returned yet.
func (tm *Manager) Running() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	names := make([]string, 0, len(tm.running))
	for name, n := range tm.running {
		for range n {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// HealthCheck fails once the group is stopping.
func (tm *Manager) HealthCheck(context.Context) error {
	if err := tm.ctx.Err(); err != nil {
		return stacktrace.Wrap(err)
	}
	return nil
}

func (tm *Manager) track(name string, delta int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.running[name] += delta
	if tm.running[name] <= 0 {
		delete(tm.running, name)
	}
}

func (tm *Manager) start(t Task, critical bool) {
	name := t.Name()
	tm.track(name, 1)

	tm.group.Go(func() error {
		defer tm.track(name, -1)

		tm.logger.Info("task starting", slog.String("task", name))
		err := calm.Unpanic(func() error {
			return t.Run(tm.ctx)
		})
		if err != nil {
			tm.logger.Error("task failed", slog.String("task", name), log.ErrAttr(err))
			tm.cancel()
			return err
		}

		tm.logger.Info("task stopped", slog.String("task", name))
		if critical {
			tm.cancel()
		}
		return nil
	})
}
