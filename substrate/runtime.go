// Package substrate provides the background execution used by bridge handles: a bounded
// pool for blocking computations and a scheduler for jobs that wait on I/O or timers.
//
// A Runtime is shared by every handle of an application. It implements task.Task so it
// can be run by a task.Manager; when its Run context ends it cancels the context passed
// to jobs and waits for them to return.
package substrate

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
)

// Config is the file/env configuration of a Runtime.
type Config struct {
	// BlockingWorkers bounds concurrent blocking computations. Zero picks a default.
	BlockingWorkers int `koanf:"blocking_workers"`
	// DefaultDebounce is suggested to owners creating handles for user input.
	DefaultDebounce time.Duration `koanf:"default_debounce"`
}

// Runtime bundles the blocking pool and the job scheduler.
type Runtime struct {
	ctx       context.Context
	cancel    context.CancelFunc
	pool      *Pool
	scheduler *Scheduler
	clock     clockwork.Clock
	logger    *slog.Logger
	stats     *stats
	debounce  time.Duration
}

type options struct {
	logger          *slog.Logger
	clock           clockwork.Clock
	blockingWorkers int
	defaultDebounce time.Duration
}

// Option is an option func for New.
type Option func(options *options)

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithClock replaces the real clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// WithBlockingWorkers bounds the number of concurrent blocking computations.
// Values less than one are ignored.
func WithBlockingWorkers(n int) Option {
	return func(options *options) {
		if n < 1 {
			return
		}
		options.blockingWorkers = n
	}
}

// WithDefaultDebounce sets the delay reported by DefaultDebounce.
func WithDefaultDebounce(d time.Duration) Option {
	return func(options *options) {
		options.defaultDebounce = d
	}
}

func defaultBlockingWorkers() int {
	return max(64, runtime.GOMAXPROCS(0)*4)
}

// New creates a Runtime ready to accept jobs.
func New(opts ...Option) *Runtime {
	options := options{
		logger:          log.NewNilLogger(),
		clock:           clockwork.NewRealClock(),
		blockingWorkers: defaultBlockingWorkers(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	st := &stats{}
	return &Runtime{
		ctx:       ctx,
		cancel:    cancel,
		pool:      NewPool(options.blockingWorkers),
		scheduler: newScheduler(options.clock, options.logger, st),
		clock:     options.clock,
		logger:    options.logger,
		stats:     st,
		debounce:  options.defaultDebounce,
	}
}

// NewFromConfig creates a Runtime from the settings found at cfgPath.
// Options given explicitly take precedence over the configuration.
func NewFromConfig(cfg *config.Configuration, cfgPath string, opts ...Option) (*Runtime, error) {
	rc := Config{}
	if err := cfg.Unmarshal(cfgPath, &rc); err != nil {
		return nil, err
	}

	base := []Option{
		WithBlockingWorkers(rc.BlockingWorkers),
		WithDefaultDebounce(rc.DefaultDebounce),
	}
	return New(append(base, opts...)...), nil
}

// Spawn starts job on the scheduler with the runtime context. After Shutdown the job
// still runs, with a cancelled context, so it can release what it holds.
func (r *Runtime) Spawn(name string, job Job) {
	r.scheduler.Go(r.ctx, name, job)
}

// Sleep suspends the calling job for d, or until ctx or the runtime ends.
func (r *Runtime) Sleep(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	return r.scheduler.Sleep(ctx, d)
}

// Pool returns the blocking pool, for use with RunBlocking.
func (r *Runtime) Pool() *Pool {
	return r.pool
}

// Clock returns the clock used for all timers of this runtime.
func (r *Runtime) Clock() clockwork.Clock {
	return r.clock
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Context returns the context handed to jobs. It ends when the runtime shuts down.
func (r *Runtime) Context() context.Context {
	return r.ctx
}

// DefaultDebounce returns the configured default debounce delay, which may be zero.
func (r *Runtime) DefaultDebounce() time.Duration {
	return r.debounce
}

// Stats returns a snapshot of the job counters.
func (r *Runtime) Stats() Snapshot {
	snap := r.stats.snapshot()
	snap.BlockingActive = r.pool.Active()
	snap.BlockingSize = r.pool.Size()
	return snap
}

// HealthCheck reports an error once the runtime has shut down.
func (r *Runtime) HealthCheck(context.Context) error {
	return r.ctx.Err()
}

// Name implements task.Task.
func (r *Runtime) Name() string {
	return "task bridge runtime"
}

// Run implements task.Task. It blocks until ctx ends and then shuts the runtime down.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("runtime started", slog.Int("blocking_workers", r.pool.Size()))
	<-ctx.Done()
	return r.Shutdown()
}

// Shutdown cancels the job context and waits for in-flight jobs. Jobs that already
// started their work run to completion; jobs still waiting are abandoned.
func (r *Runtime) Shutdown() error {
	r.cancel()
	err := r.scheduler.Close()
	r.logger.Info("runtime stopped", slog.Any("stats", r.Stats()))
	return err
}
