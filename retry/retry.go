// Package retry calls a function until it succeeds, fails with an error that is not
// worth retrying, or runs out of attempts.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// Cause tells why a retry loop stopped.
type Cause int

const (
	Success Cause = iota
	MaxAttemptsReached
	PersistentErrorEncountered
	ContextDone
)

func (c Cause) String() string {
	switch c {
	case Success:
		return "success"
	case MaxAttemptsReached:
		return "max attempts reached"
	case PersistentErrorEncountered:
		return "persistent error"
	case ContextDone:
		return "context done"
	default:
		return "unknown"
	}
}

// Stats is attached to every error returned by a Retrier. Use xerrors.Extract to read it.
type Stats struct {
	Attempts int
	Duration time.Duration
	Cause    Cause
}

type options struct {
	backoff        BackoffFactory
	maxAttempts    int
	treatUnknownAs errclass.Class
	clock          clockwork.Clock
	logger         *slog.Logger
}

type Option func(options *options)

// WithBackoff sets the delay policy between attempts.
func WithBackoff(backoff BackoffFactory) Option {
	return func(options *options) {
		options.backoff = backoff
	}
}

// WithMaxAttempts limits the number of calls. Zero means no limit.
func WithMaxAttempts(n int) Option {
	return func(options *options) {
		options.maxAttempts = n
	}
}

// WithClock replaces the real clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// WithUnknownErrorsAs decides whether unclassified errors are retried (errclass.Transient,
// the default) or not (errclass.Persistent).
func WithUnknownErrorsAs(class errclass.Class) Option {
	return func(options *options) {
		options.treatUnknownAs = class
	}
}

// WithLogger sets the logger used to report failed attempts.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// Retrier holds a retry policy. It is safe for concurrent use.
type Retrier struct {
	opts options
}

// NewRetrier creates a Retrier. The default policy is unlimited attempts with
// exponential backoff from 1s to 1m.
func NewRetrier(opts ...Option) *Retrier {
	options := options{
		backoff: func() Backoff {
			return &exponential{initial: time.Second, limit: time.Minute, factor: 2, jitter: FullJitter}
		},
		clock:          clockwork.NewRealClock(),
		treatUnknownAs: errclass.Transient,
		logger:         log.NewNilLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Retrier{opts: options}
}

// Try calls f until it returns nil or the loop has to stop.
func (r *Retrier) Try(ctx context.Context, f func() error) error {
	_, err := Do(ctx, r, func() (struct{}, error) {
		return struct{}{}, f()
	})
	return err
}

// Do calls f until it succeeds and returns its value. On failure the last error is
// returned, extended with Stats.
func Do[T any](ctx context.Context, r *Retrier, f func() (T, error)) (T, error) {
	var (
		value T
		err   error
		cause Cause
	)
	start := r.opts.clock.Now()
	backoff := r.opts.backoff()
	attempts := 0

loop:
	for {
		if ctx.Err() != nil {
			if err == nil {
				err = stacktrace.Wrap(ctx.Err())
			}
			cause = ContextDone
			break loop
		}

		if err != nil && r.opts.maxAttempts > 0 && attempts >= r.opts.maxAttempts {
			cause = MaxAttemptsReached
			break loop
		}

		attempts++
		err = calm.Unpanic(func() error {
			var ferr error
			value, ferr = f()
			return ferr
		})

		class := errclass.GetClass(err)
		if class == errclass.Unknown {
			class = r.opts.treatUnknownAs
		}
		switch class {
		case errclass.Nil:
			return value, nil
		case errclass.Panic, errclass.Persistent:
			cause = PersistentErrorEncountered
			break loop
		}

		delay := backoff.Next()
		r.opts.logger.Debug("attempt failed, retrying",
			slog.Int("attempt", attempts), slog.Duration("delay", delay), log.ErrAttr(err))
		r.wait(ctx, delay)
	}

	var zero T
	return zero, xerrors.Extend(Stats{
		Attempts: attempts,
		Duration: r.opts.clock.Since(start),
		Cause:    cause,
	}, err)
}

func (r *Retrier) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := r.opts.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
	case <-ctx.Done():
	}
}
