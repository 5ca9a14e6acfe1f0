package substrate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm"
	"github.com/zircuit-labs/zkr-go-taskbridge/calm/errgroup"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// Job is a unit of background work. It reports how it ended, or an error if it failed.
type Job func(ctx context.Context) (Outcome, error)

// Scheduler runs jobs on their own goroutines and keeps track of them until they end.
type Scheduler struct {
	mu     sync.Mutex
	closed bool
	group  *errgroup.Group
	clock  clockwork.Clock
	logger *slog.Logger
	stats  *stats
}

func newScheduler(clock clockwork.Clock, logger *slog.Logger, stats *stats) *Scheduler {
	return &Scheduler{
		group:  errgroup.New(),
		clock:  clock,
		logger: logger,
		stats:  stats,
	}
}

// Go starts job without blocking. Failures and panics are logged and counted;
// they never affect other jobs. Once the scheduler is closed, job still runs so that it
// settles, but it is no longer waited for.
func (s *Scheduler) Go(ctx context.Context, name string, job Job) {
	s.stats.spawned.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug("job spawned after shutdown", slog.String("job", name))
		go s.run(ctx, name, job)
		return
	}
	s.group.Go(func() error {
		s.run(ctx, name, job)
		return nil
	})
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) {
	var outcome Outcome
	err := calm.Unpanic(func() error {
		var err error
		outcome, err = job(ctx)
		return err
	})

	switch errclass.GetClass(err) {
	case errclass.Nil:
		s.stats.record(outcome)
		s.logger.Debug("job finished", slog.String("job", name), slog.String("outcome", outcome.String()))
	case errclass.Panic:
		s.stats.panicked.Add(1)
		s.logger.Error("job panicked", slog.String("job", name), log.ErrAttr(err))
	default:
		s.stats.failed.Add(1)
		s.logger.Warn("job failed", slog.String("job", name), log.ErrAttr(err))
	}
}

// Sleep suspends the calling job for d, or until ctx ends.
func (s *Scheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return stacktrace.Wrap(ctx.Err())
	}
}

// Close stops tracking new jobs and waits for every tracked job to return.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.group.Wait()
}
