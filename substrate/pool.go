package substrate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// Pool bounds how many blocking computations run at the same time.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	active atomic.Int64
}

// NewPool creates a pool admitting size concurrent computations (at least one).
func NewPool(size int) *Pool {
	size = max(size, 1)
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Size returns the maximum number of concurrent computations.
func (p *Pool) Size() int {
	return p.size
}

// Active returns the number of computations currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// RunBlocking waits for a free slot in p and then calls fn on the calling goroutine.
// A panic in fn is returned as an error of class errclass.Panic. If ctx ends while
// waiting for a slot, fn is not called.
func RunBlocking[T any](ctx context.Context, p *Pool, fn func() T) (T, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, errclass.WrapAs(stacktrace.Wrap(err), errclass.Transient)
	}
	defer p.sem.Release(1)

	p.active.Add(1)
	defer p.active.Add(-1)

	return calm.UnpanicValue(fn)
}
