// Package debounce decides whether delayed work is still current when its delay ends.
//
// The owner calls Advance on every fire and hands the returned generation to the job.
// The job calls Pass, which waits out the delay and reports whether no newer fire has
// happened in the meantime. Work that has passed is never interrupted.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

//go:generate mockgen -source debounce.go -destination mock_debounce.go -package debounce

// Gate is the staleness check shared between a handle and the jobs it spawns.
type Gate interface {
	// Advance starts a new generation and returns it.
	Advance() uint16
	// Pass blocks for the delay and reports whether generation is still current.
	// It returns false if ctx ends first.
	Pass(ctx context.Context, generation uint16) bool
}

// Debouncer is a Gate built on a wrapping 16 bit generation counter. Wraparound is
// harmless: generations are compared for equality shortly after they are issued.
type Debouncer struct {
	mu         sync.Mutex
	generation uint16
	delay      time.Duration
	clock      clockwork.Clock
}

type options struct {
	clock clockwork.Clock
}

// Option is an option func for New.
type Option func(options *options)

// WithClock replaces the real clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// New creates a Debouncer at generation 0. A negative delay is treated as zero.
func New(delay time.Duration, opts ...Option) *Debouncer {
	options := options{
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Debouncer{
		delay: max(delay, 0),
		clock: options.clock,
	}
}

// Advance implements Gate.
func (d *Debouncer) Advance() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	return d.generation
}

// Pass implements Gate.
func (d *Debouncer) Pass(ctx context.Context, generation uint16) bool {
	if d.delay > 0 {
		timer := d.clock.NewTimer(d.delay)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	} else if ctx.Err() != nil {
		return false
	}

	return d.Current() == generation
}

// Current returns the latest generation.
func (d *Debouncer) Current() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.generation
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
