package retry

import (
	"errors"
	"math/rand/v2"
	"time"
)

var ErrInvalidDelay = errors.New("retry: delay must not be negative")

// Backoff yields the delay before each further attempt. A Backoff is used by a single
// retry loop and may keep state.
type Backoff interface {
	Next() time.Duration
}

// BackoffFactory creates a fresh Backoff for every retry loop.
type BackoffFactory func() Backoff

// Jitter transforms a computed delay.
type Jitter func(time.Duration) time.Duration

// NoJitter leaves the delay untouched.
func NoJitter(d time.Duration) time.Duration {
	return d
}

// FullJitter picks a delay in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return rand.N(d)
}

// EqualJitter picks a delay in [d/2, d).
func EqualJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + rand.N(d)/2
}

type constant struct {
	delay  time.Duration
	jitter Jitter
}

func (c *constant) Next() time.Duration {
	return c.jitter(c.delay)
}

// Constant waits the same delay between attempts. A zero delay retries immediately.
func Constant(delay time.Duration, jitter Jitter) (BackoffFactory, error) {
	if delay < 0 {
		return nil, ErrInvalidDelay
	}
	if jitter == nil {
		jitter = NoJitter
	}
	return func() Backoff {
		return &constant{delay: delay, jitter: jitter}
	}, nil
}

type exponential struct {
	initial time.Duration
	limit   time.Duration
	factor  int
	current time.Duration
	jitter  Jitter
}

func (e *exponential) Next() time.Duration {
	if e.current == 0 {
		e.current = e.initial
	} else {
		e.current = min(e.current*time.Duration(e.factor), e.limit)
	}
	return min(e.jitter(e.current), e.limit)
}

// Exponential multiplies the delay by factor after every attempt, up to limit.
// A factor below 2 is treated as 2.
func Exponential(initial, limit time.Duration, factor int, jitter Jitter) (BackoffFactory, error) {
	if initial <= 0 || limit < initial {
		return nil, ErrInvalidDelay
	}
	if factor < 2 {
		factor = 2
	}
	if jitter == nil {
		jitter = FullJitter
	}
	return func() Backoff {
		return &exponential{initial: initial, limit: limit, factor: factor, jitter: jitter}
	}, nil
}
