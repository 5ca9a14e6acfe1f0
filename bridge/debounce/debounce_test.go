package debounce_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-taskbridge/bridge/debounce"
)

const delay = time.Second

func pass(ctx context.Context, d *debounce.Debouncer, generation uint16) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		out <- d.Pass(ctx, generation)
	}()
	return out
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	d := debounce.New(delay)
	assert.Equal(t, uint16(0), d.Current())
	assert.Equal(t, uint16(1), d.Advance())
	assert.Equal(t, uint16(2), d.Advance())
	assert.Equal(t, uint16(2), d.Current())
	assert.Equal(t, delay, d.Delay())
}

func TestAdvanceWraps(t *testing.T) {
	t.Parallel()

	d := debounce.New(0)
	for range math.MaxUint16 {
		d.Advance()
	}
	assert.Equal(t, uint16(math.MaxUint16), d.Current())
	assert.Equal(t, uint16(0), d.Advance())
	assert.True(t, d.Pass(t.Context(), 0))
}

func TestNegativeDelay(t *testing.T) {
	t.Parallel()

	d := debounce.New(-time.Second)
	assert.Equal(t, time.Duration(0), d.Delay())
	assert.True(t, d.Pass(t.Context(), d.Advance()))
}

func TestPassCurrent(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	clock := clockwork.NewFakeClock()
	d := debounce.New(delay, debounce.WithClock(clock))

	result := pass(ctx, d, d.Advance())
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(delay - time.Millisecond)
	select {
	case <-result:
		t.Fatal("pass returned before the delay elapsed")
	default:
	}

	clock.Advance(time.Millisecond)
	assert.True(t, <-result)
}

func TestPassStale(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	clock := clockwork.NewFakeClock()
	d := debounce.New(delay, debounce.WithClock(clock))

	// fire at t=0 and again at t=0.5D
	first := pass(ctx, d, d.Advance())
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(delay / 2)

	second := pass(ctx, d, d.Advance())
	require.NoError(t, clock.BlockUntilContext(ctx, 2))

	clock.Advance(delay / 2)
	assert.False(t, <-first)

	clock.Advance(delay / 2)
	assert.True(t, <-second)
}

func TestPassContextDone(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	d := debounce.New(delay, debounce.WithClock(clock))

	ctx, cancel := context.WithCancel(t.Context())
	result := pass(ctx, d, d.Advance())
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	cancel()
	assert.False(t, <-result)

	// without a delay, a finished context still fails the check
	assert.False(t, debounce.New(0).Pass(ctx, 0))
}

func TestConcurrentAdvance(t *testing.T) {
	t.Parallel()

	d := debounce.New(0)

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			d.Advance()
			d.Current()
		})
	}
	wg.Wait()

	assert.Equal(t, uint16(100), d.Current())
}
