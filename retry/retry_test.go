package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-taskbridge/retry"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
)

var (
	errTest       = errors.New("lecture list unavailable")
	errPersistent = errclass.WrapAs(errTest, errclass.Persistent)
	errTransient  = errclass.WrapAs(errTest, errclass.Transient)
)

type flaky struct {
	calls       int
	errs        []error
	shouldPanic bool
}

func (f *flaky) fetch() (int, error) {
	if f.shouldPanic {
		panic("fetch exploded")
	}
	defer func() { f.calls++ }()
	if f.calls < len(f.errs) {
		return 0, f.errs[f.calls]
	}
	return 42, nil
}

func TestRetrySemantics(t *testing.T) {
	t.Parallel()

	noWait, err := retry.Constant(0, nil)
	require.NoError(t, err)

	testCases := []struct {
		name             string
		cancel           bool
		unknownAs        errclass.Class
		maxAttempts      int
		errs             []error
		shouldPanic      bool
		expectedCause    retry.Cause
		expectedAttempts int
	}{
		{name: "immediate success", unknownAs: errclass.Transient, maxAttempts: 3, expectedCause: retry.Success},
		{name: "immediate panic", unknownAs: errclass.Transient, maxAttempts: 3, shouldPanic: true, expectedCause: retry.PersistentErrorEncountered, expectedAttempts: 1},
		{name: "transient twice, max 3", unknownAs: errclass.Transient, maxAttempts: 3, errs: []error{errTransient, errTransient}, expectedCause: retry.Success},
		{name: "transient four times, max 3", unknownAs: errclass.Transient, maxAttempts: 3, errs: []error{errTransient, errTransient, errTransient, errTransient}, expectedCause: retry.MaxAttemptsReached, expectedAttempts: 3},
		{name: "transient four times, max 2", unknownAs: errclass.Transient, maxAttempts: 2, errs: []error{errTransient, errTransient, errTransient, errTransient}, expectedCause: retry.MaxAttemptsReached, expectedAttempts: 2},
		{name: "persistent", unknownAs: errclass.Transient, maxAttempts: 3, errs: []error{errPersistent}, expectedCause: retry.PersistentErrorEncountered, expectedAttempts: 1},
		{name: "unknown as transient", unknownAs: errclass.Transient, maxAttempts: 3, errs: []error{errTest, errTest, errTest, errTest}, expectedCause: retry.MaxAttemptsReached, expectedAttempts: 3},
		{name: "unknown as persistent", unknownAs: errclass.Persistent, maxAttempts: 3, errs: []error{errTest, errTest}, expectedCause: retry.PersistentErrorEncountered, expectedAttempts: 1},
		{name: "transient then persistent", unknownAs: errclass.Transient, maxAttempts: 3, errs: []error{errTransient, errPersistent}, expectedCause: retry.PersistentErrorEncountered, expectedAttempts: 2},
		{name: "context cancelled", cancel: true, unknownAs: errclass.Transient, maxAttempts: 3, errs: []error{errTransient}, expectedCause: retry.ContextDone, expectedAttempts: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			retrier := retry.NewRetrier(
				retry.WithBackoff(noWait),
				retry.WithMaxAttempts(tc.maxAttempts),
				retry.WithUnknownErrorsAs(tc.unknownAs),
			)
			f := &flaky{errs: tc.errs, shouldPanic: tc.shouldPanic}

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			if tc.cancel {
				cancel()
			}

			v, err := retry.Do(ctx, retrier, f.fetch)
			if tc.expectedCause == retry.Success {
				require.NoError(t, err)
				assert.Equal(t, 42, v)
				return
			}

			switch {
			case tc.shouldPanic:
				assert.Equal(t, errclass.Panic, errclass.GetClass(err))
			case tc.cancel:
				assert.ErrorIs(t, err, context.Canceled)
			default:
				assert.ErrorIs(t, err, errTest)
			}

			stats, ok := xerrors.Extract[retry.Stats](err)
			require.True(t, ok)
			assert.Equal(t, tc.expectedCause, stats.Cause)
			assert.Equal(t, tc.expectedAttempts, stats.Attempts)
		})
	}
}

func TestTryWaitsOnClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	backoff, err := retry.Constant(time.Second, nil)
	require.NoError(t, err)
	retrier := retry.NewRetrier(retry.WithBackoff(backoff), retry.WithClock(clock))

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retrier.Try(t.Context(), func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
	}()

	for range 2 {
		require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
		clock.Advance(time.Second)
	}
	require.NoError(t, <-done)
	assert.Equal(t, 3, calls)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	_, err := retry.Constant(-time.Second, nil)
	require.ErrorIs(t, err, retry.ErrInvalidDelay)
	_, err = retry.Exponential(0, time.Second, 2, nil)
	require.ErrorIs(t, err, retry.ErrInvalidDelay)
	_, err = retry.Exponential(2*time.Second, time.Second, 2, nil)
	require.ErrorIs(t, err, retry.ErrInvalidDelay)

	testCases := []struct {
		name     string
		factor   int
		limit    time.Duration
		expected []time.Duration
	}{
		{name: "base 2", factor: 2, limit: 9 * time.Second, expected: []time.Duration{1, 2, 4, 8, 9, 9}},
		{name: "base 3", factor: 3, limit: 30 * time.Second, expected: []time.Duration{1, 3, 9, 27, 30}},
		{name: "factor below two", factor: 1, limit: 5 * time.Second, expected: []time.Duration{1, 2, 4, 5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			factory, err := retry.Exponential(time.Second, tc.limit, tc.factor, retry.NoJitter)
			require.NoError(t, err)

			// each factory call starts over
			for range 2 {
				b := factory()
				for _, want := range tc.expected {
					assert.Equal(t, want*time.Second, b.Next())
				}
			}
		})
	}
}

func TestJitterBounds(t *testing.T) {
	t.Parallel()

	for range 100 {
		d := retry.FullJitter(time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, time.Second)

		d = retry.EqualJitter(time.Second)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.Less(t, d, time.Second)
	}
	assert.Zero(t, retry.FullJitter(0))
	assert.Zero(t, retry.EqualJitter(-time.Second))
	assert.Equal(t, retry.Cause(99).String(), "unknown")
}
