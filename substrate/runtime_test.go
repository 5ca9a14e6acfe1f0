package substrate_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
)

var errTest = errors.New("test error")

func outcomeJob(o substrate.Outcome) substrate.Job {
	return func(context.Context) (substrate.Outcome, error) {
		return o, nil
	}
}

func TestSpawnOutcomes(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rt := substrate.New(substrate.WithLogger(log.NewTestLogger(t)), substrate.WithBlockingWorkers(3))

		rt.Spawn("delivered", outcomeJob(substrate.Delivered))
		rt.Spawn("delivered-again", outcomeJob(substrate.Delivered))
		rt.Spawn("stale", outcomeJob(substrate.Stale))
		rt.Spawn("dropped", outcomeJob(substrate.Dropped))
		rt.Spawn("failed", func(context.Context) (substrate.Outcome, error) {
			return substrate.Delivered, errTest
		})
		rt.Spawn("panicked", func(context.Context) (substrate.Outcome, error) {
			panic("boom")
		})

		synctest.Wait()
		assert.Equal(t, substrate.Snapshot{
			Spawned:      6,
			Delivered:    2,
			Stale:        1,
			Dropped:      1,
			Failed:       1,
			Panicked:     1,
			BlockingSize: 3,
		}, rt.Stats())

		require.NoError(t, rt.Shutdown())
	})
}

func TestInFlight(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rt := substrate.New()
		release := make(chan struct{})

		rt.Spawn("waiting", func(context.Context) (substrate.Outcome, error) {
			<-release
			return substrate.Delivered, nil
		})
		synctest.Wait()
		assert.Equal(t, uint64(1), rt.Stats().InFlight)

		close(release)
		synctest.Wait()
		assert.Equal(t, uint64(0), rt.Stats().InFlight)
		require.NoError(t, rt.Shutdown())
	})
}

func TestSleep(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rt := substrate.New()

		start := time.Now()
		require.NoError(t, rt.Sleep(t.Context(), time.Second))
		assert.Equal(t, time.Second, time.Since(start))

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		assert.ErrorIs(t, rt.Sleep(ctx, time.Second), context.Canceled)
		assert.ErrorIs(t, rt.Sleep(ctx, 0), context.Canceled)
	})
}

func TestShutdownInterruptsSleep(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rt := substrate.New()

		var sleepErr error
		rt.Spawn("sleeper", func(ctx context.Context) (substrate.Outcome, error) {
			sleepErr = rt.Sleep(ctx, time.Hour)
			return substrate.Stale, nil
		})
		synctest.Wait()

		start := time.Now()
		require.NoError(t, rt.Shutdown())
		assert.Zero(t, time.Since(start))
		assert.ErrorIs(t, sleepErr, context.Canceled)
		assert.Error(t, rt.HealthCheck(t.Context()))
	})
}

func TestSpawnAfterShutdown(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rt := substrate.New(substrate.WithLogger(log.NewTestLogger(t)))
		require.NoError(t, rt.Shutdown())

		var jobErr error
		rt.Spawn("late", func(ctx context.Context) (substrate.Outcome, error) {
			jobErr = ctx.Err()
			return substrate.Stale, nil
		})
		synctest.Wait()

		assert.ErrorIs(t, jobErr, context.Canceled)
		snap := rt.Stats()
		assert.Equal(t, uint64(1), snap.Spawned)
		assert.Equal(t, uint64(1), snap.Stale)
		assert.Zero(t, snap.InFlight)
	})
}

func TestSpawnDuringShutdown(t *testing.T) {
	t.Parallel()

	const rounds, jobs = 50, 20
	for range rounds {
		synctest.Test(t, func(t *testing.T) {
			rt := substrate.New()

			done := make(chan error, 1)
			go func() { done <- rt.Shutdown() }()
			for range jobs {
				rt.Spawn("racing", outcomeJob(substrate.Delivered))
			}

			require.NoError(t, <-done)
			synctest.Wait()
			snap := rt.Stats()
			assert.Equal(t, uint64(jobs), snap.Spawned)
			assert.Equal(t, uint64(jobs), snap.Delivered)
			assert.Zero(t, snap.InFlight)
		})
	}
}

func TestRunAsTask(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rt := substrate.New()
		assert.NotEmpty(t, rt.Name())
		require.NoError(t, rt.HealthCheck(t.Context()))

		ctx, cancel := context.WithCancel(t.Context())
		errCh := make(chan error, 1)
		go func() {
			errCh <- rt.Run(ctx)
		}()

		synctest.Wait()
		require.NoError(t, rt.Context().Err())

		cancel()
		require.NoError(t, <-errCh)
		assert.ErrorIs(t, rt.Context().Err(), context.Canceled)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewConfigurationFromMap(map[string]any{
		"runtime.blocking_workers": 3,
		"runtime.default_debounce": "250ms",
	})
	require.NoError(t, err)

	rt, err := substrate.NewFromConfig(cfg, "runtime")
	require.NoError(t, err)
	assert.Equal(t, 3, rt.Pool().Size())
	assert.Equal(t, 250*time.Millisecond, rt.DefaultDebounce())

	// explicit options win
	rt, err = substrate.NewFromConfig(cfg, "runtime", substrate.WithBlockingWorkers(8))
	require.NoError(t, err)
	assert.Equal(t, 8, rt.Pool().Size())
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	rt := substrate.New(substrate.WithBlockingWorkers(0))
	assert.GreaterOrEqual(t, rt.Pool().Size(), 64)
	assert.Zero(t, rt.DefaultDebounce())
	assert.NotNil(t, rt.Clock())
	assert.NotNil(t, rt.Logger())
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "delivered", substrate.Delivered.String())
	assert.Equal(t, "stale", substrate.Stale.String())
	assert.Equal(t, "dropped", substrate.Dropped.String())
	assert.Equal(t, "unknown", substrate.Outcome(9).String())
}
