package ossignal_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/task/ossignal"
)

const settle = 50 * time.Millisecond

// Real signals cannot be delivered inside a synctest bubble, so these tests use wall time.
func TestTaskStops(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		signal syscall.Signal
		stop   func(cancel context.CancelFunc) error
	}{
		{
			name:   "signal received",
			signal: syscall.SIGCONT,
			stop: func(context.CancelFunc) error {
				return syscall.Kill(syscall.Getpid(), syscall.SIGCONT)
			},
		},
		{
			name:   "context cancelled",
			signal: syscall.SIGIO,
			stop: func(cancel context.CancelFunc) error {
				cancel()
				return nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			task := ossignal.NewTask(
				ossignal.WithSignals(tc.signal),
				ossignal.WithLogger(log.NewTestLogger(t)),
			)
			assert.Equal(t, "os signal task", task.Name())

			ctx, cancel := context.WithCancel(t.Context())
			t.Cleanup(cancel)

			done := make(chan error, 1)
			go func() { done <- task.Run(ctx) }()

			select {
			case err := <-done:
				t.Fatalf("task stopped early: %v", err)
			case <-time.After(settle):
			}

			require.NoError(t, tc.stop(cancel))

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("task did not stop")
			}
		})
	}
}
