package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/http/echotask"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/task"
)

var errTest = errors.New("startup failed")

func TestLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "demo.log")
	cfg, err := config.NewConfigurationFromMap(map[string]any{"runner.log_file": path})
	require.NoError(t, err)

	logger, closeLog, err := newLogger(cfg)
	require.NoError(t, err)
	logger.Warn("frame skipped", slog.Int("frame", 12))
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame skipped")
}

func TestLogFileUnwritable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "demo.log")
	cfg, err := config.NewConfigurationFromMap(map[string]any{"runner.log_file": path})
	require.NoError(t, err)

	_, _, err = newLogger(cfg)
	assert.Error(t, err)
}

func TestTracingDisabled(t *testing.T) {
	t.Setenv(echotask.TracingEnv, "")
	require.NoError(t, os.Unsetenv(echotask.TracingEnv))

	stop, err := startTracing(log.NewTestLogger(t))
	require.NoError(t, err)
	assert.NotPanics(t, stop)
}

func TestProtectedRun(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewConfigurationFromMap(map[string]any{})
	require.NoError(t, err)

	testCases := []struct {
		name    string
		run     Runnable
		wantErr bool
	}{
		{
			name: "tasks finish",
			run: func(_ *config.Configuration, tm Runner, _ *slog.Logger) error {
				tm.Run(task.NewFunc("once", func(context.Context) error { return nil }))
				return nil
			},
		},
		{
			name: "runnable fails",
			run: func(*config.Configuration, Runner, *slog.Logger) error {
				return errTest
			},
			wantErr: true,
		},
		{
			name: "task fails",
			run: func(_ *config.Configuration, tm Runner, _ *slog.Logger) error {
				tm.Run(task.NewFunc("broken", func(context.Context) error { return errTest }))
				return nil
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := protectedRun(cfg, tc.run, log.NewTestLogger(t))
			if tc.wantErr {
				assert.ErrorIs(t, err, errTest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
