// Package runner removes the boilerplate from main: configuration, logging, signal
// handling and exit codes.
package runner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm"
	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/log/identity"
	"github.com/zircuit-labs/zkr-go-taskbridge/task"
	"github.com/zircuit-labs/zkr-go-taskbridge/task/ossignal"
	"github.com/zircuit-labs/zkr-go-taskbridge/version"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

const (
	exitError = 1
	exitPanic = 2 // go standard exit code on panic
	cfgPath   = "runner"
)

type runnerConfig struct {
	LogLevel string `koanf:"log_level"`
	// LogFile receives the logs instead of stderr, for programs that own the terminal.
	LogFile string `koanf:"log_file"`
}

// Runner is the part of task.Manager handed to a Runnable.
type Runner interface {
	Run(tasks ...task.Task)
	RunTerminable(tasks ...task.Task)
	Cleanup(f func())
	Context() context.Context
	Running() []string
	HealthCheck(ctx context.Context) error
}

// Runnable starts the tasks of a program. It should not block.
type Runnable func(cfg *config.Configuration, tm Runner, logger *slog.Logger) error

type options struct {
	configOpts []config.Option
}

type Option func(options *options)

// WithConfigOptions is passed on to config.NewConfiguration.
func WithConfigOptions(opts ...config.Option) Option {
	return func(options *options) {
		options.configOpts = append(options.configOpts, opts...)
	}
}

// Run loads the configuration from f, sets up logging, runs run and waits for its tasks.
// It exits the process with a non-zero code on error or panic.
func Run(serviceName string, f fs.FS, run Runnable, opts ...Option) {
	options := options{}
	for _, opt := range opts {
		opt(&options)
	}

	identity.SetServiceName(serviceName)

	cfg, err := config.NewConfiguration(f, options.configOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %s\n", err)
		os.Exit(exitError) //revive:disable:deep-exit // intentional
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %s\n", err)
		os.Exit(exitError) //revive:disable:deep-exit // intentional
	}

	stopTracing, err := startTracing(logger)
	if err != nil {
		logger.Error("failed to start tracing", log.ErrAttr(err))
		closeLog()
		os.Exit(exitError) //revive:disable:deep-exit // intentional
	}

	err = calm.Unpanic(func() error {
		return protectedRun(cfg, run, logger)
	})

	code := 0
	switch errclass.GetClass(err) {
	case errclass.Nil:
		logger.Info("service exited normally")
	case errclass.Panic:
		logger.Error("service failed with panic", log.ErrAttr(err))
		code = exitPanic
	default:
		logger.Error("service failed with error", log.ErrAttr(err))
		code = exitError
	}
	stopTracing()
	closeLog()
	if code != 0 {
		os.Exit(code) //revive:disable:deep-exit // intentional
	}
}

func newLogger(cfg *config.Configuration) (*slog.Logger, func(), error) {
	rc := runnerConfig{}
	if err := cfg.Unmarshal(cfgPath, &rc); err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}
	if rc.LogFile != "" {
		file, err := os.OpenFile(rc.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, stacktrace.Wrap(err)
		}
		w = file
		closeLog = func() { _ = file.Close() }
	}

	name, id := identity.WhoAmI()
	logger, err := log.NewLogger(
		log.WithWriter(w),
		log.WithServiceName(name),
		log.WithInstanceID(id),
		log.WithVersion(&version.Info),
	)
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	if rc.LogLevel != "" {
		if err := log.SetLogLevel(rc.LogLevel); err != nil {
			logger.Error("failed to set log level", log.ErrAttr(err))
		}
	}
	return logger, closeLog, nil
}

func protectedRun(cfg *config.Configuration, run Runnable, logger *slog.Logger) error {
	tm := task.NewManager(task.WithLogger(logger))
	tm.Run(ossignal.NewTask(ossignal.WithLogger(logger)))

	if err := run(cfg, tm, logger); err != nil {
		_ = tm.Stop()
		return err
	}
	return tm.Wait()
}
