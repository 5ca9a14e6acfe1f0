// Package log builds slog loggers backed by zerolog, with errors expanded into their
// stack trace, class and context.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/rs/zerolog"
	slogcommon "github.com/samber/slog-common"
	slogzerolog "github.com/samber/slog-zerolog/v2"

	"github.com/zircuit-labs/zkr-go-taskbridge/version"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

const (
	ErrorKey        = "error"
	ErrorContextKey = "error_context"
	SourceKey       = "source"
	StackTraceKey   = "stacktrace"
	ErrClassKey     = "class"
)

var logLevel = &slog.LevelVar{}

// SetLogLevel changes the level of every logger created by NewLogger.
// An empty level leaves the current level unchanged.
func SetLogLevel(level string) error {
	if level == "" {
		return nil
	}
	return logLevel.UnmarshalText([]byte(level))
}

// ErrAttr is a helper for logging error values.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

type options struct {
	writer      io.Writer
	serviceName string
	instanceID  string
	version     *version.Information
}

// Option is an option func for NewLogger.
type Option func(options *options)

// WithWriter sets the destination of log lines (default os.Stdout).
func WithWriter(w io.Writer) Option {
	return func(options *options) {
		options.writer = w
	}
}

// WithServiceName sets the service name stamped on every line.
func WithServiceName(name string) Option {
	return func(options *options) {
		options.serviceName = name
	}
}

// WithInstanceID sets the instance id stamped on every line.
func WithInstanceID(id string) Option {
	return func(options *options) {
		options.instanceID = id
	}
}

// WithVersion stamps build information on every line.
func WithVersion(info *version.Information) Option {
	return func(options *options) {
		options.version = info
	}
}

// NewLogger creates a slog logger that writes JSON lines through zerolog.
func NewLogger(opts ...Option) (*slog.Logger, error) {
	options := options{
		writer:      os.Stdout,
		serviceName: "unknown",
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.writer == nil {
		return nil, fmt.Errorf("log writer must not be nil")
	}

	// ms granularity is enough for frame-level timing
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	zctx := zerolog.New(options.writer).With().
		Timestamp().
		Str("service", options.serviceName)
	if options.instanceID != "" {
		zctx = zctx.Str("instance", options.instanceID)
	}
	if v := options.version; v != nil {
		zctx = zctx.
			Str("version", v.Version).
			Str("git_commit", v.GitCommit).
			Bool("git_dirty", v.GitDirty)
	}
	zlogger := zctx.Logger()

	return slog.New(slogzerolog.Option{
		Converter: CustomSlogConverter,
		Level:     logLevel,
		Logger:    &zlogger,
	}.NewZerologHandler()), nil
}

// NewTestLogger creates a logger that writes through t.Log, so output only shows
// for failing tests. Logging after the test ends panics, which helps surface
// goroutines that outlive their test.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slogt.New(t, slogt.JSON()).With(slog.String("test", t.Name()))
}

// CustomSlogConverter is slogcommon.DefaultConverter with error attributes expanded
// by replaceError.
func CustomSlogConverter(addSource bool, replaceAttr func(groups []string, a slog.Attr) slog.Attr, loggerAttr []slog.Attr, groups []string, record *slog.Record) map[string]any {
	attrs := slogcommon.AppendRecordAttrsToAttrs(loggerAttr, groups, record)
	attrs = replaceError(attrs)
	if addSource {
		attrs = append(attrs, slogcommon.Source(SourceKey, record))
	}
	attrs = slogcommon.ReplaceAttrs(replaceAttr, []string{}, attrs...)
	return slogcommon.AttrsToMap(attrs...)
}

// replaceError rewrites a top level "error" attribute into its message and adds an
// "error_context" group holding the stack trace, class and context of the error.
// A joined error becomes a list of messages and a list of groups error_0, error_1, ...
func replaceError(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs)+1)
	for _, a := range attrs {
		err, ok := a.Value.Any().(error)
		if a.Key != ErrorKey || !ok || err == nil {
			out = append(out, a)
			continue
		}

		children := xerrors.Unjoin(err)
		if len(children) == 1 {
			out = append(out, slog.String(ErrorKey, err.Error()))
			if details := errorDetails(err); len(details) > 1 {
				out = append(out, slog.Group(ErrorContextKey, details...))
			}
			continue
		}

		messages := make([]string, len(children))
		groups := make([]slog.Attr, len(children))
		for i, child := range children {
			messages[i] = child.Error()
			groups[i] = slog.Group(fmt.Sprintf("error_%d", i), errorDetails(child)...)
		}
		out = append(out, slog.Any(ErrorKey, messages), slog.Any(ErrorContextKey, groups))
	}
	return out
}

func errorDetails(err error) []any {
	details := []any{slog.String(ErrorKey, err.Error())}
	if trace := stacktrace.StackTraceMarshaler(err); trace != nil {
		details = append(details, slog.Any(StackTraceKey, trace))
	}
	if class := errclass.GetClass(err); class != errclass.Unknown {
		details = append(details, slog.String(ErrClassKey, class.String()))
	}
	for _, attr := range errcontext.Get(err).Flatten() {
		details = append(details, attr)
	}
	return details
}
