// Package stacktrace captures program stack traces and attaches them to errors.
package stacktrace

import (
	"log/slog"
	"regexp"
	"runtime"
	"strings"
)

const maxFrames = 50

var (
	// files of the go runtime and testing packages,
	// eg `/pkg/mod/golang.org/toolchain@v0.0.1-go1.25.5.linux-amd64/src/runtime/panic.go`
	runtimeRegex = regexp.MustCompile(`go[^/]*/src/runtime/[^.]+\.go`)
	testingRegex = regexp.MustCompile(`go[^/]*/src/testing/[^.]+\.go`)
)

// Frame is one human-readable entry of a stack trace.
type Frame struct {
	File       string `json:"source"`
	LineNumber int    `json:"line"`
	Function   string `json:"func"`
}

// StackTrace is a series of frames, innermost first.
type StackTrace []Frame

// LogValue implements slog.LogValuer.
func (s StackTrace) LogValue() slog.Value {
	if len(s) == 0 {
		return slog.Value{}
	}
	return slog.AnyValue([]Frame(s))
}

// GetStack captures the current stack. skipFrames is passed to runtime.Callers, so 1 makes
// GetStack itself the first frame. When skipRuntime is set, frames belonging to the go
// runtime and testing packages are dropped.
func GetStack(skipFrames int, skipRuntime bool) StackTrace {
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(skipFrames, pc)
	frames := runtime.CallersFrames(pc[:n])

	var trace StackTrace
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		if skipRuntime && isToolchainFrame(frame) {
			continue
		}
		trace = append(trace, Frame{
			File:       frame.File,
			LineNumber: frame.Line,
			Function:   frame.Function,
		})
	}
	return trace
}

func isToolchainFrame(frame runtime.Frame) bool {
	switch {
	case strings.HasPrefix(frame.Function, "runtime."):
		return runtimeRegex.MatchString(frame.File)
	case strings.HasPrefix(frame.Function, "testing."):
		return testingRegex.MatchString(frame.File)
	default:
		return false
	}
}
