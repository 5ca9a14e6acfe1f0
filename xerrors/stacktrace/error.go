package stacktrace

import (
	"sync/atomic"

	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
)

// skip runtime.Callers, GetStack and Wrap so the trace starts at the caller of Wrap.
const wrapStackDepth = 3

// Disabled turns Wrap into a no-op when set.
var Disabled atomic.Bool

// Wrap attaches the caller's stack trace to err unless it already carries one.
func Wrap(err error) error {
	if err == nil || Disabled.Load() {
		return err
	}
	if _, ok := xerrors.Extract[StackTrace](err); ok {
		return err
	}
	return xerrors.Extend(GetStack(wrapStackDepth, true), err)
}

// Extract returns the stack trace attached to err, if any.
func Extract(err error) StackTrace {
	trace, ok := xerrors.Extract[StackTrace](err)
	if !ok {
		return nil
	}
	return trace
}
