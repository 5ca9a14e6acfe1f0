// Package calm runs functions with panics captured as errors carrying a stack trace.
package calm

import (
	"fmt"

	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// frames to skip so that the trace starts at the panicking function
// rather than the deferred recovery.
const panicStackDepth = 3

// Unpanic calls f and converts a panic into an error of class errclass.Panic.
// WARNING: panics in goroutines started by f cannot be recovered here.
func Unpanic(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	return f()
}

// UnpanicValue calls f and returns its value, or the zero value and an error
// of class errclass.Panic if f panics.
func UnpanicValue[T any](f func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, panicError(r)
		}
	}()

	return f(), nil
}

func panicError(r any) error {
	err := fmt.Errorf("panic: %v", r)
	err = xerrors.Extend(stacktrace.GetStack(panicStackDepth+1, true), err)
	return errclass.WrapAs(err, errclass.Panic)
}
