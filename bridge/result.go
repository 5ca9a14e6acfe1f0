package bridge

import (
	"context"

	"github.com/zircuit-labs/zkr-go-taskbridge/retry"
)

// Result carries the outcome of fallible work through a handle. Handles themselves only
// fail when the work did not finish at all; ordinary failures belong in the value.
type Result[T any] struct {
	value T
	err   error
}

// Succeed wraps a successful value.
func Succeed[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Unwrap returns the value and the error.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Err returns the error, if any.
func (r Result[T]) Err() error {
	return r.err
}

// Fallible adapts fn for use with FireAsync on a Handle[Result[T]].
func Fallible[T any](fn func(ctx context.Context) (T, error)) func(ctx context.Context) Result[T] {
	return func(ctx context.Context) Result[T] {
		v, err := fn(ctx)
		if err != nil {
			return Fail[T](err)
		}
		return Succeed(v)
	}
}

// Retrying calls fn with r's policy until it succeeds or gives up.
func Retrying[T any](r *retry.Retrier, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return retry.Do(ctx, r, func() (T, error) {
			return fn(ctx)
		})
	}
}
