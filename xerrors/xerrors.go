// Package xerrors attaches typed data to errors so that it survives wrapping and can be
// recovered later with Extract.
package xerrors

import (
	"errors"
	"log/slog"
)

// ExtendedError carries a value of type T alongside the wrapped error.
type ExtendedError[T any] struct {
	Data T
	err  error
}

// Error returns the message of the wrapped error unchanged.
func (e ExtendedError[T]) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e ExtendedError[T]) Unwrap() error {
	return e.err
}

// LogValue implements slog.LogValuer by logging the attached data only.
func (e ExtendedError[T]) LogValue() slog.Value {
	if lv, ok := any(e.Data).(slog.LogValuer); ok {
		return lv.LogValue()
	}
	return slog.AnyValue(e.Data)
}

// Extend wraps err together with data. A nil error stays nil.
func Extend[T any](data T, err error) error {
	if err == nil {
		return nil
	}
	return ExtendedError[T]{Data: data, err: err}
}

// Extract finds the outermost data of type T anywhere in the error chain.
func Extract[T any](err error) (T, bool) {
	var ext ExtendedError[T]
	ok := errors.As(err, &ext)
	return ext.Data, ok
}

// Unjoin returns the direct children of an errors.Join result,
// or the error itself when it was not joined.
func Unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
