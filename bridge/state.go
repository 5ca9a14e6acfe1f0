package bridge

import "fmt"

// Kind is the coarse state of a handle.
type Kind int

const (
	// NotFired means the handle has never produced a value and nothing is running.
	NotFired Kind = iota
	// Loading means a fire is outstanding. The previous value, if any, is still available.
	Loading
	// Ok means the newest value has been delivered.
	Ok
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case NotFired:
		return "not fired"
	case Loading:
		return "loading"
	case Ok:
		return "ok"
	default:
		return "unknown"
	}
}

// State is the result of polling a handle.
type State[T any] struct {
	kind  Kind
	value T
	has   bool
}

func notFired[T any]() State[T] {
	return State[T]{kind: NotFired}
}

func loading[T any](prev T, has bool) State[T] {
	return State[T]{kind: Loading, value: prev, has: has}
}

func ready[T any](v T) State[T] {
	return State[T]{kind: Ok, value: v, has: true}
}

// Kind returns the state kind.
func (s State[T]) Kind() Kind {
	return s.kind
}

// Value returns the carried value: the newest one in Ok, the previous one in Loading.
func (s State[T]) Value() (T, bool) {
	return s.value, s.has
}

// Get is the stale-tolerant accessor. It is the same as Value.
func (s State[T]) Get() (T, bool) {
	return s.Value()
}

// GetFresh returns a value only when the state is Ok.
func (s State[T]) GetFresh() (T, bool) {
	if s.kind != Ok {
		var zero T
		return zero, false
	}
	return s.value, true
}

// String implements fmt.Stringer.
func (s State[T]) String() string {
	switch {
	case s.kind == NotFired:
		return s.kind.String()
	case s.has:
		return fmt.Sprintf("%s(%v)", s.kind, s.value)
	default:
		return fmt.Sprintf("%s(none)", s.kind)
	}
}
