// Package oneshot provides a single-use, single-producer/single-consumer channel that
// carries at most one value.
//
// Both ends are non-blocking. Dropping the sender without sending closes the channel,
// which the receiver can tell apart from "no value yet".
package oneshot

import (
	"errors"
	"sync"
)

var (
	// ErrEmpty is returned by TryReceive while no value has been sent yet.
	ErrEmpty = errors.New("oneshot: channel empty")
	// ErrClosed is returned when the other side is gone or the channel was already used.
	ErrClosed = errors.New("oneshot: channel closed")
)

type state int

const (
	statePending state = iota
	stateSent
	stateTaken
	stateClosed
)

type channel[T any] struct {
	mu    sync.Mutex
	state state
	value T

	// set when the receiver is dropped
	abandoned bool

	// closed once a value is sent or the sender is dropped
	done chan struct{}
}

// Sender is the producing end. It may send at most once.
type Sender[T any] struct {
	ch *channel[T]
}

// Receiver is the consuming end. It yields at most one value.
type Receiver[T any] struct {
	ch *channel[T]
}

// New creates a connected sender and receiver.
func New[T any]() (*Sender[T], *Receiver[T]) {
	ch := &channel[T]{done: make(chan struct{})}
	return &Sender[T]{ch: ch}, &Receiver[T]{ch: ch}
}

// Send delivers v without blocking. It fails with ErrClosed if the receiver was dropped
// or this sender was already used.
func (s *Sender[T]) Send(v T) error {
	ch := s.ch
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state != statePending {
		return ErrClosed
	}
	if ch.abandoned {
		ch.state = stateClosed
		close(ch.done)
		return ErrClosed
	}
	ch.value = v
	ch.state = stateSent
	close(ch.done)
	return nil
}

// Close drops the sender. If nothing was sent the receiver observes ErrClosed.
// Close is idempotent and does nothing after a successful Send.
func (s *Sender[T]) Close() {
	ch := s.ch
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state != statePending {
		return
	}
	ch.state = stateClosed
	close(ch.done)
}

// TryReceive takes the value without blocking. It returns ErrEmpty while the sender is
// still pending and ErrClosed once the sender is gone without a value, or after the
// value has been taken.
func (r *Receiver[T]) TryReceive() (T, error) {
	ch := r.ch
	ch.mu.Lock()
	defer ch.mu.Unlock()

	var zero T
	switch ch.state {
	case statePending:
		return zero, ErrEmpty
	case stateSent:
		v := ch.value
		ch.value = zero
		ch.state = stateTaken
		return v, nil
	default:
		return zero, ErrClosed
	}
}

// Close drops the receiver. A later Send fails with ErrClosed and an unread value is
// released.
func (r *Receiver[T]) Close() {
	ch := r.ch
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.abandoned = true
	if ch.state == stateSent {
		var zero T
		ch.value = zero
		ch.state = stateTaken
	}
}

// Done returns a channel that is closed once the sender has sent or been dropped.
func (r *Receiver[T]) Done() <-chan struct{} {
	return r.ch.done
}
