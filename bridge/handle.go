// Package bridge lets a synchronous, frame-driven owner hand work to a background
// runtime and pick up the outcome with one non-blocking poll per frame.
//
// A Handle holds at most one outstanding fire. Firing again abandons the previous
// receiver: the older job still runs, but its result is discarded. Only the value of
// the most recent fire is ever observed.
//
//	search := bridge.New[[]Lecture](rt).WithDebounce(250 * time.Millisecond)
//
//	// on every keystroke
//	search.Fire(func() []Lecture { return catalogue.Filter(query) })
//
//	// on every frame
//	if lectures, ok := search.Get(); ok {
//		draw(lectures)
//	}
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-taskbridge/bridge/debounce"
	"github.com/zircuit-labs/zkr-go-taskbridge/bridge/oneshot"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
)

const defaultName = "handle"

type options struct {
	name      string
	gate      debounce.Gate
	delay     time.Duration
	onFailure func(error)
	logger    *slog.Logger
}

// Option is an option func for New.
type Option func(options *options)

// WithName names the handle in logs and errors.
func WithName(name string) Option {
	return func(options *options) {
		options.name = name
	}
}

// WithDebounceDelay debounces every fire by d. A non-positive d disables debouncing.
func WithDebounceDelay(d time.Duration) Option {
	return func(options *options) {
		options.delay = d
	}
}

// WithGate uses gate to decide whether a fired job is still current.
// It takes precedence over WithDebounceDelay. When handles share a gate, firing one of
// them makes the pending fires of the others stale, and those surface as ErrChannelClosed.
func WithGate(gate debounce.Gate) Option {
	return func(options *options) {
		options.gate = gate
	}
}

// WithFailureHandler is called by State when a fire ended without a result.
// The default handler panics.
func WithFailureHandler(f func(error)) Option {
	return func(options *options) {
		options.onFailure = f
	}
}

// WithLogger sets the logger to be used. It defaults to the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

func panicOnFailure(err error) {
	panic(err)
}

// Handle tracks the work fired from a single owner. It must only be used from the owner
// goroutine.
type Handle[T any] struct {
	rt        *substrate.Runtime
	name      string
	logger    *slog.Logger
	onFailure func(error)

	gate    debounce.Gate
	rx      *oneshot.Receiver[T]
	fires   uint64
	last    T
	hasLast bool
}

// New creates a handle in the NotFired state.
func New[T any](rt *substrate.Runtime, opts ...Option) *Handle[T] {
	options := options{
		name:      defaultName,
		onFailure: panicOnFailure,
		logger:    rt.Logger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	h := &Handle[T]{
		rt:        rt,
		name:      options.name,
		logger:    options.logger.With(slog.String("handle", options.name)),
		onFailure: options.onFailure,
		gate:      options.gate,
	}
	if h.gate == nil && options.delay > 0 {
		h.WithDebounce(options.delay)
	}
	return h
}

// WithDebounce attaches a fresh debouncer with delay d and returns h.
// Only fires made afterwards are debounced.
func (h *Handle[T]) WithDebounce(d time.Duration) *Handle[T] {
	h.gate = debounce.New(d, debounce.WithClock(h.rt.Clock()))
	return h
}

// Name returns the handle name.
func (h *Handle[T]) Name() string {
	return h.name
}

// Fire runs work on the runtime's blocking pool. Use it for CPU-bound or otherwise
// blocking computations.
func (h *Handle[T]) Fire(work func() T) {
	pool := h.rt.Pool()
	h.fire(func(ctx context.Context) (T, error) {
		return substrate.RunBlocking(ctx, pool, work)
	})
}

// FireAsync runs work directly on a scheduler goroutine. The context ends when the
// runtime shuts down; honouring it is up to work.
func (h *Handle[T]) FireAsync(work func(ctx context.Context) T) {
	h.fire(func(ctx context.Context) (T, error) {
		return work(ctx), nil
	})
}

func (h *Handle[T]) fire(run func(ctx context.Context) (T, error)) {
	tx, rx := oneshot.New[T]()
	if h.rx != nil {
		h.rx.Close()
	}
	h.rx = rx
	h.fires++

	gate := h.gate
	var generation uint16
	if gate != nil {
		generation = gate.Advance()
	}
	h.logger.Debug("fired", slog.Uint64("fire", h.fires), slog.Bool("debounced", gate != nil))

	h.rt.Spawn(h.name, func(ctx context.Context) (substrate.Outcome, error) {
		defer tx.Close()

		if gate != nil && !gate.Pass(ctx, generation) {
			return substrate.Stale, nil
		}

		v, err := run(ctx)
		if err != nil {
			return substrate.Dropped, err
		}
		if err := tx.Send(v); err != nil {
			return substrate.Dropped, nil
		}
		return substrate.Delivered, nil
	})
}

// TryState polls without blocking. When the outstanding fire ended without a value it
// returns an error wrapping ErrChannelClosed, together with the state the handle falls
// back to. The failure is reported once.
func (h *Handle[T]) TryState() (State[T], error) {
	if h.rx == nil {
		return h.settled(), nil
	}

	v, err := h.rx.TryReceive()
	switch {
	case err == nil:
		h.rx = nil
		h.last, h.hasLast = v, true
		return ready(v), nil
	case errors.Is(err, oneshot.ErrEmpty):
		return loading(h.last, h.hasLast), nil
	default:
		h.rx.Close()
		h.rx = nil
		return h.settled(), channelClosed(h.name, h.fires)
	}
}

// State polls like TryState. A failed fire is passed to the failure handler and, if the
// handler returns, the fallback state is reported.
func (h *Handle[T]) State() State[T] {
	s, err := h.TryState()
	if err != nil {
		h.logger.Error("fire ended without a result", log.ErrAttr(err))
		h.onFailure(err)
	}
	return s
}

// Get polls and returns the newest value seen so far, even while a newer fire is loading.
func (h *Handle[T]) Get() (T, bool) {
	return h.State().Get()
}

// GetFresh polls and returns a value only when no fire is outstanding.
func (h *Handle[T]) GetFresh() (T, bool) {
	return h.State().GetFresh()
}

// Close abandons the outstanding fire, if any. The job is not cancelled; its result is
// dropped. The handle can be fired again afterwards.
func (h *Handle[T]) Close() {
	if h.rx != nil {
		h.rx.Close()
		h.rx = nil
	}
}

func (h *Handle[T]) settled() State[T] {
	if h.hasLast {
		return ready(h.last)
	}
	return notFired[T]()
}
