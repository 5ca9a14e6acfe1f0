package bridge

import (
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// Keyed keeps one handle per key, created on first use. At most size handles are kept;
// the least recently used one is closed when room is needed.
//
// Like Handle, Keyed belongs to the owner goroutine.
type Keyed[K comparable, T any] struct {
	rt      *substrate.Runtime
	opts    []Option
	name    string
	handles *lru.Cache[K, *Handle[T]]
}

// NewKeyed creates an empty set of handles. Every handle is built with opts and named
// after the key.
func NewKeyed[K comparable, T any](rt *substrate.Runtime, size int, opts ...Option) (*Keyed[K, T], error) {
	handles, err := lru.NewWithEvict(size, func(_ K, h *Handle[T]) {
		h.Close()
	})
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}

	base := options{name: defaultName}
	for _, opt := range opts {
		opt(&base)
	}
	return &Keyed[K, T]{rt: rt, opts: opts, name: base.name, handles: handles}, nil
}

// Handle returns the handle for key, creating it if needed.
func (k *Keyed[K, T]) Handle(key K) *Handle[T] {
	if h, ok := k.handles.Get(key); ok {
		return h
	}
	opts := append(slices.Clone(k.opts), WithName(fmt.Sprintf("%s[%v]", k.name, key)))
	h := New[T](k.rt, opts...)
	k.handles.Add(key, h)
	return h
}

// Peek returns the handle for key without creating it or marking it as used.
func (k *Keyed[K, T]) Peek(key K) (*Handle[T], bool) {
	return k.handles.Peek(key)
}

// Remove closes and forgets the handle for key.
func (k *Keyed[K, T]) Remove(key K) bool {
	return k.handles.Remove(key)
}

// Len returns the number of handles kept.
func (k *Keyed[K, T]) Len() int {
	return k.handles.Len()
}

// Purge closes and forgets every handle.
func (k *Keyed[K, T]) Purge() {
	k.handles.Purge()
}
