// Package errgroup wraps golang.org/x/sync/errgroup so that panics in its goroutines
// are returned as errors instead of crashing the process.
package errgroup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm"
)

// Group is an errgroup.Group whose goroutines cannot crash the process.
type Group struct {
	group *errgroup.Group
}

func New() *Group {
	return &Group{group: new(errgroup.Group)}
}

// WithContext returns a Group and a context that ends when the first goroutine fails
// or Wait returns.
func WithContext(ctx context.Context) (*Group, context.Context) {
	group, ctx := errgroup.WithContext(ctx)
	return &Group{group: group}, ctx
}

func (g *Group) Go(f func() error) {
	g.group.Go(func() error {
		return calm.Unpanic(f)
	})
}

func (g *Group) Wait() error {
	return g.group.Wait()
}
