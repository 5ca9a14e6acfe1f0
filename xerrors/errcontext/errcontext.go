// Package errcontext attaches structured log attributes to errors.
package errcontext

import (
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
)

// Context is a set of log attributes keyed by name.
type Context map[string]slog.Value

// Flatten returns the attributes sorted by key.
func (c Context) Flatten() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(c))
	for _, key := range slices.Sorted(maps.Keys(c)) {
		attrs = append(attrs, slog.Attr{Key: key, Value: c[key]})
	}
	return attrs
}

// LogValue implements slog.LogValuer as a flat group.
func (c Context) LogValue() slog.Value {
	if len(c) == 0 {
		return slog.Value{}
	}
	return slog.GroupValue(c.Flatten()...)
}

// Add attaches attrs to err. Keys already present on err are overwritten.
// Each child of a joined error receives the attributes separately.
func Add(err error, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}

	if children := xerrors.Unjoin(err); len(children) > 1 {
		out := make([]error, len(children))
		for i, child := range children {
			out[i] = Add(child, attrs...)
		}
		return errors.Join(out...)
	}

	ctx := make(Context, len(attrs))
	if existing := Get(err); existing != nil {
		ctx = maps.Clone(existing)
	}
	for _, attr := range attrs {
		ctx[attr.Key] = attr.Value
	}
	return xerrors.Extend(ctx, err)
}

// Get returns the newest Context attached to err.
func Get(err error) Context {
	if err == nil {
		return nil
	}
	ctx, ok := xerrors.Extract[Context](err)
	if !ok {
		return nil
	}
	return ctx
}
