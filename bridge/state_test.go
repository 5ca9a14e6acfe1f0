package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateAccessors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		state     State[int]
		kind      Kind
		get       int
		hasGet    bool
		hasFresh  bool
		formatted string
	}{
		{name: "not fired", state: notFired[int](), kind: NotFired, formatted: "not fired"},
		{name: "loading without previous", state: loading(0, false), kind: Loading, formatted: "loading(none)"},
		{name: "loading with previous", state: loading(7, true), kind: Loading, get: 7, hasGet: true, formatted: "loading(7)"},
		{name: "ok", state: ready(9), kind: Ok, get: 9, hasGet: true, hasFresh: true, formatted: "ok(9)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.kind, tc.state.Kind())

			v, ok := tc.state.Get()
			assert.Equal(t, tc.hasGet, ok)
			assert.Equal(t, tc.get, v)

			v, ok = tc.state.GetFresh()
			assert.Equal(t, tc.hasFresh, ok)
			if tc.hasFresh {
				assert.Equal(t, tc.get, v)
			}

			assert.Equal(t, tc.formatted, tc.state.String())
		})
	}

	assert.Equal(t, "unknown", Kind(42).String())
}
