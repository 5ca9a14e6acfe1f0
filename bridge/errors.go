package bridge

import (
	"errors"
	"log/slog"

	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// ErrChannelClosed is reported when a fired job ended without delivering a value,
// which happens when the work panicked or the runtime shut down before it ran.
var ErrChannelClosed = errors.New("task channel closed without a result")

func channelClosed(name string, fire uint64) error {
	err := errclass.WrapAs(stacktrace.Wrap(ErrChannelClosed), errclass.Persistent)
	return errcontext.Add(err, slog.String("handle", name), slog.Uint64("fire", fire))
}
