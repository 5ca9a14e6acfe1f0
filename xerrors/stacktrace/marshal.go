package stacktrace

import "strconv"

// StackTraceMarshaler renders the stack trace of err as a list of flat maps for logging.
// It returns nil when err carries no trace.
func StackTraceMarshaler(err error) any {
	trace := Extract(err)
	if trace == nil {
		return nil
	}

	out := make([]map[string]string, 0, len(trace))
	for _, frame := range trace {
		out = append(out, map[string]string{
			"source": frame.File,
			"line":   strconv.Itoa(frame.LineNumber),
			"func":   frame.Function,
		})
	}
	return out
}
