package runner

import (
	"log/slog"
	"os"

	"github.com/DataDog/dd-trace-go/v2/ddtrace/tracer"

	"github.com/zircuit-labs/zkr-go-taskbridge/http/echotask"
	"github.com/zircuit-labs/zkr-go-taskbridge/log/identity"
	"github.com/zircuit-labs/zkr-go-taskbridge/version"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// startTracing starts the DataDog tracer when echotask.TracingEnv is set. The returned
// func stops it.
func startTracing(logger *slog.Logger) (func(), error) {
	if _, ok := os.LookupEnv(echotask.TracingEnv); !ok {
		return func() {}, nil
	}

	service, _ := identity.WhoAmI()
	err := tracer.Start(
		tracer.WithService(service),
		tracer.WithServiceVersion(version.Info.Version),
	)
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}
	logger.Info("tracing enabled", slog.String("service", service))
	return tracer.Stop, nil
}
