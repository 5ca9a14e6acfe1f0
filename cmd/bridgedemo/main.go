// Command bridgedemo is a terminal lecture browser. Its frame loop never blocks:
// sign-in, course and lecture loading and search all run in the background through
// bridge handles, and each frame only polls them.
package main

import (
	"embed"
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/http/admin"
	"github.com/zircuit-labs/zkr-go-taskbridge/http/echotask"
	"github.com/zircuit-labs/zkr-go-taskbridge/http/echotask/healthcheck"
	"github.com/zircuit-labs/zkr-go-taskbridge/runner"
	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
	"github.com/zircuit-labs/zkr-go-taskbridge/task/polling"
)

//go:embed data/settings.toml
var settings embed.FS

type uiConfig struct {
	FPS int
}

func main() {
	runner.Run("bridgedemo", settings, run)
}

func run(cfg *config.Configuration, tm runner.Runner, logger *slog.Logger) error {
	rt, err := substrate.NewFromConfig(cfg, "runtime", substrate.WithLogger(logger))
	if err != nil {
		return err
	}

	dc := demoConfig{}
	if err := cfg.Unmarshal("demo", &dc); err != nil {
		return err
	}
	uc := uiConfig{FPS: 30}
	if err := cfg.Unmarshal("ui", &uc); err != nil {
		return err
	}

	app, err := newApp(rt, newCatalogue(rt, dc), dc, logger)
	if err != nil {
		return err
	}
	term, err := newTerminal(app, logger)
	if err != nil {
		return err
	}

	server, err := echotask.NewServer(cfg, "admin",
		echotask.WithName("admin"),
		echotask.WithLogger(logger),
		echotask.WithRoutes(admin.NewRoutes(rt, tm)),
		echotask.WithHealthCheck(healthcheck.Checks{rt, tm}),
		echotask.WithCollectors(admin.NewCollector(rt)),
	)
	if err != nil {
		term.Cleanup()
		return err
	}

	frames := polling.NewTask("frames", term,
		polling.WithInterval(time.Second/time.Duration(max(uc.FPS, 1))),
		polling.WithRunAtStart(),
		polling.WithLogger(logger),
	)

	tm.Run(rt, frames, server)
	return nil
}
