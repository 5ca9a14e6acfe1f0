// Package echotask runs an echo HTTP server as a task.
package echotask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"

	echotrace "github.com/DataDog/dd-trace-go/contrib/labstack/echo.v4/v2"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zircuit-labs/zkr-go-taskbridge/calm/errgroup"
	"github.com/zircuit-labs/zkr-go-taskbridge/config"
	"github.com/zircuit-labs/zkr-go-taskbridge/http/echotask/healthcheck"
	"github.com/zircuit-labs/zkr-go-taskbridge/http/port"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/log/identity"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

const (
	healthCheckRoute = "/healthcheck"
	metricsRoute     = "/metrics"

	// TracingEnv enables DataDog tracing of requests when set.
	TracingEnv = "DD_APM_ENABLED"
)

// RouteRegistrant is able to register routes only.
type RouteRegistrant interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RouteRegistration registers routes.
type RouteRegistration interface {
	RegisterRoutes(RouteRegistrant) error
}

type serverConfig struct {
	// Host defaults to localhost so admin endpoints are not exposed by accident.
	Host               string
	Port               int
	DisableCompression bool `koanf:"nogzip"`
	// Prometheus is the metrics subsystem. Metrics are served only when it is set.
	Prometheus string
}

type options struct {
	name        string
	routes      []RouteRegistration
	cleanup     func()
	healthcheck healthcheck.Checker
	collectors  []prometheus.Collector
	logger      *slog.Logger
}

// Option is an option func for NewServer.
type Option func(options *options)

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithName sets the name of the task.
func WithName(name string) Option {
	return func(options *options) {
		options.name = name
	}
}

// WithRoutes adds routes to be served.
func WithRoutes(routes RouteRegistration) Option {
	return func(options *options) {
		options.routes = append(options.routes, routes)
	}
}

// WithHealthCheck serves checker at /healthcheck.
func WithHealthCheck(checker healthcheck.Checker) Option {
	return func(options *options) {
		options.healthcheck = checker
	}
}

// WithCollectors adds collectors to the metrics served at /metrics.
func WithCollectors(cs ...prometheus.Collector) Option {
	return func(options *options) {
		options.collectors = append(options.collectors, cs...)
	}
}

// WithCleanup sets a func to be called after the server has shut down.
func WithCleanup(f func()) Option {
	return func(options *options) {
		options.cleanup = f
	}
}

// Server is an HTTP server that implements task.Task.
type Server struct {
	e       *echo.Echo
	name    string
	addr    string
	cleanup func()
	logger  *slog.Logger
}

// NewServer creates a Server from the settings at cfgPath. Without a configured port
// an available one is picked.
func NewServer(cfg *config.Configuration, cfgPath string, opts ...Option) (*Server, error) {
	sc := serverConfig{Host: "localhost"}
	if err := cfg.Unmarshal(cfgPath, &sc); err != nil {
		return nil, err
	}

	options := options{
		name:   "echo server",
		logger: log.NewNilLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := sc.Port
	if p == 0 {
		var err error
		if p, err = port.AvailablePortOn(sc.Host); err != nil {
			return nil, err
		}
	}

	e := New(options.logger, !sc.DisableCompression)
	if sc.Prometheus != "" {
		if err := serveMetrics(e, sc.Prometheus, options.collectors); err != nil {
			return nil, err
		}
	}
	for _, r := range options.routes {
		if err := r.RegisterRoutes(e); err != nil {
			return nil, err
		}
	}
	if options.healthcheck != nil {
		e.GET(healthCheckRoute, healthcheck.New(options.healthcheck).Handle)
	}

	return &Server{
		e:       e,
		name:    options.name,
		addr:    net.JoinHostPort(sc.Host, strconv.Itoa(p)),
		cleanup: options.cleanup,
		logger:  options.logger,
	}, nil
}

// New creates an echo instance with the common middleware. Requests are traced when
// TracingEnv is set.
func New(logger *slog.Logger, gzip bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if _, ok := os.LookupEnv(TracingEnv); ok {
		service, _ := identity.WhoAmI()
		e.Use(echotrace.Middleware(echotrace.WithService(service)))
	}
	e.Use(middleware.CORS())
	e.Use(Recover(logger))
	e.Pre(middleware.RemoveTrailingSlash())
	if gzip {
		e.Use(middleware.Gzip())
	}
	return e
}

// serveMetrics registers request metrics and collectors on a registry of their own, so
// several servers can live in one process.
func serveMetrics(e *echo.Echo, subsystem string, cs []prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	cs = append([]prometheus.Collector{collectors.NewGoCollector()}, cs...)
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return stacktrace.Wrap(err)
		}
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 subsystem,
		Registerer:                reg,
		DoNotUseRequestPathFor404: true,
	}))
	e.GET(metricsRoute, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	return nil
}

// Handler returns the HTTP handler, for tests.
func (t *Server) Handler() http.Handler {
	return t.e
}

// Addr returns the listen address.
func (t *Server) Addr() string {
	return t.addr
}

// Run implements task.Task. It returns when ctx ends or the server fails to listen.
func (t *Server) Run(ctx context.Context) error {
	if t.cleanup != nil {
		defer t.cleanup()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := t.e.Start(t.addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return stacktrace.Wrap(err)
	})
	g.Go(func() error {
		<-gctx.Done()
		return t.e.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Name implements task.Task.
func (t *Server) Name() string {
	return fmt.Sprintf("%s on %s", t.name, t.addr)
}
